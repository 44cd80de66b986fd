package types

// Result holds the entropy measures computed for one mapping.
// A Result is created once per distinct mapping and never modified afterwards.
type Result struct {
	N       int      // Mapping size
	Mapping Mapping  // Selected variable indices
	Labels  []string // Selected variable names

	Hs   float64 // Resolution entropy
	Hk   float64 // Relevance (degeneracy) entropy
	Smap float64 // Mapping entropy
	Sinf float64 // Sampling-corrected mapping entropy
}

// Key returns the canonical identity of the result's mapping.
func (r *Result) Key() string {
	return r.Mapping.Key()
}
