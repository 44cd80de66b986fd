package mapper

import (
	"fmt"

	"github.com/dbsmedya/gomapping/internal/dataset"
	"github.com/dbsmedya/gomapping/internal/entropy"
	"github.com/dbsmedya/gomapping/internal/microstate"
	"github.com/dbsmedya/gomapping/internal/sampler"
	"github.com/dbsmedya/gomapping/internal/volume"
)

// Inspection summarises a dataset and the sampling plan for it.
type Inspection struct {
	Records       int
	Variables     int
	Microstates   int
	FullEntropy   float64
	Volume        float64
	Labels        []string
	Cardinalities []int
	Levels        []LevelStats
	Total         int // mappings a run would evaluate
}

// Inspect clusters ds and reports what a run with maxBinom would do,
// without evaluating any mapping.
func Inspect(ds *dataset.Dataset, est volume.Estimator, maxBinom int) (*Inspection, error) {
	if maxBinom <= 0 {
		return nil, fmt.Errorf("max_binom must be positive, got %d", maxBinom)
	}

	table, err := microstate.Cluster(ds)
	if err != nil {
		return nil, fmt.Errorf("microstate clustering: %w", err)
	}
	v, err := volume.Estimate(est, ds)
	if err != nil {
		return nil, fmt.Errorf("volume estimation: %w", err)
	}

	in := &Inspection{
		Records:       ds.Len(),
		Variables:     ds.NumVariables(),
		Microstates:   table.Len(),
		FullEntropy:   entropy.ShannonCounts(table.Counts()),
		Volume:        v,
		Labels:        ds.Labels(),
		Cardinalities: ds.Cardinalities(),
	}

	// the seed does not affect quotas or strategies
	smp := sampler.New(ds.NumVariables(), maxBinom, 1)
	for N := 1; N <= ds.NumVariables(); N++ {
		q := smp.Quota(N)
		in.Levels = append(in.Levels, LevelStats{
			N:        N,
			Possible: sampler.Binomial(ds.NumVariables(), N),
			Quota:    q,
			Strategy: smp.Strategy(N),
		})
		in.Total += q
	}
	return in, nil
}
