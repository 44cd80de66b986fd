// Package entropy computes the information-theoretic measures of a mapping.
//
// For a mapping of N out of n variables the Engine derives:
//
//	Hs    resolution entropy: Shannon entropy of coarse-state record counts
//	Hk    relevance entropy: Shannon entropy of v*m_v over distinct counts v,
//	      where m_v is the number of coarse states holding v records
//	Smap  mapping entropy: KL divergence between the microstate distribution
//	      and its reconstruction smeared uniformly over each coarse state
//	Sinf  (n-1-N)*ln(V) - H(microstates) + Hs
//
// All logarithms are natural.
package entropy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dbsmedya/gomapping/internal/microstate"
	"github.com/dbsmedya/gomapping/internal/types"
	"github.com/dbsmedya/gomapping/internal/volume"
)

var (
	// ErrUnmatchedCoarseState is returned when a microstate has no coarse state
	// during the mapping-entropy join.
	ErrUnmatchedCoarseState = errors.New("microstate has no matching coarse state")

	// ErrInvalidMapping is returned for empty, out-of-range or unsorted mappings.
	ErrInvalidMapping = types.ErrInvalidMapping
)

// UnmatchedStateError identifies the mapping and microstate row that failed to join.
type UnmatchedStateError struct {
	Mapping types.Mapping
	Row     int
}

func (e *UnmatchedStateError) Error() string {
	return fmt.Sprintf("mapping %s: microstate row %d: %v", e.Mapping, e.Row, ErrUnmatchedCoarseState)
}

func (e *UnmatchedStateError) Unwrap() error {
	return ErrUnmatchedCoarseState
}

// Shannon returns the entropy of weights after normalising them.
// Non-positive weights are ignored; an all-zero input has zero entropy.
func Shannon(weights []float64) float64 {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, w := range weights {
		if w > 0 {
			p := w / total
			h -= p * math.Log(p)
		}
	}
	return h
}

// ShannonCounts is Shannon over integer counts.
func ShannonCounts(counts []int) float64 {
	w := make([]float64, len(counts))
	for i, c := range counts {
		w[i] = float64(c)
	}
	return Shannon(w)
}

// Engine evaluates mappings against one microstate table.
// Compute is safe for concurrent use.
type Engine struct {
	table  *microstate.Table
	pr     []float64
	labels []string
	logV   float64
	full   float64
}

// NewEngine precomputes the atomistic distribution and full-resolution entropy.
func NewEngine(table *microstate.Table, labels []string, v float64) (*Engine, error) {
	if table == nil || table.Total == 0 {
		return nil, microstate.ErrEmptyDataset
	}
	if len(labels) != table.Variables {
		return nil, fmt.Errorf("got %d labels for %d variables", len(labels), table.Variables)
	}
	if _, err := volume.Check(v); err != nil {
		return nil, err
	}
	return &Engine{
		table:  table,
		pr:     table.Probabilities(),
		labels: labels,
		logV:   math.Log(v),
		full:   ShannonCounts(table.Counts()),
	}, nil
}

// FullEntropy returns H(microstate counts).
func (e *Engine) FullEntropy() float64 {
	return e.full
}

// Variables returns n.
func (e *Engine) Variables() int {
	return e.table.Variables
}

// coarseState accumulates one coarse cluster.
type coarseState struct {
	count int // records
	omega int // distinct microstates
}

// Compute evaluates one mapping.
func (e *Engine) Compute(m types.Mapping) (*types.Result, error) {
	n := e.table.Variables
	if err := m.Validate(n); err != nil {
		return nil, err
	}

	// Grouping microstate rows by the mapping's variables and summing their
	// counts gives the same coarse table as grouping every record.
	index := make(map[string]*coarseState)
	states := make([]*coarseState, 0)
	var buf []byte
	for _, row := range e.table.Rows {
		buf = microstate.ProjectKey(buf[:0], row.Codes, m)
		st, ok := index[string(buf)]
		if !ok {
			st = &coarseState{}
			index[string(buf)] = st
			states = append(states, st)
		}
		st.count += row.Count
		st.omega++
	}

	counts := make([]int, len(states))
	for i, st := range states {
		counts[i] = st.count
	}
	hs := ShannonCounts(counts)
	hk := relevance(counts)

	total := float64(e.table.Total)
	pbar := make(map[string]float64, len(index))
	for key, st := range index {
		pbar[key] = float64(st.count) / total / float64(st.omega)
	}

	smap, err := e.mappingEntropy(m, pbar)
	if err != nil {
		return nil, err
	}

	N := m.Len()
	return &types.Result{
		N:       N,
		Mapping: m,
		Labels:  m.Labels(e.labels),
		Hs:      hs,
		Hk:      hk,
		Smap:    smap,
		Sinf:    float64(n-1-N)*e.logV - e.full + hs,
	}, nil
}

// relevance returns the Shannon entropy of v*m_v over the distinct values v
// of counts, m_v being how many times v occurs.
func relevance(counts []int) float64 {
	classes := make(map[int]int)
	for _, c := range counts {
		classes[c]++
	}
	values := make([]int, 0, len(classes))
	for v := range classes {
		values = append(values, v)
	}
	sort.Ints(values)

	weights := make([]float64, len(values))
	for i, v := range values {
		weights[i] = float64(v) * float64(classes[v])
	}
	return Shannon(weights)
}

// mappingEntropy accumulates pr*ln(pr/p_bar) over microstates, looking up
// each microstate's coarse state by its projected key.
func (e *Engine) mappingEntropy(m types.Mapping, pbar map[string]float64) (float64, error) {
	var smap float64
	var buf []byte
	for i, row := range e.table.Rows {
		buf = microstate.ProjectKey(buf[:0], row.Codes, m)
		pb, ok := pbar[string(buf)]
		if !ok {
			return 0, &UnmatchedStateError{Mapping: m, Row: i}
		}
		pr := e.pr[i]
		smap += pr * math.Log(pr/pb)
	}
	return smap, nil
}
