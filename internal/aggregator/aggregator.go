// Package aggregator collects one entropy result per distinct mapping.
package aggregator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/gomapping/internal/types"
)

var (
	// ErrNotReserved is returned when storing a result for an unclaimed mapping.
	ErrNotReserved = errors.New("mapping was not reserved")
	// ErrAlreadyStored is returned when a mapping's result is stored twice.
	ErrAlreadyStored = errors.New("result already stored")
	// ErrPending is returned by Table while reserved results are missing.
	ErrPending = errors.New("results still pending")
)

// Aggregator is an insert-only association from mapping identity to result,
// kept in the order identities were reserved. It is safe for concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	results *orderedmap.OrderedMap[string, *types.Result]
	pending int
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		results: orderedmap.NewOrderedMap[string, *types.Result](),
	}
}

// Reserve claims m's identity. It returns false if m was seen before.
func (a *Aggregator) Reserve(m types.Mapping) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := m.Key()
	if _, ok := a.results.Get(key); ok {
		return false
	}
	a.results.Set(key, nil)
	a.pending++
	return true
}

// Store fills the reserved slot of r's mapping.
func (a *Aggregator) Store(r *types.Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := r.Key()
	existing, ok := a.results.Get(key)
	if !ok {
		return fmt.Errorf("mapping %s: %w", r.Mapping, ErrNotReserved)
	}
	if existing != nil {
		return fmt.Errorf("mapping %s: %w", r.Mapping, ErrAlreadyStored)
	}
	a.results.Set(key, r)
	a.pending--
	return nil
}

// Has reports whether m has been reserved.
func (a *Aggregator) Has(m types.Mapping) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.results.Get(m.Key())
	return ok
}

// Len returns the number of reserved identities.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.results.Len()
}

// Table returns all results in reservation order.
func (a *Aggregator) Table() ([]*types.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending > 0 {
		return nil, fmt.Errorf("%w: %d of %d", ErrPending, a.pending, a.results.Len())
	}
	out := make([]*types.Result, 0, a.results.Len())
	for el := a.results.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out, nil
}
