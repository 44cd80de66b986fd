// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidMapping is returned when a mapping is empty, out of range, unsorted or has duplicates.
var ErrInvalidMapping = errors.New("invalid mapping")

// Mapping is an ascending, duplicate-free set of variable indices.
// Its canonical identity is the sorted index tuple, see Key.
type Mapping []int

// NewMapping returns the canonical (sorted) form of the given indices.
// The input slice is not modified.
func NewMapping(indices ...int) Mapping {
	m := make(Mapping, len(indices))
	copy(m, indices)
	sort.Ints(m)
	return m
}

// Len returns the mapping size N.
func (m Mapping) Len() int {
	return len(m)
}

// Key returns the canonical identity of the mapping, e.g. "0,2,5".
func (m Mapping) Key() string {
	var sb strings.Builder
	for i, idx := range m {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}

// String renders the mapping the way numpy prints an index array: "[0 2 5]".
func (m Mapping) String() string {
	parts := make([]string, len(m))
	for i, idx := range m {
		parts[i] = strconv.Itoa(idx)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Validate checks that the mapping is a non-empty, strictly ascending
// subset of [0, n).
func (m Mapping) Validate(n int) error {
	if len(m) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidMapping)
	}
	if len(m) > n {
		return fmt.Errorf("%w: %s has %d indices for %d variables", ErrInvalidMapping, m, len(m), n)
	}
	for i, idx := range m {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidMapping, idx, n)
		}
		if i > 0 && idx <= m[i-1] {
			return fmt.Errorf("%w: %s is not strictly ascending", ErrInvalidMapping, m)
		}
	}
	return nil
}

// Labels returns the variable names selected by the mapping.
func (m Mapping) Labels(names []string) []string {
	out := make([]string, len(m))
	for i, idx := range m {
		out[i] = names[idx]
	}
	return out
}
