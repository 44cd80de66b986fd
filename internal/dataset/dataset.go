// Package dataset holds categorical records in dictionary-encoded form and
// loads them from delimited files or SQL queries.
package dataset

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRaggedRecord is returned when a record's arity differs from the header.
	ErrRaggedRecord = errors.New("record has wrong number of fields")
	// ErrNoVariables is returned when the source has no variable columns
	// after the record identifier.
	ErrNoVariables = errors.New("no variable columns")
)

// Loader produces a Dataset from some source.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// Dataset is an ordered sequence of records over n categorical variables.
// Each value is replaced by a per-column code; codes are assigned in
// first-seen order starting at 0.
type Dataset struct {
	labels  []string
	records [][]uint32
	dicts   []map[string]uint32
	values  [][]string
}

// New creates an empty dataset with the given variable labels.
func New(labels []string) (*Dataset, error) {
	if len(labels) == 0 {
		return nil, ErrNoVariables
	}
	d := &Dataset{
		labels: append([]string(nil), labels...),
		dicts:  make([]map[string]uint32, len(labels)),
		values: make([][]string, len(labels)),
	}
	for i := range d.dicts {
		d.dicts[i] = make(map[string]uint32)
	}
	return d, nil
}

// FromRows builds a dataset from labels and string records.
func FromRows(labels []string, rows [][]string) (*Dataset, error) {
	d, err := New(labels)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := d.Append(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return d, nil
}

// Append encodes and adds one record.
func (d *Dataset) Append(record []string) error {
	if len(record) != len(d.labels) {
		return fmt.Errorf("%w: got %d, want %d", ErrRaggedRecord, len(record), len(d.labels))
	}
	codes := make([]uint32, len(record))
	for j, v := range record {
		code, ok := d.dicts[j][v]
		if !ok {
			code = uint32(len(d.values[j]))
			d.dicts[j][v] = code
			d.values[j] = append(d.values[j], v)
		}
		codes[j] = code
	}
	d.records = append(d.records, codes)
	return nil
}

// Labels returns the variable names in column order.
func (d *Dataset) Labels() []string {
	return d.labels
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// NumVariables returns n.
func (d *Dataset) NumVariables() int {
	return len(d.labels)
}

// Record returns the encoded values of record i. The slice must not be modified.
func (d *Dataset) Record(i int) []uint32 {
	return d.records[i]
}

// Cardinality returns the number of distinct values seen for variable j.
func (d *Dataset) Cardinality(j int) int {
	return len(d.values[j])
}

// Cardinalities returns the distinct-value count of every variable.
func (d *Dataset) Cardinalities() []int {
	out := make([]int, len(d.values))
	for j := range d.values {
		out[j] = len(d.values[j])
	}
	return out
}

// Value decodes a code of variable j back to its original string.
func (d *Dataset) Value(j int, code uint32) string {
	return d.values[j][code]
}
