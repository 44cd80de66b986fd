// Package microstate groups dataset records into distinct full configurations.
package microstate

import (
	"encoding/binary"
	"errors"

	"github.com/dbsmedya/gomapping/internal/dataset"
)

// ErrEmptyDataset is returned when there are no records to cluster.
var ErrEmptyDataset = errors.New("dataset has no records")

// Row is one distinct configuration and the number of records sharing it.
type Row struct {
	Codes []uint32
	Count int
}

// Table is the microstate cluster table of a dataset.
// Rows appear in first-seen order and their counts sum to Total.
type Table struct {
	Rows      []Row
	Total     int
	Variables int
}

// Cluster groups ds on all of its variables.
func Cluster(ds *dataset.Dataset) (*Table, error) {
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	n := ds.NumVariables()
	all := make([]int, n)
	for j := range all {
		all[j] = j
	}

	t := &Table{Total: ds.Len(), Variables: n}
	index := make(map[string]int)
	var buf []byte

	for i := 0; i < ds.Len(); i++ {
		rec := ds.Record(i)
		buf = ProjectKey(buf[:0], rec, all)
		if pos, ok := index[string(buf)]; ok {
			t.Rows[pos].Count++
			continue
		}
		index[string(buf)] = len(t.Rows)
		t.Rows = append(t.Rows, Row{Codes: rec, Count: 1})
	}

	return t, nil
}

// Len returns the number of distinct microstates.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Counts returns the record count of every row.
func (t *Table) Counts() []int {
	out := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Count
	}
	return out
}

// Probabilities returns the atomistic distribution pr = count / Total.
func (t *Table) Probabilities() []float64 {
	out := make([]float64, len(t.Rows))
	total := float64(t.Total)
	for i, r := range t.Rows {
		out[i] = float64(r.Count) / total
	}
	return out
}

// ProjectKey appends to buf a fixed-width key of codes restricted to cols.
// Two rows agree on cols iff their keys are equal.
func ProjectKey(buf []byte, codes []uint32, cols []int) []byte {
	for _, c := range cols {
		buf = binary.BigEndian.AppendUint32(buf, codes[c])
	}
	return buf
}
