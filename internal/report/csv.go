// Package report writes run results as a delimited table and renders
// console summaries.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dbsmedya/gomapping/internal/fileio"
	"github.com/dbsmedya/gomapping/internal/types"
)

// Header is the result table header. The first column holds the row index.
var Header = []string{"", "N", "mapping", "trans_mapping", "hs", "hk", "smap", "smap_inf"}

// FormatMapping renders indices as "[0 2 5]".
func FormatMapping(m types.Mapping) string {
	return m.String()
}

// FormatLabels renders labels as "['A', 'C']".
func FormatLabels(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = "'" + l + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// FormatFloat renders an entropy with six decimal digits.
func FormatFloat(v float64) string {
	return fmt.Sprintf("%8.6f", v)
}

// WriteCSV writes the header and one row per result.
func WriteCSV(w io.Writer, results []*types.Result, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(Header))
	for i, r := range results {
		row[0] = strconv.Itoa(i)
		row[1] = strconv.Itoa(r.N)
		row[2] = FormatMapping(r.Mapping)
		row[3] = FormatLabels(r.Labels)
		row[4] = FormatFloat(r.Hs)
		row[5] = FormatFloat(r.Hk)
		row[6] = FormatFloat(r.Smap)
		row[7] = FormatFloat(r.Sinf)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes results to path atomically, compressing for .gz and
// .zst suffixes. Nothing is left at path if writing fails.
func WriteFile(path string, results []*types.Result, delimiter rune) error {
	f, err := fileio.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, results, delimiter); err != nil {
		f.Abort()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Commit()
}
