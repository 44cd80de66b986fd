package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/dbsmedya/gomapping/internal/fileio"
)

// checkEvery is how many records are read between context checks.
const checkEvery = 4096

// CSVLoader reads a delimited file whose first column is a record
// identifier. Files ending in .gz or .zst are decompressed on the fly.
type CSVLoader struct {
	Path      string
	Delimiter rune
}

// NewCSVLoader creates a loader for path.
func NewCSVLoader(path string, delimiter rune) *CSVLoader {
	return &CSVLoader{Path: path, Delimiter: delimiter}
}

// Load implements Loader.
func (l *CSVLoader) Load(ctx context.Context) (*Dataset, error) {
	f, err := fileio.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(ctx, f, l.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	return ds, nil
}

// ReadCSV parses a header row followed by records. Column 0 is dropped
// from the header and from every record.
func ReadCSV(ctx context.Context, r io.Reader, delimiter rune) (*Dataset, error) {
	cr := csv.NewReader(r)
	if delimiter != 0 {
		cr.Comma = delimiter
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header: %w", ErrNoVariables)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, ErrNoVariables
	}

	ds, err := New(header[1:])
	if err != nil {
		return nil, err
	}

	for line := 2; ; line++ {
		if line%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("line %d: %w: got %d, want %d",
				line, ErrRaggedRecord, len(rec), len(header))
		}
		if err := ds.Append(rec[1:]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	return ds, nil
}
