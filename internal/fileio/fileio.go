// Package fileio opens dataset and result files, transparently handling
// gzip (.gz) and zstd (.zst) compression based on the file extension.
package fileio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies a stream codec.
type Compression string

const (
	None Compression = ""
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
)

// Detect returns the codec implied by the path's extension.
func Detect(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	default:
		return None
	}
}

// readCloser closes the decoder before the underlying file.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (m *readCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, decompressing when the extension asks for it.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReader(f, Detect(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &readCloser{Reader: r, closers: []func() error{r.Close, f.Close}}, nil
}

// NewReader wraps r with a decompressor for the given codec.
// Closing the returned reader does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(r), nil
	}
}

// NewWriter wraps w with a compressor for the given codec.
// Closing the returned writer flushes the codec but does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(3)))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return enc, nil
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// AtomicFile is a compressed-on-demand writer that only appears at its final
// path after Commit. Abort (or a failed Commit) removes the temporary file.
type AtomicFile struct {
	path string
	tmp  *os.File
	w    io.WriteCloser
	done bool
}

// Create starts writing path via a temporary file in the same directory.
func Create(path string) (*AtomicFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	w, err := NewWriter(tmp, Detect(path))
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}

	return &AtomicFile{path: path, tmp: tmp, w: w}, nil
}

// CheckWritable reports whether path can be created, by starting an
// AtomicFile next to it and discarding it. Nothing is left behind.
func CheckWritable(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	f, err := Create(path)
	if err != nil {
		return err
	}
	f.Abort()
	return nil
}

// Write implements io.Writer.
func (a *AtomicFile) Write(p []byte) (int, error) {
	return a.w.Write(p)
}

// Commit flushes and renames the temporary file to its final path.
func (a *AtomicFile) Commit() error {
	if a.done {
		return fmt.Errorf("file %s already closed", a.path)
	}
	a.done = true

	if err := a.w.Close(); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to flush %s: %w", a.path, err)
	}
	if err := a.tmp.Close(); err != nil {
		_ = os.Remove(a.tmp.Name())
		return fmt.Errorf("failed to close %s: %w", a.path, err)
	}
	// CreateTemp uses 0600
	_ = os.Chmod(a.tmp.Name(), 0644)
	if err := os.Rename(a.tmp.Name(), a.path); err != nil {
		_ = os.Remove(a.tmp.Name())
		return fmt.Errorf("failed to move %s into place: %w", a.path, err)
	}
	return nil
}

// Abort discards everything written so far. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.cleanup()
}

func (a *AtomicFile) cleanup() {
	_ = a.w.Close()
	_ = a.tmp.Close()
	_ = os.Remove(a.tmp.Name())
}
