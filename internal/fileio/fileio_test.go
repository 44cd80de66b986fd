package fileio

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want Compression
	}{
		{"data.csv", None},
		{"data.csv.gz", Gzip},
		{"DATA.CSV.GZ", Gzip},
		{"data.csv.zst", Zstd},
		{"data.zstd", Zstd},
		{"noext", None},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.path))
		})
	}
}

func TestCreateCommitOpen_RoundTrip(t *testing.T) {
	payload := "id,A,B\n0,x,y\n1,x,z\n"

	for _, name := range []string{"plain.csv", "packed.csv.gz", "packed.csv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			f, err := Create(path)
			require.NoError(t, err)
			_, err = io.WriteString(f, payload)
			require.NoError(t, err)
			require.NoError(t, f.Commit())

			r, err := Open(path)
			require.NoError(t, err)
			defer func() { _ = r.Close() }()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, string(got))
		})
	}
}

func TestCompressedFileIsNotPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv.gz")

	f, err := Create(path)
	require.NoError(t, err)
	_, err = io.WriteString(f, "hello,world\n")
	require.NoError(t, err)
	require.NoError(t, f.Commit())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hello")
}

func TestAbortLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.csv")

	f, err := Create(path)
	require.NoError(t, err)
	_, err = io.WriteString(f, "partial")
	require.NoError(t, err)
	f.Abort()

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "aborted output must not exist")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file must be removed")

	// Abort after abort, and Commit after abort, are harmless / reported
	f.Abort()
	assert.Error(t, f.Commit())
}

func TestCreateInMissingDirectory(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "out.csv"))
	assert.Error(t, err)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestOpenCorruptGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip at all"), 0644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestCheckWritable(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, CheckWritable(filepath.Join(dir, "out.csv.zst")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "check must not leave files behind")

	err = CheckWritable(filepath.Join(dir, "missing", "out.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = CheckWritable(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}
