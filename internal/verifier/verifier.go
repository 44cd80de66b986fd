// Package verifier reads a written result table back and checks it against
// the results that produced it.
package verifier

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/dbsmedya/gomapping/internal/fileio"
	"github.com/dbsmedya/gomapping/internal/logger"
	"github.com/dbsmedya/gomapping/internal/report"
	"github.com/dbsmedya/gomapping/internal/types"
)

// VerificationMethod defines how a result table is checked.
type VerificationMethod string

const (
	// MethodCount compares the number of data rows (fast)
	MethodCount VerificationMethod = "count"
	// MethodSHA256 compares a SHA256 digest of the decompressed table
	MethodSHA256 VerificationMethod = "sha256"
	// MethodSkip skips verification entirely
	MethodSkip VerificationMethod = "skip"
)

// ErrMismatch is wrapped by every verification failure.
var ErrMismatch = errors.New("result table mismatch")

// checkEvery is how many rows are read between context checks.
const checkEvery = 4096

// VerifyResult holds the outcome for one table.
type VerifyResult struct {
	Path         string
	Method       VerificationMethod
	ExpectedRows int64
	ActualRows   int64
	ExpectedHash string
	ActualHash   string
	Match        bool
	ErrorMessage string
}

// Verifier checks result tables written by report.WriteFile.
type Verifier struct {
	method    VerificationMethod
	delimiter rune
	logger    *logger.Logger
}

// NewVerifier creates a verifier. An empty method means MethodCount.
func NewVerifier(method VerificationMethod, delimiter rune, log *logger.Logger) (*Verifier, error) {
	switch method {
	case "":
		method = MethodCount
	case MethodCount, MethodSHA256, MethodSkip:
	default:
		return nil, fmt.Errorf("unsupported verification method: %s", method)
	}
	if delimiter == 0 {
		delimiter = ','
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Verifier{method: method, delimiter: delimiter, logger: log}, nil
}

// Method returns the configured verification method.
func (v *Verifier) Method() VerificationMethod {
	return v.method
}

// Verify re-reads path and compares it with results. A mismatch returns the
// populated VerifyResult together with an error wrapping ErrMismatch.
func (v *Verifier) Verify(ctx context.Context, path string, results []*types.Result) (*VerifyResult, error) {
	if v.method == MethodSkip {
		v.logger.Info("Verification SKIPPED (method=skip)")
		return &VerifyResult{Path: path, Method: MethodSkip, Match: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("verification interrupted: %w", err)
	}

	var (
		result *VerifyResult
		err    error
	)
	switch v.method {
	case MethodCount:
		result, err = v.verifyByCount(ctx, path, results)
	case MethodSHA256:
		result, err = v.verifyBySHA256(path, results)
	}
	if err != nil {
		return nil, fmt.Errorf("verification failed for %s: %w", path, err)
	}

	if !result.Match {
		v.logger.Errorw("Verification FAILED", "path", path, "method", v.method, "reason", result.ErrorMessage)
		return result, fmt.Errorf("%w in %s: %s", ErrMismatch, path, result.ErrorMessage)
	}

	v.logger.Infow("Verification PASSED", "path", path, "method", v.method, "rows", result.ActualRows)
	return result, nil
}

// verifyByCount counts the data rows below the header.
func (v *Verifier) verifyByCount(ctx context.Context, path string, results []*types.Result) (*VerifyResult, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = v.delimiter
	r.FieldsPerRecord = len(report.Header)
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[1] != report.Header[1] {
		return nil, fmt.Errorf("unexpected header %q", header)
	}

	var rows int64
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rows, err)
		}
		rows++
		if rows%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	expected := int64(len(results))
	result := &VerifyResult{
		Path:         path,
		Method:       MethodCount,
		ExpectedRows: expected,
		ActualRows:   rows,
		Match:        rows == expected,
	}
	if !result.Match {
		result.ErrorMessage = fmt.Sprintf("count mismatch: expected=%d, file=%d", expected, rows)
	}
	return result, nil
}

// verifyBySHA256 hashes the decompressed file and a fresh rendering of
// results with the same writer.
func (v *Verifier) verifyBySHA256(path string, results []*types.Result) (*VerifyResult, error) {
	want := sha256.New()
	if err := report.WriteCSV(want, results, v.delimiter); err != nil {
		return nil, fmt.Errorf("failed to render expected table: %w", err)
	}

	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	got := sha256.New()
	if _, err := io.Copy(got, f); err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	expectedHash := hex.EncodeToString(want.Sum(nil))
	actualHash := hex.EncodeToString(got.Sum(nil))
	result := &VerifyResult{
		Path:         path,
		Method:       MethodSHA256,
		ExpectedRows: int64(len(results)),
		ExpectedHash: expectedHash,
		ActualHash:   actualHash,
		Match:        expectedHash == actualHash,
	}
	if result.Match {
		result.ActualRows = result.ExpectedRows
	} else {
		result.ErrorMessage = fmt.Sprintf("hash mismatch: expected=%s, file=%s", expectedHash[:16], actualHash[:16])
	}
	return result, nil
}
