package volume

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gomapping/internal/dataset"
)

func sample(t *testing.T) *dataset.Dataset {
	t.Helper()
	// cardinalities: A=2, B=8
	rows := make([][]string, 0, 8)
	for i := 0; i < 8; i++ {
		rows = append(rows, []string{string(rune('a' + i%2)), string(rune('a' + i))})
	}
	ds, err := dataset.FromRows([]string{"A", "B"}, rows)
	require.NoError(t, err)
	return ds
}

func TestGeometricMean(t *testing.T) {
	v, err := Estimate(GeometricMean{}, sample(t))
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-12)
}

func TestMaxCardinality(t *testing.T) {
	v, err := Estimate(MaxCardinality{}, sample(t))
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)
}

func TestFixed(t *testing.T) {
	v, err := Estimate(Fixed(12.5), sample(t))
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = Estimate(Fixed(0), sample(t))
	assert.ErrorIs(t, err, ErrNonPositiveVolume)
}

func TestNew(t *testing.T) {
	tests := []struct {
		method  string
		value   float64
		want    Estimator
		wantErr bool
	}{
		{method: "geometric", want: GeometricMean{}},
		{method: "", want: GeometricMean{}},
		{method: "max", want: MaxCardinality{}},
		{method: "fixed", value: 3, want: Fixed(3)},
		{method: "fixed", value: -1, wantErr: true},
		{method: "product", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got, err := New(tt.method, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheck(t *testing.T) {
	for _, v := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		_, err := Check(v)
		assert.ErrorIs(t, err, ErrNonPositiveVolume, "value %v", v)
	}
	v, err := Check(1e-9)
	require.NoError(t, err)
	assert.Equal(t, 1e-9, v)
}

type stubEstimator struct {
	v   float64
	err error
}

func (s stubEstimator) Estimate(*dataset.Dataset, int) (float64, error) {
	return s.v, s.err
}

func TestEstimate_RejectsCollaboratorOutput(t *testing.T) {
	_, err := Estimate(stubEstimator{v: -1}, sample(t))
	assert.ErrorIs(t, err, ErrNonPositiveVolume)

	boom := errors.New("boom")
	_, err = Estimate(stubEstimator{err: boom}, sample(t))
	assert.ErrorIs(t, err, boom)
}
