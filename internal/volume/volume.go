// Package volume estimates the configurational volume V of a dataset.
package volume

import (
	"errors"
	"fmt"
	"math"

	"github.com/dbsmedya/gomapping/internal/config"
	"github.com/dbsmedya/gomapping/internal/dataset"
)

// ErrNonPositiveVolume is returned when an estimate is not a positive finite number.
var ErrNonPositiveVolume = errors.New("configurational volume must be positive")

// Estimator supplies the scalar volume used by the sampling correction.
type Estimator interface {
	Estimate(ds *dataset.Dataset, variableCount int) (float64, error)
}

// GeometricMean uses the geometric mean of the per-variable distinct-value counts.
type GeometricMean struct{}

// Estimate implements Estimator.
func (GeometricMean) Estimate(ds *dataset.Dataset, variableCount int) (float64, error) {
	if variableCount <= 0 {
		return 0, fmt.Errorf("%w: no variables", ErrNonPositiveVolume)
	}
	var logSum float64
	for j := 0; j < variableCount; j++ {
		logSum += math.Log(float64(ds.Cardinality(j)))
	}
	return Check(math.Exp(logSum / float64(variableCount)))
}

// MaxCardinality uses the largest per-variable distinct-value count.
type MaxCardinality struct{}

// Estimate implements Estimator.
func (MaxCardinality) Estimate(ds *dataset.Dataset, variableCount int) (float64, error) {
	best := 0
	for j := 0; j < variableCount; j++ {
		if c := ds.Cardinality(j); c > best {
			best = c
		}
	}
	return Check(float64(best))
}

// Fixed returns a configured value regardless of the data.
type Fixed float64

// Estimate implements Estimator.
func (f Fixed) Estimate(*dataset.Dataset, int) (float64, error) {
	return Check(float64(f))
}

// New returns the estimator for a configured method.
func New(method string, value float64) (Estimator, error) {
	switch method {
	case config.VolumeGeometric, "":
		return GeometricMean{}, nil
	case config.VolumeMax:
		return MaxCardinality{}, nil
	case config.VolumeFixed:
		if _, err := Check(value); err != nil {
			return nil, err
		}
		return Fixed(value), nil
	default:
		return nil, fmt.Errorf("unknown volume method %q", method)
	}
}

// Check passes v through if it is positive and finite.
func Check(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: got %v", ErrNonPositiveVolume, v)
	}
	return v, nil
}

// Estimate runs est and validates its result.
func Estimate(est Estimator, ds *dataset.Dataset) (float64, error) {
	v, err := est.Estimate(ds, ds.NumVariables())
	if err != nil {
		return 0, err
	}
	return Check(v)
}
