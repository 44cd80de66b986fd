package entropy

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gomapping/internal/dataset"
	"github.com/dbsmedya/gomapping/internal/microstate"
	"github.com/dbsmedya/gomapping/internal/sampler"
	"github.com/dbsmedya/gomapping/internal/types"
	"github.com/dbsmedya/gomapping/internal/volume"
)

const tol = 1e-12

func engineFor(t *testing.T, labels []string, rows [][]string, v float64) *Engine {
	t.Helper()
	ds, err := dataset.FromRows(labels, rows)
	require.NoError(t, err)
	tbl, err := microstate.Cluster(ds)
	require.NoError(t, err)
	e, err := NewEngine(tbl, ds.Labels(), v)
	require.NoError(t, err)
	return e
}

func fourStates(t *testing.T) *Engine {
	return engineFor(t, []string{"A", "B"}, [][]string{
		{"0", "0"}, {"0", "1"}, {"1", "0"}, {"1", "1"},
	}, 2)
}

func TestShannon(t *testing.T) {
	assert.InDelta(t, math.Log(4), Shannon([]float64{1, 1, 1, 1}), tol)
	assert.InDelta(t, math.Log(2), Shannon([]float64{5, 5}), tol)
	assert.Equal(t, 0.0, Shannon([]float64{7}))
	assert.Equal(t, 0.0, Shannon(nil))
	assert.Equal(t, 0.0, Shannon([]float64{0, 0}))
	assert.InDelta(t, math.Log(2), Shannon([]float64{3, 0, 3}), tol)

	// -(0.75 ln 0.75 + 0.25 ln 0.25)
	want := -(0.75*math.Log(0.75) + 0.25*math.Log(0.25))
	assert.InDelta(t, want, ShannonCounts([]int{3, 1}), tol)
}

func TestCompute_FourStatesScenario(t *testing.T) {
	e := fourStates(t)
	assert.InDelta(t, math.Log(4), e.FullEntropy(), tol)

	r, err := e.Compute(types.NewMapping(0))
	require.NoError(t, err)

	assert.Equal(t, 1, r.N)
	assert.Equal(t, types.Mapping{0}, r.Mapping)
	assert.Equal(t, []string{"A"}, r.Labels)
	assert.InDelta(t, math.Log(2), r.Hs, tol)
	assert.InDelta(t, 0.0, r.Hk, tol)
	assert.InDelta(t, 0.0, r.Smap, tol)

	// (n-1-N) = 0, so Sinf = -ln4 + ln2
	assert.InDelta(t, -math.Log(4)+math.Log(2), r.Sinf, tol)
}

func TestCompute_FullMappingIsLossless(t *testing.T) {
	rows := [][]string{
		{"a", "x", "1"}, {"a", "x", "1"}, {"a", "y", "1"},
		{"b", "y", "2"}, {"b", "y", "2"}, {"b", "y", "2"},
		{"c", "x", "2"},
	}
	e := engineFor(t, []string{"A", "B", "C"}, rows, 3)

	r, err := e.Compute(types.NewMapping(0, 1, 2))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r.Smap, tol)
	assert.InDelta(t, e.FullEntropy(), r.Hs, tol)
	// n-1-N = -1
	assert.InDelta(t, -math.Log(3), r.Sinf, tol)
}

func TestCompute_InjectiveSubsetIsLossless(t *testing.T) {
	// B determines the whole record
	rows := [][]string{{"a", "1"}, {"a", "2"}, {"b", "3"}, {"b", "3"}}
	e := engineFor(t, []string{"A", "B"}, rows, 2)

	r, err := e.Compute(types.NewMapping(1))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r.Smap, tol)
}

func TestCompute_LossyMapping(t *testing.T) {
	// A=a covers two microstates with counts 3 and 1
	rows := [][]string{{"a", "1"}, {"a", "1"}, {"a", "1"}, {"a", "2"}, {"b", "3"}, {"b", "3"}, {"b", "3"}, {"b", "3"}}
	e := engineFor(t, []string{"A", "B"}, rows, 3)

	r, err := e.Compute(types.NewMapping(0))
	require.NoError(t, err)

	// coarse counts {4, 4}
	assert.InDelta(t, math.Log(2), r.Hs, tol)
	assert.InDelta(t, 0.0, r.Hk, tol)

	// p_bar(a) = 0.5/2 = 0.25, p_bar(b) = 0.5
	want := 0.375*math.Log(0.375/0.25) + 0.125*math.Log(0.125/0.25) + 0.5*math.Log(0.5/0.5)
	assert.InDelta(t, want, r.Smap, tol)
	assert.Greater(t, r.Smap, 0.0)
}

func TestRelevance(t *testing.T) {
	// counts {1,1,2}: classes v=1 (m=2) and v=2 (m=1); weights {2, 2}
	assert.InDelta(t, math.Log(2), relevance([]int{1, 2, 1}), tol)
	// counts {3,1}: weights {1, 3}
	assert.InDelta(t, ShannonCounts([]int{1, 3}), relevance([]int{3, 1}), tol)
	assert.Equal(t, 0.0, relevance([]int{5, 5, 5}))
}

func TestCompute_SmapNonNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	rows := make([][]string, 300)
	for i := range rows {
		rows[i] = []string{
			fmt.Sprint(rng.IntN(3)),
			fmt.Sprint(rng.IntN(2)),
			fmt.Sprint(rng.IntN(4)),
			fmt.Sprint(rng.IntN(2)),
		}
	}
	e := engineFor(t, []string{"A", "B", "C", "D"}, rows, 2.5)

	for N := 1; N <= 4; N++ {
		for m := range sampler.Combinations(4, N) {
			r, err := e.Compute(m)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, r.Smap, -1e-12, "mapping %s", m)
			assert.LessOrEqual(t, r.Hs, e.FullEntropy()+1e-12)
			assert.InDelta(t, float64(4-1-N)*math.Log(2.5)-e.FullEntropy()+r.Hs, r.Sinf, tol)
		}
	}
}

func TestCompute_InvalidMapping(t *testing.T) {
	e := fourStates(t)
	for _, m := range []types.Mapping{{}, {2}, {1, 0}, {0, 0}, {-1}} {
		_, err := e.Compute(m)
		assert.ErrorIs(t, err, ErrInvalidMapping, "mapping %v", m)
	}
}

func TestMappingEntropy_Unmatched(t *testing.T) {
	e := fourStates(t)
	m := types.NewMapping(0)

	// only the A=0 coarse state is present
	key := string(microstate.ProjectKey(nil, []uint32{0, 0}, m))
	_, err := e.mappingEntropy(m, map[string]float64{key: 0.25})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnmatchedCoarseState)

	var ue *UnmatchedStateError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 2, ue.Row)
	assert.Contains(t, err.Error(), "[0]")
}

func TestNewEngine_Errors(t *testing.T) {
	ds, err := dataset.FromRows([]string{"A"}, [][]string{{"x"}})
	require.NoError(t, err)
	tbl, err := microstate.Cluster(ds)
	require.NoError(t, err)

	_, err = NewEngine(tbl, ds.Labels(), 0)
	assert.ErrorIs(t, err, volume.ErrNonPositiveVolume)

	_, err = NewEngine(tbl, []string{"A", "B"}, 1)
	assert.Error(t, err)

	_, err = NewEngine(nil, nil, 1)
	assert.ErrorIs(t, err, microstate.ErrEmptyDataset)
}
