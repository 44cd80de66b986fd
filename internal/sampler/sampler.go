// Package sampler produces distinct mappings for each coarse-graining level,
// enumerating them when the level is small enough and sampling otherwise.
package sampler

import (
	"context"
	"iter"
	"math"
	"math/bits"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/dbsmedya/gomapping/internal/types"
)

// denseLimit bounds the level size for which all combinations may be
// materialised and shuffled instead of rejection-sampled.
const denseLimit = 1 << 20

// Strategy names how a level's mappings are produced.
type Strategy string

const (
	Enumerate Strategy = "enumerate"
	Dense     Strategy = "dense"
	Rejection Strategy = "rejection"
)

// Binomial returns C(n, k), saturating at math.MaxUint64.
func Binomial(n, k int) uint64 {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := uint64(1)
	for i := 1; i <= k; i++ {
		// c * (n-k+i) / i is always integral
		hi, lo := bits.Mul64(c, uint64(n-k+i))
		if hi >= uint64(i) {
			return math.MaxUint64
		}
		c, _ = bits.Div64(hi, lo, uint64(i))
	}
	return c
}

// Combinations yields every k-subset of [0, n) in lexicographic order.
// Each yielded mapping is a fresh slice.
func Combinations(n, k int) iter.Seq[types.Mapping] {
	return func(yield func(types.Mapping) bool) {
		if k <= 0 || k > n {
			return
		}
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			if !yield(append(types.Mapping(nil), idx...)) {
				return
			}
			i := k - 1
			for i >= 0 && idx[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}

// Sampler draws mappings over n variables, at most maxBinom per level.
// It is not safe for concurrent use.
type Sampler struct {
	n        int
	maxBinom int
	seed     uint64
	rng      *rand.Rand
	pool     []int
}

// New creates a Sampler. A zero seed picks one from the clock.
func New(n, maxBinom int, seed uint64) *Sampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	return &Sampler{
		n:        n,
		maxBinom: maxBinom,
		seed:     seed,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		pool:     pool,
	}
}

// Seed returns the seed in use, for reproducing a run.
func (s *Sampler) Seed() uint64 {
	return s.seed
}

// Quota returns min(C(n, N), maxBinom).
func (s *Sampler) Quota(N int) int {
	c := Binomial(s.n, N)
	if c < uint64(s.maxBinom) {
		return int(c)
	}
	return s.maxBinom
}

// Strategy reports how level N will be produced.
func (s *Sampler) Strategy(N int) Strategy {
	c := Binomial(s.n, N)
	switch {
	case c <= uint64(s.maxBinom):
		return Enumerate
	case c <= denseLimit && uint64(s.maxBinom)*2 > c:
		return Dense
	default:
		return Rejection
	}
}

// Plan returns the quota of every level 1..n, indexed by N-1.
func (s *Sampler) Plan() []int {
	out := make([]int, s.n)
	for N := 1; N <= s.n; N++ {
		out[N-1] = s.Quota(N)
	}
	return out
}

// Level produces Quota(N) distinct mappings of size N and passes each to
// yield. It stops at the first yield error or when ctx is done, and
// returns the number of mappings yielded.
func (s *Sampler) Level(ctx context.Context, N int, yield func(types.Mapping) error) (int, error) {
	quota := s.Quota(N)
	if quota == 0 {
		return 0, nil
	}

	var next func() types.Mapping
	switch s.Strategy(N) {
	case Enumerate:
		pull, stop := iter.Pull(Combinations(s.n, N))
		defer stop()
		next = func() types.Mapping {
			m, _ := pull()
			return m
		}
	case Dense:
		all := make([]types.Mapping, 0, int(Binomial(s.n, N)))
		for m := range Combinations(s.n, N) {
			all = append(all, m)
		}
		s.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		pos := 0
		next = func() types.Mapping {
			m := all[pos]
			pos++
			return m
		}
	default:
		seen := make(map[string]struct{}, quota)
		next = func() types.Mapping {
			for {
				m := s.draw(N)
				key := m.Key()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				return m
			}
		}
	}

	for accepted := 0; accepted < quota; accepted++ {
		if err := ctx.Err(); err != nil {
			return accepted, err
		}
		if err := yield(next()); err != nil {
			return accepted, err
		}
	}
	return quota, nil
}

// draw returns a uniformly random N-subset via a partial Fisher-Yates shuffle.
func (s *Sampler) draw(N int) types.Mapping {
	for i := 0; i < N; i++ {
		j := i + s.rng.IntN(s.n-i)
		s.pool[i], s.pool[j] = s.pool[j], s.pool[i]
	}
	m := append(types.Mapping(nil), s.pool[:N]...)
	sort.Ints(m)
	return m
}
