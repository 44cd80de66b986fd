// Package mapper drives a full run: clustering, volume estimation, and
// per-level sampling with parallel entropy evaluation.
package mapper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/gomapping/internal/aggregator"
	"github.com/dbsmedya/gomapping/internal/dataset"
	"github.com/dbsmedya/gomapping/internal/entropy"
	"github.com/dbsmedya/gomapping/internal/logger"
	"github.com/dbsmedya/gomapping/internal/microstate"
	"github.com/dbsmedya/gomapping/internal/sampler"
	"github.com/dbsmedya/gomapping/internal/types"
	"github.com/dbsmedya/gomapping/internal/volume"
	"github.com/dbsmedya/gomapping/internal/worker"
)

// Options controls a run.
type Options struct {
	MaxBinom int    // mappings evaluated per level at most
	Workers  int    // evaluation workers, 0 = NumCPU
	Seed     uint64 // sampler seed, 0 = time-based
	Verbose  bool   // log every mapping at info level
}

// LevelStats describes one coarse-graining level.
type LevelStats struct {
	N         int
	Possible  uint64 // C(n, N), saturated
	Quota     int    // min(C(n, N), max_binom)
	Evaluated int
	Strategy  sampler.Strategy
	Duration  time.Duration
}

// RunResult contains the results and statistics of a run.
type RunResult struct {
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Records     int
	Variables   int
	Microstates int
	Volume      float64
	FullEntropy float64
	Seed        uint64
	Levels      []LevelStats
	Results     []*types.Result
}

// Orchestrator coordinates a run over one dataset.
type Orchestrator struct {
	opts      Options
	estimator volume.Estimator
	logger    *logger.Logger
}

// NewOrchestrator creates an orchestrator. The estimator supplies V.
func NewOrchestrator(opts Options, est volume.Estimator) (*Orchestrator, error) {
	if opts.MaxBinom <= 0 {
		return nil, fmt.Errorf("max_binom must be positive, got %d", opts.MaxBinom)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("workers cannot be negative, got %d", opts.Workers)
	}
	if est == nil {
		return nil, fmt.Errorf("volume estimator is nil")
	}
	return &Orchestrator{
		opts:      opts,
		estimator: est,
		logger:    logger.NewNop(),
	}, nil
}

// SetLogger sets a custom logger for the orchestrator.
func (o *Orchestrator) SetLogger(log *logger.Logger) {
	o.logger = log
}

// Run evaluates every sampled mapping of ds and returns the results in
// acceptance order. Any evaluation error aborts the run.
func (o *Orchestrator) Run(ctx context.Context, ds *dataset.Dataset) (*RunResult, error) {
	res := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Records:   ds.Len(),
		Variables: ds.NumVariables(),
	}
	log := o.logger.WithRun(res.RunID)

	table, err := microstate.Cluster(ds)
	if err != nil {
		return nil, fmt.Errorf("microstate clustering: %w", err)
	}
	res.Microstates = table.Len()

	v, err := volume.Estimate(o.estimator, ds)
	if err != nil {
		return nil, fmt.Errorf("volume estimation: %w", err)
	}
	res.Volume = v

	engine, err := entropy.NewEngine(table, ds.Labels(), v)
	if err != nil {
		return nil, fmt.Errorf("entropy engine: %w", err)
	}
	res.FullEntropy = engine.FullEntropy()

	smp := sampler.New(ds.NumVariables(), o.opts.MaxBinom, o.opts.Seed)
	res.Seed = smp.Seed()

	log.Infow("Starting run",
		"records", res.Records,
		"variables", res.Variables,
		"microstates", res.Microstates,
		"volume", res.Volume,
		"full_entropy", res.FullEntropy,
		"max_binom", o.opts.MaxBinom,
		"seed", res.Seed,
	)

	agg := aggregator.New()
	pool := worker.NewPool(ctx, &worker.Config{MaxWorkers: o.opts.Workers})

	var levelErr error
	for N := 1; N <= ds.NumVariables() && levelErr == nil; N++ {
		levelLog := log.WithLevel(N)
		stats := LevelStats{
			N:        N,
			Possible: sampler.Binomial(ds.NumVariables(), N),
			Quota:    smp.Quota(N),
			Strategy: smp.Strategy(N),
		}
		levelLog.Debugw("Sampling level", "possible", stats.Possible, "quota", stats.Quota, "strategy", stats.Strategy)

		start := time.Now()
		stats.Evaluated, levelErr = smp.Level(pool.Context(), N, func(m types.Mapping) error {
			if !agg.Reserve(m) {
				return nil
			}
			return pool.Submit(o.evaluate(engine, agg, levelLog, m))
		})
		stats.Duration = time.Since(start)
		res.Levels = append(res.Levels, stats)

		levelLog.Infow("Level submitted",
			"mappings", stats.Evaluated,
			"elapsed", time.Since(res.StartedAt).Round(time.Millisecond),
		)
	}

	if err := pool.Wait(); err != nil {
		return nil, err
	}
	if levelErr != nil {
		return nil, levelErr
	}

	results, err := agg.Table()
	if err != nil {
		return nil, err
	}
	res.Results = results
	res.CompletedAt = time.Now()
	res.Duration = res.CompletedAt.Sub(res.StartedAt)

	stats := pool.Stats()
	log.Infow("Run completed",
		"mappings", len(results),
		"workers", stats.MaxWorkers,
		"duration", res.Duration.Round(time.Millisecond),
	)
	return res, nil
}

// evaluate builds the task computing and storing one mapping's result.
func (o *Orchestrator) evaluate(engine *entropy.Engine, agg *aggregator.Aggregator, log *logger.Logger, m types.Mapping) worker.Task {
	return func(ctx context.Context) error {
		r, err := engine.Compute(m)
		if err != nil {
			return fmt.Errorf("mapping %s: %w", m, err)
		}

		if o.opts.Verbose {
			log.WithResult(r).Info("Mapping evaluated")
		} else {
			log.WithMapping(m).Debugw("Mapping evaluated", "smap", r.Smap)
		}
		return agg.Store(r)
	}
}
