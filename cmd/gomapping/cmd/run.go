package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gomapping/internal/config"
	"github.com/dbsmedya/gomapping/internal/fileio"
	"github.com/dbsmedya/gomapping/internal/logger"
	"github.com/dbsmedya/gomapping/internal/mapper"
	"github.com/dbsmedya/gomapping/internal/report"
	"github.com/dbsmedya/gomapping/internal/verifier"
	"github.com/dbsmedya/gomapping/internal/volume"
)

var (
	runMaxBinom     int
	runWorkers      int
	runSeed         uint64
	runVolumeMethod string
	runVolume       float64
	runSkipVerify   bool
)

var runCmd = &cobra.Command{
	Use:   "run [datafile] [output]",
	Short: "Compute mapping entropies and write the result table",
	Long: `Run clusters the dataset into microstates, estimates its configurational
volume, then for every level N = 1..n evaluates up to max_binom distinct
mappings of N variables. Levels with at most max_binom mappings are
enumerated exhaustively; larger ones are sampled uniformly at random.

The result table has one row per mapping with the columns
N, mapping, trans_mapping, hs, hk, smap, smap_inf.
Output paths ending in .gz or .zst are compressed. The written table is
read back and checked (verification.method: count, sha256 or skip).

Example:
  gomapping run data.csv results.csv --max-binom 500 --seed 42
  gomapping run --config gomapping.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVarP(&runMaxBinom, "max-binom", "m", 0,
		"Override max mappings evaluated per level")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0,
		"Override number of evaluation workers (0 = all CPUs)")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0,
		"Override sampler seed (0 = time-based)")
	runCmd.Flags().StringVar(&runVolumeMethod, "volume-method", "",
		"Override volume estimator (geometric, max, fixed)")
	runCmd.Flags().Float64Var(&runVolume, "volume", 0,
		"Fixed configurational volume (implies --volume-method fixed)")
	runCmd.Flags().BoolVar(&runSkipVerify, "skip-verify", false,
		"Skip reading back the written result table")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	o := config.Overrides{
		MaxBinom:     runMaxBinom,
		MaxBinomSet:  cmd.Flags().Changed("max-binom"),
		Workers:      runWorkers,
		Seed:         runSeed,
		VolumeMethod: runVolumeMethod,
		Volume:       runVolume,
		SkipVerify:   runSkipVerify,
	}
	if len(args) > 0 {
		o.Datafile = args[0]
	}
	if len(args) > 1 {
		o.Output = args[1]
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := fileio.CheckWritable(cfg.Output.Path); err != nil {
		return fmt.Errorf("output path not writable: %w", err)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := loadDataset(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	est, err := volume.New(cfg.Volume.Method, cfg.Volume.Value)
	if err != nil {
		return err
	}

	orch, err := mapper.NewOrchestrator(mapper.Options{
		MaxBinom: cfg.Sampling.MaxBinom,
		Workers:  cfg.Sampling.Workers,
		Seed:     cfg.Sampling.Seed,
		Verbose:  cfg.Verbose,
	}, est)
	if err != nil {
		return err
	}
	orch.SetLogger(log)

	res, err := orch.Run(ctx, ds)
	if err != nil {
		log.Errorw("Run failed", "error", err)
		return err
	}

	delim := config.DelimiterRune(cfg.Output.Delimiter)
	if err := report.WriteFile(cfg.Output.Path, res.Results, delim); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	log.Infow("Results written", "path", cfg.Output.Path, "rows", len(res.Results))

	method := verifier.VerificationMethod(cfg.Verification.Method)
	if cfg.Verification.SkipVerification {
		method = verifier.MethodSkip
	}
	ver, err := verifier.NewVerifier(method, delim, log)
	if err != nil {
		return err
	}
	if _, err := ver.Verify(ctx, cfg.Output.Path, res.Results); err != nil {
		return err
	}

	report.PrintSummary(cmd.OutOrStdout(), res, cfg.Output.Path, cfg.Output.Top)
	return nil
}
