package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gomapping/internal/config"
	"github.com/dbsmedya/gomapping/internal/logger"
	"github.com/dbsmedya/gomapping/internal/mapper"
	"github.com/dbsmedya/gomapping/internal/report"
	"github.com/dbsmedya/gomapping/internal/volume"
)

var (
	inspectMaxBinom     int
	inspectVolumeMethod string
	inspectVolume       float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [datafile]",
	Short: "Show dataset statistics and the sampling plan",
	Long: `Inspect loads the dataset and reports its size, per-variable distinct
values, microstate count, full-resolution entropy and configurational
volume, followed by C(n, N) for every level and how many mappings a run
with the current max_binom would evaluate. No mapping is evaluated.

Example:
  gomapping inspect data.csv --max-binom 1000`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectMaxBinom, "max-binom", "m", 0,
		"Override max mappings evaluated per level")
	inspectCmd.Flags().StringVar(&inspectVolumeMethod, "volume-method", "",
		"Override volume estimator (geometric, max, fixed)")
	inspectCmd.Flags().Float64Var(&inspectVolume, "volume", 0,
		"Fixed configurational volume (implies --volume-method fixed)")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	o := config.Overrides{
		MaxBinom:     inspectMaxBinom,
		MaxBinomSet:  cmd.Flags().Changed("max-binom"),
		VolumeMethod: inspectVolumeMethod,
		Volume:       inspectVolume,
	}
	if len(args) > 0 {
		o.Datafile = args[0]
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	if err := cfg.ValidateInspect(); err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

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

	in, err := mapper.Inspect(ds, est, cfg.Sampling.MaxBinom)
	if err != nil {
		return err
	}

	report.PrintInspection(cmd.OutOrStdout(), in, describeSource(&cfg.Input), cfg.Sampling.MaxBinom)
	return nil
}
