package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gomapping/internal/config"
	"github.com/dbsmedya/gomapping/internal/fileio"
	"github.com/dbsmedya/gomapping/internal/logger"
	"github.com/dbsmedya/gomapping/internal/microstate"
	"github.com/dbsmedya/gomapping/internal/volume"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and dataset",
	Long: `Validate checks the configuration and that the dataset can be used
for a run, without evaluating any mapping.

Checks performed:
  - Configuration syntax and required fields
  - Dataset readable (file or database connectivity)
  - Dataset non-empty with at least one variable
  - Configurational volume positive
  - Output directory exists

Example:
  gomapping validate --config gomapping.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := GetConfigFile()

	cfg, err := loadConfig(config.Overrides{})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(out, "Config file: %s\n", displayConfigFile(configFile))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "❌ Configuration invalid\n%v\n", err)
		return fmt.Errorf("configuration validation failed")
	}
	fmt.Fprintf(out, "✅ Configuration valid\n\n")

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	fmt.Fprintf(out, "--- Dataset: %s ---\n", describeSource(&cfg.Input))
	ds, err := loadDataset(context.Background(), cfg, log)
	if err != nil {
		fmt.Fprintf(out, "❌ Load failed: %v\n", err)
		return fmt.Errorf("validation failed")
	}
	fmt.Fprintf(out, "Records: %d\n", ds.Len())
	fmt.Fprintf(out, "Variables: %d\n", ds.NumVariables())

	hasErrors := false

	table, err := microstate.Cluster(ds)
	if err != nil {
		fmt.Fprintf(out, "❌ Clustering failed: %v\n", err)
		hasErrors = true
	} else {
		fmt.Fprintf(out, "Microstates: %d\n", table.Len())
	}

	if est, err := volume.New(cfg.Volume.Method, cfg.Volume.Value); err != nil {
		fmt.Fprintf(out, "❌ Volume estimator: %v\n", err)
		hasErrors = true
	} else if ds.Len() > 0 {
		v, err := volume.Estimate(est, ds)
		if err != nil {
			fmt.Fprintf(out, "❌ Volume estimate: %v\n", err)
			hasErrors = true
		} else {
			fmt.Fprintf(out, "Volume (%s): %.6f\n", cfg.Volume.Method, v)
		}
	}

	if err := fileio.CheckWritable(cfg.Output.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(out, "❌ Output directory %s does not exist\n", filepath.Dir(cfg.Output.Path))
		} else {
			fmt.Fprintf(out, "❌ Output path not writable: %v\n", err)
		}
		hasErrors = true
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Validation Complete ===")
	fmt.Fprintln(out, "✅ Ready to run")
	return nil
}

func displayConfigFile(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
