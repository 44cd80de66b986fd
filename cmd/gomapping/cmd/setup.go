package cmd

import (
	"context"
	"fmt"

	"github.com/dbsmedya/gomapping/internal/config"
	"github.com/dbsmedya/gomapping/internal/database"
	"github.com/dbsmedya/gomapping/internal/dataset"
	"github.com/dbsmedya/gomapping/internal/logger"
	"github.com/dbsmedya/gomapping/internal/sqlutil"
)

// loadConfig reads the env file and configuration, then applies the
// persistent flags and the command's own overrides.
func loadConfig(o config.Overrides) (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	global := GetCLIOverrides()
	o.LogLevel = global.LogLevel
	o.LogFormat = global.LogFormat
	o.Verbose = global.Verbose
	cfg.ApplyOverrides(o)

	return cfg, nil
}

// describeSource names the dataset source for logs and headings.
func describeSource(in *config.InputConfig) string {
	if !in.IsSQL() {
		return in.Datafile
	}
	target := in.Table
	if in.Query != "" {
		target = "query"
	}
	return fmt.Sprintf("%s://%s/%s (%s)", in.Source, in.Database.Host, in.Database.Database, target)
}

// loadDataset reads the configured dataset from a file or database.
func loadDataset(ctx context.Context, cfg *config.Config, log *logger.Logger) (*dataset.Dataset, error) {
	in := &cfg.Input
	log.Infow("Loading dataset", "source", describeSource(in))

	var (
		ds  *dataset.Dataset
		err error
	)
	if in.IsSQL() {
		ds, err = loadSQL(ctx, in)
	} else {
		ds, err = dataset.NewCSVLoader(in.Datafile, config.DelimiterRune(in.Delimiter)).Load(ctx)
	}
	if err != nil {
		return nil, err
	}

	log.Infow("Dataset loaded",
		"records", ds.Len(),
		"variables", ds.NumVariables(),
	)
	return ds, nil
}

func loadSQL(ctx context.Context, in *config.InputConfig) (*dataset.Dataset, error) {
	mgr, err := database.NewManager(in)
	if err != nil {
		return nil, err
	}
	if err := mgr.Connect(ctx); err != nil {
		return nil, err
	}
	defer mgr.Close()

	query := in.Query
	if query == "" {
		dialect := sqlutil.Dialect(database.DriverName(in.Source))
		query, err = dataset.TableQuery(dialect, in.Table)
		if err != nil {
			return nil, err
		}
	}

	return dataset.NewSQLLoader(mgr.Source, query).Load(ctx)
}
