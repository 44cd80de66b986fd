package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
// An empty path yields the defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		cfg := DefaultConfig()
		if err := substituteEnvVars(cfg); err != nil {
			return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already set are left untouched and a missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) error {
	cfg.Input.Datafile = expandEnvVar(cfg.Input.Datafile)
	cfg.Input.Table = expandEnvVar(cfg.Input.Table)

	cfg.Input.Database.Host = expandEnvVar(cfg.Input.Database.Host)
	cfg.Input.Database.User = expandEnvVar(cfg.Input.Database.User)
	cfg.Input.Database.Password = expandEnvVar(cfg.Input.Database.Password)
	cfg.Input.Database.Database = expandEnvVar(cfg.Input.Database.Database)

	cfg.Output.Path = expandEnvVar(cfg.Output.Path)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// Overrides holds command-line values that take precedence over the file.
// Zero values mean "not set".
type Overrides struct {
	Datafile     string
	Output       string
	LogLevel     string
	LogFormat    string
	MaxBinom     int
	MaxBinomSet  bool // flag given explicitly, even as 0
	Workers      int
	Seed         uint64
	VolumeMethod string
	Volume       float64
	Verbose      bool
	SkipVerify   bool
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied. An explicitly set MaxBinom is
// always applied so that zero or negative flag values reach validation.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Datafile != "" {
		c.Input.Datafile = o.Datafile
		c.Input.Source = SourceFile
	}
	if o.Output != "" {
		c.Output.Path = o.Output
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.MaxBinomSet || o.MaxBinom != 0 {
		c.Sampling.MaxBinom = o.MaxBinom
	}
	if o.Workers > 0 {
		c.Sampling.Workers = o.Workers
	}
	if o.Seed > 0 {
		c.Sampling.Seed = o.Seed
	}
	if o.VolumeMethod != "" {
		c.Volume.Method = o.VolumeMethod
	}
	if o.Volume > 0 {
		c.Volume.Value = o.Volume
		if o.VolumeMethod == "" {
			c.Volume.Method = VolumeFixed
		}
	}
	if o.Verbose {
		c.Verbose = true
	}
	if o.SkipVerify {
		c.Verification.SkipVerification = true
	}
}
