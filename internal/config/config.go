// Package config provides configuration structures and loading for GoMapping.
package config

// Input sources.
const (
	SourceFile     = "file"
	SourceMySQL    = "mysql"
	SourcePostgres = "postgres"
)

// Volume estimation methods.
const (
	VolumeGeometric = "geometric"
	VolumeMax       = "max"
	VolumeFixed     = "fixed"
)

// DefaultMaxBinom caps the number of mappings evaluated per coarse-graining level.
const DefaultMaxBinom = 1000000

// Config represents the complete application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Sampling SamplingConfig `yaml:"sampling" mapstructure:"sampling"`
	Volume   VolumeConfig   `yaml:"volume" mapstructure:"volume"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Verbose  bool           `yaml:"verbose" mapstructure:"verbose"` // per-mapping progress logging

	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
}

// InputConfig describes where the dataset is read from.
type InputConfig struct {
	Source    string         `yaml:"source" mapstructure:"source"`     // file, mysql, postgres
	Datafile  string         `yaml:"datafile" mapstructure:"datafile"` // CSV path (.gz and .zst accepted)
	Delimiter string         `yaml:"delimiter" mapstructure:"delimiter"`
	Table     string         `yaml:"table" mapstructure:"table"` // SQL sources: table to read
	Query     string         `yaml:"query" mapstructure:"query"` // SQL sources: explicit query, wins over table
	Database  DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// DatabaseConfig represents a SQL connection used as a dataset source.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"`         // mysql: disable, preferred, required
	SSLMode            string `yaml:"sslmode" mapstructure:"sslmode"` // postgres: disable, require, verify-full
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// OutputConfig describes the result table destination.
type OutputConfig struct {
	Path      string `yaml:"path" mapstructure:"path"` // CSV path (.gz and .zst compress)
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	Top       int    `yaml:"top" mapstructure:"top"` // rows shown in the console summary
}

// SamplingConfig controls mapping enumeration.
type SamplingConfig struct {
	MaxBinom int    `yaml:"max_binom" mapstructure:"max_binom"`
	Seed     uint64 `yaml:"seed" mapstructure:"seed"`       // 0 picks a time-based seed
	Workers  int    `yaml:"workers" mapstructure:"workers"` // 0 uses all CPUs
}

// VolumeConfig selects the configurational volume estimator.
type VolumeConfig struct {
	Method string  `yaml:"method" mapstructure:"method"` // geometric, max, fixed
	Value  float64 `yaml:"value" mapstructure:"value"`   // used by "fixed"
}

// VerificationConfig controls the read-back check of the written result table.
type VerificationConfig struct {
	Method           string `yaml:"method" mapstructure:"method"` // count, sha256, skip
	SkipVerification bool   `yaml:"skip_verification" mapstructure:"skip_verification"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Source:    SourceFile,
			Delimiter: ",",
			Database: DatabaseConfig{
				TLS:                "preferred",
				SSLMode:            "disable",
				MaxConnections:     4,
				MaxIdleConnections: 2,
			},
		},
		Output: OutputConfig{
			Delimiter: ",",
			Top:       10,
		},
		Sampling: SamplingConfig{
			MaxBinom: DefaultMaxBinom,
		},
		Volume: VolumeConfig{
			Method: VolumeGeometric,
		},
		Verification: VerificationConfig{
			Method: "count",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultPort returns the conventional port for the configured SQL source.
func (c *InputConfig) DefaultPort() int {
	switch c.Source {
	case SourcePostgres:
		return 5432
	case SourceMySQL:
		return 3306
	default:
		return 0
	}
}

// IsSQL reports whether the dataset is read from a database.
func (c *InputConfig) IsSQL() bool {
	return c.Source == SourceMySQL || c.Source == SourcePostgres
}

// DelimiterRune returns the configured delimiter as a rune, defaulting to ','.
func DelimiterRune(s string) rune {
	if s == "" {
		return ','
	}
	if s == `\t` || s == "tab" {
		return '\t'
	}
	return []rune(s)[0]
}
