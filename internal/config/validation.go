package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
// It must pass before any dataset is read.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.ValidateInput()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateVerification()...)
	errors = append(errors, c.validateSampling()...)
	errors = append(errors, c.validateVolume()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateInspect checks everything except the output section. Commands
// that never write a result table use it instead of Validate.
func (c *Config) ValidateInspect() error {
	var errors ValidationErrors

	errors = append(errors, c.ValidateInput()...)
	errors = append(errors, c.validateSampling()...)
	errors = append(errors, c.validateVolume()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateInput checks only the input section.
func (c *Config) ValidateInput() ValidationErrors {
	var errors ValidationErrors

	switch c.Input.Source {
	case SourceFile, "":
		if c.Input.Datafile == "" {
			errors = append(errors, ValidationError{
				Field:   "input.datafile",
				Message: "datafile is required",
			})
		}
	case SourceMySQL, SourcePostgres:
		if c.Input.Table == "" && c.Input.Query == "" {
			errors = append(errors, ValidationError{
				Field:   "input.table",
				Message: "table or query is required for SQL sources",
			})
		}
		errors = append(errors, c.validateDatabase("input.database", &c.Input.Database)...)
	default:
		errors = append(errors, ValidationError{
			Field:   "input.source",
			Message: "source must be 'file', 'mysql', or 'postgres'",
		})
	}

	if len([]rune(c.Input.Delimiter)) > 1 && c.Input.Delimiter != `\t` && c.Input.Delimiter != "tab" {
		errors = append(errors, ValidationError{
			Field:   "input.delimiter",
			Message: "delimiter must be a single character",
		})
	}

	return errors
}

func (c *Config) validateDatabase(prefix string, db *DatabaseConfig) ValidationErrors {
	var errors ValidationErrors

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".host",
			Message: "host is required",
		})
	}

	if db.Port < 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true, "": true}
	if !validSSL[db.SSLMode] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".sslmode",
			Message: "sslmode must be 'disable', 'require', 'verify-ca', or 'verify-full'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	if c.Output.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "output.path",
			Message: "output path is required",
		})
	}

	if len([]rune(c.Output.Delimiter)) > 1 && c.Output.Delimiter != `\t` && c.Output.Delimiter != "tab" {
		errors = append(errors, ValidationError{
			Field:   "output.delimiter",
			Message: "delimiter must be a single character",
		})
	}

	if c.Output.Top < 0 {
		errors = append(errors, ValidationError{
			Field:   "output.top",
			Message: "top cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateVerification() ValidationErrors {
	var errors ValidationErrors

	validMethods := map[string]bool{"count": true, "sha256": true, "skip": true, "": true}
	if !validMethods[c.Verification.Method] {
		errors = append(errors, ValidationError{
			Field:   "verification.method",
			Message: "must be 'count', 'sha256', or 'skip'",
		})
	}

	return errors
}

func (c *Config) validateSampling() ValidationErrors {
	var errors ValidationErrors

	if c.Sampling.MaxBinom <= 0 {
		errors = append(errors, ValidationError{
			Field:   "sampling.max_binom",
			Message: "max_binom must be positive",
		})
	}

	if c.Sampling.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "sampling.workers",
			Message: "workers cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateVolume() ValidationErrors {
	var errors ValidationErrors

	switch c.Volume.Method {
	case VolumeGeometric, VolumeMax, "":
	case VolumeFixed:
		if c.Volume.Value <= 0 {
			errors = append(errors, ValidationError{
				Field:   "volume.value",
				Message: "value must be positive when method is 'fixed'",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "volume.method",
			Message: "method must be 'geometric', 'max', or 'fixed'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
