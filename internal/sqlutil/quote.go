// Package sqlutil provides SQL identifier handling for database dataset sources.
package sqlutil

import (
	"regexp"
	"strings"
)

// Dialect selects identifier quoting rules.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// QuoteIdentifier quotes a single identifier (table or column name).
// MySQL uses backticks and Postgres double quotes; an embedded quote
// character is escaped by doubling it.
// Example: MySQL "my`table" -> "`my``table`"
// Example: Postgres `my"table` -> `"my""table"`
func (d Dialect) QuoteIdentifier(name string) string {
	q := d.quoteChar()
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// QuoteQualified quotes a possibly schema-qualified name such as
// "analytics.configs", quoting each dot-separated part.
func (d Dialect) QuoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func (d Dialect) quoteChar() string {
	if d == Postgres {
		return `"`
	}
	return "`"
}

// validIdentifierRegex matches an optionally schema-qualified identifier
// built from alphanumerics and underscores.
var validIdentifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)?$`)

// IsValidIdentifier checks that a table name only contains alphanumerics,
// underscores and at most one schema separator.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteQualifiedSafe validates a table name taken from configuration and quotes it.
func (d Dialect) QuoteQualifiedSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return d.QuoteQualified(name), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
