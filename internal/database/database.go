// Package database provides SQL connection management for database-backed datasets.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver

	"github.com/dbsmedya/gomapping/internal/config"
)

// Manager owns the connection to the dataset source.
type Manager struct {
	Source *sql.DB
	driver string
	config *config.InputConfig

	// open is swapped in tests to inject sqlmock connections.
	open func(driver, dsn string) (*sql.DB, error)
	// backoff is the delay before the first retry.
	backoff time.Duration
}

// NewManager creates a new database manager from the input configuration.
func NewManager(cfg *config.InputConfig) (*Manager, error) {
	if !cfg.IsSQL() {
		return nil, fmt.Errorf("input source %q is not a database", cfg.Source)
	}
	return &Manager{
		driver:  DriverName(cfg.Source),
		config:  cfg,
		open:    sql.Open,
		backoff: time.Second,
	}, nil
}

// DriverName maps an input source to its database/sql driver name.
func DriverName(source string) string {
	if source == config.SourcePostgres {
		return "postgres"
	}
	return "mysql"
}

// Connect establishes the source connection.
func (m *Manager) Connect(ctx context.Context) error {
	db, err := m.connectWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to %s source: %w", m.config.Source, err)
	}
	m.Source = db
	return nil
}

// connectWithRetry attempts to connect with exponential backoff.
func (m *Manager) connectWithRetry(ctx context.Context) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := m.backoff

	for i := 0; i < maxRetries; i++ {
		db, err = m.connect()
		if err == nil {
			// Verify connection
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// connect creates a database connection.
func (m *Manager) connect() (*sql.DB, error) {
	db, err := m.open(m.driver, BuildDSN(m.config))
	if err != nil {
		return nil, err
	}

	dbCfg := m.config.Database
	if dbCfg.MaxConnections > 0 {
		db.SetMaxOpenConns(dbCfg.MaxConnections)
	}
	if dbCfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(dbCfg.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs the driver DSN for the configured source.
func BuildDSN(cfg *config.InputConfig) string {
	if cfg.Source == config.SourcePostgres {
		return buildPostgresDSN(cfg)
	}
	return buildMySQLDSN(cfg)
}

func port(cfg *config.InputConfig) int {
	if cfg.Database.Port > 0 {
		return cfg.Database.Port
	}
	return cfg.DefaultPort()
}

// buildMySQLDSN formats user:password@tcp(host:port)/database?params.
func buildMySQLDSN(cfg *config.InputConfig) string {
	db := cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		db.User,
		db.Password,
		db.Host,
		port(cfg),
		db.Database,
	)

	params := "?parseTime=true"
	switch db.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// buildPostgresDSN formats a postgres:// URL accepted by lib/pq.
func buildPostgresDSN(cfg *config.InputConfig) string {
	db := cfg.Database
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.User, db.Password),
		Host:   fmt.Sprintf("%s:%d", db.Host, port(cfg)),
		Path:   "/" + strings.TrimPrefix(db.Database, "/"),
	}

	sslmode := db.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	q := url.Values{}
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()

	return u.String()
}

// Close closes the source connection.
func (m *Manager) Close() error {
	if m.Source == nil {
		return nil
	}
	if err := m.Source.Close(); err != nil {
		return fmt.Errorf("source close: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.Source == nil {
		return fmt.Errorf("source not connected")
	}
	if err := m.Source.PingContext(ctx); err != nil {
		return fmt.Errorf("source ping failed: %w", err)
	}
	return nil
}
