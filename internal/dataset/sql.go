package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/gomapping/internal/sqlutil"
	"github.com/dbsmedya/gomapping/internal/types"
)

// SQLLoader reads records from a query result. The first result column
// is the record identifier and is dropped.
type SQLLoader struct {
	db    *sql.DB
	query string
}

// NewSQLLoader creates a loader that runs query on db.
func NewSQLLoader(db *sql.DB, query string) *SQLLoader {
	return &SQLLoader{db: db, query: query}
}

// TableQuery builds a full-table select for a configured table name.
func TableQuery(dialect sqlutil.Dialect, table string) (string, error) {
	quoted, err := dialect.QuoteQualifiedSafe(table)
	if err != nil {
		return "", err
	}
	return "SELECT * FROM " + quoted, nil
}

// Load implements Loader.
func (l *SQLLoader) Load(ctx context.Context) (*Dataset, error) {
	rows, err := l.db.QueryContext(ctx, l.query)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if len(columns) < 2 {
		return nil, ErrNoVariables
	}

	ds, err := New(columns[1:])
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	record := make([]string, len(columns)-1)

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load interrupted: %w", err)
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", ds.Len()+1, err)
		}
		for i := range record {
			record[i] = types.ToString(values[i+1])
		}
		if err := ds.Append(record); err != nil {
			return nil, err
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return ds, nil
}
