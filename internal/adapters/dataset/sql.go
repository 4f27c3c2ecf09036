package dataset

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// driverName maps a configured driver onto its database/sql name.
func driverName(driver string) (string, error) {
	switch driver {
	case DriverSQLite, "sqlite3":
		return "sqlite", nil
	case DriverPostgres, "pgx", "pgsql":
		return "pgx", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}

// Open opens and pings a database.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, err := driverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrSource, driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrSource, driver, err)
	}
	return db, nil
}

// SQLSource reads records from a query selecting a single numeric column.
// Each row becomes a record holding that value under Field.
type SQLSource struct {
	DB    *sql.DB
	Query string
	Field string
}

// NewSQLSource returns a source reading query from db.
func NewSQLSource(db *sql.DB, query, field string) *SQLSource {
	if field == "" {
		field = DefaultField
	}
	return &SQLSource{DB: db, Query: query, Field: field}
}

// Name implements Source.
func (s *SQLSource) Name() string { return "sql" }

// Load implements Source. NULL values are kept as nil and dropped by the store.
func (s *SQLSource) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrSource, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrSource, err)
		}
		rec := Record{s.Field: nil}
		if v.Valid {
			rec[s.Field] = v.Float64
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", ErrSource, err)
	}
	return records, nil
}
