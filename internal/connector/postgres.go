package connector

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/postgres"
)

// PostgresDatabase is a Database connector implementation backed by a postgresql instance
type PostgresDatabase struct {
	credentials postgres.Credentials

	mu sync.RWMutex
	db *sqlx.DB
}

// NewPostgresDatabase returns a new instance of PostgresDatabase, without opening any connection
func NewPostgresDatabase(credentials postgres.Credentials) *PostgresDatabase {
	return &PostgresDatabase{
		credentials: credentials,
	}
}

// Connect opens the underlying connection pool and verifies it with a ping
func (d *PostgresDatabase) Connect(ctx context.Context) error {
	db, err := sqlx.Open("postgres", d.credentials.ConnectionString())
	if err != nil {
		return fmt.Errorf("postgres open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("postgres ping: %w", err)
	}

	d.mu.Lock()
	d.db = db
	d.mu.Unlock()

	zap.L().Debug("Postgres connector connected",
		zap.String("host", d.credentials.URL), zap.String("dbname", d.credentials.DbName))
	return nil
}

// Close closes the underlying connection pool
func (d *PostgresDatabase) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Ping verifies the backend link
func (d *PostgresDatabase) Ping(ctx context.Context) error {
	d.mu.RLock()
	db := d.db
	d.mu.RUnlock()

	if db == nil {
		return ErrNotConnected
	}
	return db.PingContext(ctx)
}

// Query executes a read query and returns every row as a generic map
func (d *PostgresDatabase) Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	d.mu.RLock()
	db := d.db
	d.mu.RUnlock()

	if db == nil {
		return nil, ErrNotConnected
	}

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Execute executes a write query and returns the number of affected rows
func (d *PostgresDatabase) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	d.mu.RLock()
	db := d.db
	d.mu.RUnlock()

	if db == nil {
		return 0, ErrNotConnected
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
