package postgres

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var (
	_globalMu sync.RWMutex
	_global   *sqlx.DB
)

// DB is used to access the global postgresql connection singleton
func DB() *sqlx.DB {
	_globalMu.RLock()
	defer _globalMu.RUnlock()
	return _global
}

// ReplaceGlobals affect a new connection to the global postgresql connection singleton
func ReplaceGlobals(db *sqlx.DB) func() {
	_globalMu.Lock()
	defer _globalMu.Unlock()

	prev := _global
	_global = db
	return func() { ReplaceGlobals(prev) }
}

// Credentials holds every required piece of information to open a postgresql connection
type Credentials struct {
	URL      string
	Port     string
	DbName   string
	User     string
	Password string
}

// ConnectionString build a postgresql connection string from a Credentials
func (credentials Credentials) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		credentials.URL, credentials.Port, credentials.User, credentials.DbName, credentials.Password)
}

// DbConnection opens a new connection on a postgresql instance and verifies it with a ping
// The ping is retried a fixed number of times to absorb a database instance still warming up
func DbConnection(credentials Credentials) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", credentials.ConnectionString())
	if err != nil {
		return nil, err
	}

	retries := 10
	for i := 1; i <= retries; i++ {
		err = db.Ping()
		if err == nil {
			return db, nil
		}
		zap.L().Warn("Postgresql ping failed", zap.Int("attempt", i), zap.Int("retries", retries), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	db.Close()
	return nil, fmt.Errorf("postgresql connection could not be established: %w", err)
}
