package tests

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/postgres"
)

// DBClient returns a postgresql client for integration tests. The target
// instance defaults to a local postgres and can be overridden through
// LUCINA_TEST_PG_HOST / LUCINA_TEST_PG_PORT.
func DBClient(t *testing.T) *sqlx.DB {
	EnableDebugLogs(t)

	host := os.Getenv("LUCINA_TEST_PG_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("LUCINA_TEST_PG_PORT")
	if port == "" {
		port = "5432"
	}

	credentials := postgres.Credentials{
		URL:      host,
		Port:     port,
		DbName:   "postgres",
		User:     "postgres",
		Password: "postgres",
	}
	dbClient, err := postgres.DbConnection(credentials)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	return dbClient
}

// DBExec executes a raw statement, optionally failing the test immediately on error
func DBExec(dbClient *sqlx.DB, query string, t *testing.T, failNow bool) {
	_, err := dbClient.Exec(query)
	if err != nil {
		t.Error(err)
		if failNow {
			t.FailNow()
		}
	}
}
