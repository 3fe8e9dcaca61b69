package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed *.sql
var embedMigrations embed.FS

// Migrate applies every pending SQL migration embedded in the binary
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(zapGooseLogger{})

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

// zapGooseLogger routes goose output to the global zap logger.
// goose terminates migration lines with a newline, which zap does not need.
type zapGooseLogger struct{}

func (zapGooseLogger) Printf(format string, v ...interface{}) {
	zap.L().Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (zapGooseLogger) Fatalf(format string, v ...interface{}) {
	zap.L().Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
