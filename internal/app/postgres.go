package app

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/migrations"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/postgres"
)

// initPostgres opens the postgresql connection pool, installs it as the
// global client and applies the embedded migrations when enabled
func initPostgres() {
	credentials := postgres.Credentials{
		URL:      viper.GetString("POSTGRESQL_HOSTNAME"),
		Port:     viper.GetString("POSTGRESQL_PORT"),
		DbName:   viper.GetString("POSTGRESQL_DBNAME"),
		User:     viper.GetString("POSTGRESQL_USERNAME"),
		Password: viper.GetString("POSTGRESQL_PASSWORD"),
	}

	dbClient, err := postgres.DbConnection(credentials)
	if err != nil {
		zap.L().Fatal("Postgresql connection", zap.Error(err))
	}
	dbClient.SetMaxOpenConns(viper.GetInt("POSTGRESQL_CONN_POOL_MAX_OPEN"))
	dbClient.SetMaxIdleConns(viper.GetInt("POSTGRESQL_CONN_POOL_MAX_IDLE"))
	dbClient.SetConnMaxLifetime(viper.GetDuration("POSTGRESQL_CONN_MAX_LIFETIME"))
	postgres.ReplaceGlobals(dbClient)

	zap.L().Info("Postgresql connection initialized",
		zap.String("host", credentials.URL),
		zap.String("port", credentials.Port),
		zap.String("dbname", credentials.DbName),
		zap.String("user", credentials.User),
	)

	if !viper.GetBool("POSTGRESQL_MIGRATION_ON_STARTUP") {
		zap.L().Info("Database migration skipped by configuration")
		return
	}
	zap.L().Info("Applying database migrations")
	if err := migrations.Migrate(dbClient.DB); err != nil {
		zap.L().Fatal("Database migration failed", zap.Error(err))
	}
}
