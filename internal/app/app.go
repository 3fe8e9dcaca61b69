package app

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/docs"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/postgres"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/redis"
)

// Init initialize all the app configuration and components
func Init() {
	docs.SwaggerInfo.Host = viper.GetString("SWAGGER_HOST")
	docs.SwaggerInfo.BasePath = viper.GetString("SWAGGER_BASEPATH")

	initPostgres()
	initRedis()
	initElasticsearch()
	initRepositories()
	initServices()

	if viper.GetBool("AUTHENTICATION_CREATE_SUPERUSER") {
		zap.L().Info("Trying to create superuser if not exists")
		if err := createSuperUserIfNotExists(); err != nil {
			zap.L().Error("Error creating superuser", zap.Error(err))
		}
	}
}

// Stop clean everything up before stopping the app
func Stop() {
	stopServices()

	if client := redis.C(); client != nil {
		if err := client.Close(); err != nil {
			zap.L().Warn("Closing redis connection", zap.Error(err))
		}
	}
	if dbClient := postgres.DB(); dbClient != nil {
		if err := dbClient.Close(); err != nil {
			zap.L().Warn("Closing postgres connection", zap.Error(err))
		}
	}
}
