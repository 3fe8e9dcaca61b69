package app

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/redis"
)

func initRedis() {
	if !viper.GetBool("REDIS_ENABLED") {
		zap.L().Info("Redis cache layer is disabled")
		return
	}

	address := viper.GetString("REDIS_ADDRESS")
	client, err := redis.NewClient(address, viper.GetString("REDIS_PASSWORD"), viper.GetInt("REDIS_DB"))
	if err != nil {
		zap.L().Error("Could not init redis, cache layer stays disabled",
			zap.String("address", address), zap.Error(err))
		return
	}
	redis.ReplaceGlobals(client)

	zap.L().Info("Redis connection initialized", zap.String("address", address))
}
