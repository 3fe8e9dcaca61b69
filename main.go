package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/app"
	"github.com/lucinametrics/lucina-service-api/v5/internal/router"
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/server"
)

// Version and BuildDate are injected at build time through ldflags
var (
	Version   string
	BuildDate string
)

// @title Lucina Service-API
// @version 1.0
// @description Lucina Service-API Swagger
// @termsOfService http://swagger.io/terms/

// @contact.name Lucina Metrics
// @contact.url https://lucinametrics.io/
// @contact.email contact@lucinametrics.io

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	app.InitConfiguration()
	zapConfig := app.InitLogger(viper.GetBool("LOGGER_PRODUCTION"))

	if Version != "" {
		supervisor.Version = Version
	}

	zap.L().Info("Starting Service-API", zap.String("version", Version), zap.String("build_date", BuildDate))
	app.Init()
	defer app.Stop()

	apiEnableSecurity := viper.GetBool("API_ENABLE_SECURITY")
	apiEnableGatewayMode := viper.GetBool("API_ENABLE_GATEWAY_MODE")
	if !apiEnableSecurity {
		zap.L().Warn("API security is disabled, set API_ENABLE_SECURITY=true in production")
	}
	if apiEnableGatewayMode {
		zap.L().Info("API gateway mode enabled, requests are trusted to be pre-authenticated by the fronting gateway")
	}

	chiRouter := router.NewChiRouter(apiEnableSecurity, viper.GetBool("API_ENABLE_CORS"), apiEnableGatewayMode, zapConfig.Level)

	serverEnableTLS := viper.GetBool("SERVER_ENABLE_TLS")
	var srv *http.Server
	if serverEnableTLS {
		srv = server.NewSecuredServer(viper.GetInt("SERVER_PORT"), chiRouter)
	} else {
		srv = server.NewUnsecuredServer(viper.GetInt("SERVER_PORT"), chiRouter)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		var err error
		if serverEnableTLS {
			err = srv.ListenAndServeTLS(viper.GetString("SERVER_TLS_FILE_CRT"), viper.GetString("SERVER_TLS_FILE_KEY"))
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server listen", zap.Error(err))
		}
	}()
	zap.L().Info("Server started", zap.String("addr", srv.Addr))

	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Fatal("Server shutdown failed", zap.Error(err))
	}
	zap.L().Info("Server shutdown")
}
