package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/elasticsearch"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/postgres"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/redis"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

const healthCheckTimeout = 5 * time.Second

var apiStartTime = time.Now()

// IsAlive godoc
//
//	@Id				IsAlive
//
//	@Summary		Check if alive
//	@Description	Allows to check if the API process answers, without touching any dependency
//	@Tags			System
//	@Success		200	"Status OK"
//	@Router			/isalive [get]
func IsAlive(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, r, map[string]interface{}{"alive": true})
}

// HealthReport aggregates the reachability of the API backend dependencies
type HealthReport struct {
	Status       string            `json:"status" enums:"ok,degraded"`
	Dependencies map[string]string `json:"dependencies"`
}

// APIStatus describes the running API instance and its supervised services
type APIStatus struct {
	Name     string                `json:"name"`
	Version  string                `json:"version"`
	Uptime   float64               `json:"uptime"`
	Services []supervisor.Snapshot `json:"services"`
}

// GetHealth godoc
//
//	@Id				GetHealth
//
//	@Summary		Health of the API
//	@Description	Pings every backend dependency of the API (postgresql, and redis / elasticsearch when configured).
//	@Description	Returns 503 as soon as one dependency is unreachable.
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	handler.HealthReport	"every dependency is reachable"
//	@Failure		503	{object}	handler.HealthReport	"at least one dependency is unreachable"
//	@Router			/health [get]
func GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	report := HealthReport{
		Status:       "ok",
		Dependencies: make(map[string]string),
	}

	if db := postgres.DB(); db != nil {
		report.Dependencies["postgresql"] = "ok"
		if err := db.PingContext(ctx); err != nil {
			zap.L().Warn("Postgresql health check failed", zap.Error(err))
			report.Dependencies["postgresql"] = "unavailable"
			report.Status = "degraded"
		}
	} else {
		report.Dependencies["postgresql"] = "unavailable"
		report.Status = "degraded"
	}

	if client := redis.C(); client != nil {
		report.Dependencies["redis"] = "ok"
		if err := client.Ping(ctx).Err(); err != nil {
			zap.L().Warn("Redis health check failed", zap.Error(err))
			report.Dependencies["redis"] = "unavailable"
			report.Status = "degraded"
		}
	}

	if client := elasticsearch.C(); client != nil {
		report.Dependencies["elasticsearch"] = "ok"
		success, err := client.Ping().IsSuccess(ctx)
		if err != nil || !success {
			zap.L().Warn("Elasticsearch health check failed", zap.Error(err))
			report.Dependencies["elasticsearch"] = "unavailable"
			report.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if report.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(report); err != nil {
		zap.L().Error("Health report encode", zap.Error(err))
	}
}

// GetAPIStatus godoc
//
//	@Id				GetAPIStatus
//
//	@Summary		Status of the API
//	@Description	Gets the instance name, the build version, the uptime of the API
//	@Description	and the current status snapshot of every supervised service.
//	@Tags			System
//	@Produce		json
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	handler.APIStatus	"status of the instance"
//	@Router			/status [get]
func GetAPIStatus(w http.ResponseWriter, r *http.Request) {
	status := APIStatus{
		Name:     viper.GetString("INSTANCE_NAME"),
		Version:  supervisor.Version,
		Uptime:   time.Since(apiStartTime).Seconds(),
		Services: supervisor.M().GetAllStatus(),
	}

	httputil.JSON(w, r, status)
}
