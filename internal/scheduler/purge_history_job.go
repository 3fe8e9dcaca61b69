package scheduler

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/history"
)

// PurgeHistoryJob represent a scheduler job instance which purges the status history
// records older than a retention period, in postgresql and optionally in elasticsearch
type PurgeHistoryJob struct {
	MaxAge             string `json:"maxAge"`
	PurgeElastic       bool   `json:"purgeElastic,omitempty"`
	ElasticIndexPrefix string `json:"elasticIndexPrefix,omitempty"`
	ScheduleID         int64  `json:"-"`
}

// IsValid checks if an internal schedule job definition is valid and has no missing mandatory fields
func (job PurgeHistoryJob) IsValid() (bool, error) {
	if job.MaxAge == "" {
		return false, errors.New("missing MaxAge")
	}
	maxAge, err := parseDuration(job.MaxAge)
	if err != nil {
		return false, fmt.Errorf("invalid MaxAge: %w", err)
	}
	if maxAge <= 0 {
		return false, errors.New("MaxAge must be strictly positive")
	}
	if job.PurgeElastic && job.ElasticIndexPrefix == "" {
		return false, errors.New("missing ElasticIndexPrefix")
	}
	return true, nil
}

// Run contains all the business logic of the job
func (job PurgeHistoryJob) Run() {
	if S().ExistingRunningJob(job.ScheduleID) {
		zap.L().Info("Skipping purge history job because last execution is still running", zap.Int64("scheduleID", job.ScheduleID))
		return
	}
	S().AddRunningJob(job.ScheduleID)

	zap.L().Info("Purge history job started", zap.Int64("scheduleID", job.ScheduleID), zap.String("maxAge", job.MaxAge))

	maxAge, _ := parseDuration(job.MaxAge)

	deleted, err := history.R().PurgeOlderThan(maxAge)
	if err != nil {
		zap.L().Error("Purge status history", zap.Error(err))
	} else {
		zap.L().Info("Status history purged", zap.Int64("deleted", deleted))
	}

	if job.PurgeElastic {
		exporter := history.NewElasticExporter(job.ElasticIndexPrefix)
		exporter.PurgeOlderThan(maxAge)
	}

	zap.L().Info("Purge history job ended", zap.Int64("scheduleID", job.ScheduleID))

	S().RemoveRunningJob(job.ScheduleID)
}
