package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/metrics"
	"github.com/lucinametrics/lucina-service-api/v5/internal/notifier"
	"github.com/lucinametrics/lucina-service-api/v5/internal/notifier/notification"
	"github.com/lucinametrics/lucina-service-api/v5/internal/rule"
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
)

const (
	defaultHealthCheckTimeout = 10 * time.Second
	defaultAlertCooldown      = 1 * time.Hour
)

// HealthCheckJob represent a scheduler job instance which pings every supervised service,
// updates the health metrics and evaluates the alerting rules on each snapshot
type HealthCheckJob struct {
	Timeout       string `json:"timeout,omitempty"`
	AlertCooldown string `json:"alertCooldown,omitempty"`
	ScheduleID    int64  `json:"-"`
}

// IsValid checks if an internal schedule job definition is valid and has no missing mandatory fields
func (job HealthCheckJob) IsValid() (bool, error) {
	if job.Timeout != "" {
		if _, err := parseDuration(job.Timeout); err != nil {
			return false, fmt.Errorf("invalid Timeout: %w", err)
		}
	}
	if job.AlertCooldown != "" {
		if _, err := parseDuration(job.AlertCooldown); err != nil {
			return false, fmt.Errorf("invalid AlertCooldown: %w", err)
		}
	}
	return true, nil
}

// Run contains all the business logic of the job
func (job HealthCheckJob) Run() {
	if S().ExistingRunningJob(job.ScheduleID) {
		zap.L().Info("Skipping healthcheck job because last execution is still running", zap.Int64("scheduleID", job.ScheduleID))
		return
	}
	S().AddRunningJob(job.ScheduleID)

	zap.L().Debug("Healthcheck job started", zap.Int64("scheduleID", job.ScheduleID))

	timeout := defaultHealthCheckTimeout
	if job.Timeout != "" {
		timeout, _ = parseDuration(job.Timeout)
	}
	cooldown := defaultAlertCooldown
	if job.AlertCooldown != "" {
		cooldown, _ = parseDuration(job.AlertCooldown)
	}

	rules, err := rule.R().GetAllEnabled()
	if err != nil {
		zap.L().Error("Cannot load alerting rules", zap.Error(err))
		rules = nil
	}

	for _, service := range supervisor.M().GetAll() {
		snapshot := service.GetStatus()

		healthy := snapshot.Status == supervisor.Running
		if healthy {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			if err := service.HealthCheck(ctx); err != nil {
				zap.L().Warn("Service healthcheck failed",
					zap.String("service", snapshot.Name), zap.Error(err))
				healthy = false
			}
			cancel()
		}
		metrics.SetServiceHealth(snapshot.Name, healthy)

		env := rule.Environment(snapshot, healthy)
		for _, matched := range rule.EvaluateAll(rules, env) {
			zap.L().Info("Alerting rule matched",
				zap.String("rule", matched.Name), zap.String("service", snapshot.Name))
			if c := notifier.C(); c != nil {
				cacheKey := fmt.Sprintf("rule:%d:service:%s", matched.ID, snapshot.Name)
				c.BroadcastThrottled(cacheKey, cooldown,
					notification.NewAlertNotification(matched.ID, matched.Name, snapshot.Name, matched.Description, env))
			}
		}
	}

	zap.L().Debug("Healthcheck job ended", zap.Int64("scheduleID", job.ScheduleID))

	S().RemoveRunningJob(job.ScheduleID)
}
