package scheduler

import (
	"encoding/json"
	"errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Supported job types
const (
	JobTypeHealthCheck  = "healthcheck"
	JobTypePurgeHistory = "purgehistory"
)

// InternalJob embed the external "standard" cron job with its own validation
type InternalJob interface {
	cron.Job
	IsValid() (bool, error)
}

// InternalSchedule binds a job definition to a cron expression
type InternalSchedule struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	CronExpr string      `json:"cronexpr" example:"0 */15 * * *"`
	JobType  string      `json:"jobtype" enums:"healthcheck,purgehistory"`
	Job      InternalJob `json:"job"`
	Enabled  bool        `json:"enabled"`
}

// IsValid checks if a schedule definition is valid and has no missing mandatory fields.
// The cron expression must parse and the embedded job must validate itself.
func (schedule *InternalSchedule) IsValid() (bool, error) {
	if schedule.Name == "" {
		return false, errors.New("missing Name")
	}
	if schedule.CronExpr == "" {
		return false, errors.New("missing CronExpr")
	}
	if _, err := cronParser.Parse(schedule.CronExpr); err != nil {
		return false, errors.New("invalid CronExpr: " + err.Error())
	}
	if schedule.JobType == "" {
		return false, errors.New("missing JobType")
	}
	if schedule.JobType != JobTypeHealthCheck && schedule.JobType != JobTypePurgeHistory {
		return false, errors.New("invalid JobType")
	}
	if schedule.Job == nil {
		return false, errors.New("missing Job")
	}
	if ok, err := schedule.Job.IsValid(); !ok {
		return false, errors.New("job is invalid: " + err.Error())
	}
	return true, nil
}

// UnmarshalJSON unmarshals a json object as a InternalSchedule.
// The job payload is decoded against the concrete type named by JobType.
func (schedule *InternalSchedule) UnmarshalJSON(data []byte) error {
	type Alias InternalSchedule
	aux := &struct {
		Job *json.RawMessage `json:"job"`
		*Alias
	}{
		Alias: (*Alias)(schedule),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Job == nil {
		return errors.New("missing Job")
	}
	job, err := UnmarshalInternalJob(aux.JobType, *aux.Job, aux.ID)
	if err != nil {
		return err
	}
	schedule.Job = job
	return nil
}

// UnmarshalInternalJob decodes a raw job payload into the concrete job type
func UnmarshalInternalJob(jobType string, raw json.RawMessage, scheduleID int64) (InternalJob, error) {
	switch jobType {
	case JobTypeHealthCheck:
		var job HealthCheckJob
		if err := json.Unmarshal(raw, &job); err != nil {
			return nil, err
		}
		job.ScheduleID = scheduleID
		return job, nil

	case JobTypePurgeHistory:
		var job PurgeHistoryJob
		if err := json.Unmarshal(raw, &job); err != nil {
			return nil, err
		}
		job.ScheduleID = scheduleID
		return job, nil

	default:
		zap.L().Error("unknown internal job type", zap.String("type", jobType))
		return nil, errors.New("unknown internal job type: " + jobType)
	}
}
