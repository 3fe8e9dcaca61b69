package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/scheduler"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// StartScheduler godoc
//
//	@Id				StartScheduler
//
//	@Summary		Start the internal scheduler
//	@Description	Starts the internal cron scheduler. Already registered schedules begin firing.
//	@Tags			Scheduler
//	@Produce		json
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{string}	string				"status OK"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/scheduler/start [post]
func StartScheduler(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeScheduler, permissions.All, permissions.ActionUpdate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	zap.L().Info("Starting scheduler")
	scheduler.S().C.Start()

	httputil.OK(w, r)
}

// GetJobSchedules godoc
//
//	@Id				GetJobSchedules
//
//	@Summary		Get all job schedules
//	@Description	Gets every background job schedule, ordered by id
//	@Tags			Scheduler
//	@Produce		json
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{array}		scheduler.InternalSchedule	"list of schedules"
//	@Failure		500	{object}	httputil.APIError			"Internal Server Error"
//	@Router			/scheduler/jobs [get]
func GetJobSchedules(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeScheduler, permissions.All, permissions.ActionList)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	schedules, err := scheduler.R().GetAll()
	if err != nil {
		zap.L().Error("GetJobSchedules", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}

	schedulesSlice := make([]scheduler.InternalSchedule, 0, len(schedules))
	for _, schedule := range schedules {
		schedulesSlice = append(schedulesSlice, schedule)
	}

	sort.Slice(schedulesSlice, func(i, j int) bool {
		return schedulesSlice[i].ID < schedulesSlice[j].ID
	})

	httputil.JSON(w, r, schedulesSlice)
}

// GetJobSchedule godoc
//
//	@Id				GetJobSchedule
//
//	@Summary		Get a job schedule
//	@Description	Gets the background job schedule with the specified id
//	@Tags			Scheduler
//	@Produce		json
//	@Param			id	path	int	true	"schedule ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	scheduler.InternalSchedule	"schedule"
//	@Failure		400	{object}	httputil.APIError			"Bad Request"
//	@Failure		404	{object}	httputil.APIError			"Status Not Found"
//	@Failure		500	{object}	httputil.APIError			"Internal Server Error"
//	@Router			/scheduler/jobs/{id} [get]
func GetJobSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scheduleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		zap.L().Warn("Parse schedule id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingInteger, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeScheduler, strconv.FormatInt(scheduleID, 10), permissions.ActionGet)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	schedule, found, err := scheduler.R().Get(scheduleID)
	if err != nil {
		zap.L().Error("Cannot get schedule", zap.Int64("id", scheduleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Warn("Schedule not found", zap.Int64("id", scheduleID))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFound, err)
		return
	}

	httputil.JSON(w, r, schedule)
}

// ValidateJobSchedule godoc
//
//	@Id				ValidateJobSchedule
//
//	@Summary		Validate a new job schedule definition
//	@Description	Validates a new job schedule definition, including the parsing of its cron
//	@Description	expression, without persisting anything
//	@Tags			Scheduler
//	@Accept			json
//	@Produce		json
//	@Param			schedule	body	scheduler.InternalSchedule	true	"schedule (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	scheduler.InternalSchedule	"schedule"
//	@Failure		400	{object}	httputil.APIError			"Bad Request"
//	@Failure		403	{object}	httputil.APIError			"Forbidden"
//	@Failure		500	{object}	httputil.APIError			"Internal Server Error"
//	@Router			/scheduler/jobs/validate [post]
func ValidateJobSchedule(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermissionAtLeastOne([]permissions.Permission{
		permissions.New(permissions.TypeScheduler, permissions.All, permissions.ActionCreate),
		permissions.New(permissions.TypeScheduler, permissions.All, permissions.ActionUpdate),
	}) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var newSchedule scheduler.InternalSchedule
	if err := json.NewDecoder(r.Body).Decode(&newSchedule); err != nil {
		zap.L().Warn("Schedule json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}

	if ok, err := newSchedule.IsValid(); !ok {
		zap.L().Warn("Invalid schedule definition", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	httputil.JSON(w, r, newSchedule)
}

// PostJobSchedule godoc
//
//	@Id				PostJobSchedule
//
//	@Summary		Create a new job schedule
//	@Description	Adds a background job schedule and registers it on the running scheduler when enabled
//	@Tags			Scheduler
//	@Accept			json
//	@Produce		json
//	@Param			schedule	body	scheduler.InternalSchedule	true	"schedule (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	scheduler.InternalSchedule	"schedule"
//	@Failure		400	{object}	httputil.APIError			"Bad Request"
//	@Failure		500	{object}	httputil.APIError			"Internal Server Error"
//	@Router			/scheduler/jobs [post]
func PostJobSchedule(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeScheduler, permissions.All, permissions.ActionCreate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var newSchedule scheduler.InternalSchedule
	err := json.NewDecoder(r.Body).Decode(&newSchedule)
	if err != nil {
		zap.L().Warn("Schedule json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}

	if ok, err := newSchedule.IsValid(); !ok {
		zap.L().Warn("Invalid schedule definition", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	scheduleID, err := scheduler.R().Create(newSchedule)
	if err != nil {
		zap.L().Error("PostJobSchedule.Create", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBInsertFailed, err)
		return
	}
	newSchedule.ID = scheduleID

	if newSchedule.Enabled {
		err = scheduler.S().AddJobSchedule(newSchedule)
		if err != nil {
			zap.L().Error("Add schedule to scheduler", zap.Int64("id", scheduleID), zap.Error(err))
			// keep the repository consistent with the running scheduler
			if err := scheduler.R().Delete(scheduleID); err != nil {
				zap.L().Error("Rollback schedule creation", zap.Int64("id", scheduleID), zap.Error(err))
			}
			httputil.Error(w, r, httputil.ErrAPIProcessError, err)
			return
		}
	}

	createdSchedule, found, err := scheduler.R().Get(scheduleID)
	if err != nil {
		zap.L().Error("Cannot get schedule", zap.Int64("id", scheduleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Error("Schedule not found after creation", zap.Int64("id", scheduleID))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFoundAfterInsert, err)
		return
	}

	httputil.JSON(w, r, createdSchedule)
}

// PutJobSchedule godoc
//
//	@Id				PutJobSchedule
//
//	@Summary		Update a job schedule
//	@Description	Replaces the job schedule with the specified id and resyncs the running scheduler
//	@Tags			Scheduler
//	@Accept			json
//	@Produce		json
//	@Param			id			path	int							true	"schedule ID"
//	@Param			schedule	body	scheduler.InternalSchedule	true	"schedule (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	scheduler.InternalSchedule	"schedule"
//	@Failure		400	{object}	httputil.APIError			"Bad Request"
//	@Failure		500	{object}	httputil.APIError			"Internal Server Error"
//	@Router			/scheduler/jobs/{id} [put]
func PutJobSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scheduleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		zap.L().Warn("Parse schedule id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingInteger, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeScheduler, strconv.FormatInt(scheduleID, 10), permissions.ActionUpdate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var newSchedule scheduler.InternalSchedule
	err = json.NewDecoder(r.Body).Decode(&newSchedule)
	if err != nil {
		zap.L().Warn("Schedule json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}
	newSchedule.ID = scheduleID

	if ok, err := newSchedule.IsValid(); !ok {
		zap.L().Warn("Invalid schedule definition", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	err = scheduler.R().Update(newSchedule)
	if err != nil {
		zap.L().Error("PutJobSchedule.Update", zap.Int64("id", scheduleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBUpdateFailed, err)
		return
	}

	if newSchedule.Enabled {
		err = scheduler.S().AddJobSchedule(newSchedule)
		if err != nil {
			zap.L().Error("Add schedule to scheduler", zap.Int64("id", scheduleID), zap.Error(err))
			httputil.Error(w, r, httputil.ErrAPIProcessError, err)
			return
		}
	} else {
		scheduler.S().RemoveJobSchedule(scheduleID)
	}

	updatedSchedule, found, err := scheduler.R().Get(scheduleID)
	if err != nil {
		zap.L().Error("Cannot get schedule", zap.Int64("id", scheduleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Error("Schedule not found after update", zap.Int64("id", scheduleID))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFoundAfterInsert, err)
		return
	}

	httputil.JSON(w, r, updatedSchedule)
}

// DeleteJobSchedule godoc
//
//	@Id				DeleteJobSchedule
//
//	@Summary		Delete a job schedule
//	@Description	Deletes the job schedule with the specified id and unregisters it from the running scheduler
//	@Tags			Scheduler
//	@Produce		json
//	@Param			id	path	int	true	"schedule ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{string}	string				"status OK"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/scheduler/jobs/{id} [delete]
func DeleteJobSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scheduleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		zap.L().Warn("Parse schedule id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingInteger, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeScheduler, strconv.FormatInt(scheduleID, 10), permissions.ActionDelete)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	err = scheduler.R().Delete(scheduleID)
	if err != nil {
		zap.L().Error("Cannot delete schedule", zap.Int64("id", scheduleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBDeleteFailed, err)
		return
	}

	scheduler.S().RemoveJobSchedule(scheduleID)

	httputil.OK(w, r)
}

// TriggerJobSchedule godoc
//
//	@Id				TriggerJobSchedule
//
//	@Summary		Trigger a job schedule
//	@Description	Runs the job of the specified schedule immediately, without waiting for its next cron tick
//	@Tags			Scheduler
//	@Produce		json
//	@Param			id	path	int	true	"schedule ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{string}	string				"status OK"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		404	{object}	httputil.APIError	"Status Not Found"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/scheduler/jobs/{id}/trigger [post]
func TriggerJobSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	scheduleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		zap.L().Warn("Parse schedule id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingInteger, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeScheduler, strconv.FormatInt(scheduleID, 10), permissions.ActionUpdate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	schedule, found, err := scheduler.R().Get(scheduleID)
	if err != nil {
		zap.L().Error("Cannot get schedule", zap.Int64("id", scheduleID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Warn("Schedule not found", zap.Int64("id", scheduleID))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFound, err)
		return
	}

	zap.L().Info("Triggering schedule", zap.Int64("id", scheduleID), zap.String("name", schedule.Name))
	schedule.Job.Run()

	httputil.OK(w, r)
}
