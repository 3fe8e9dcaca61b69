package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/history"
	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// GetHistoryRecords godoc
//
//	@Id				GetHistoryRecords
//
//	@Summary		Get the service status history
//	@Description	Gets a page of the persisted status transitions, most recent first.
//	@Description	The page can be restricted to a single service with the "serviceid" parameter.
//	@Description	The history of a single service is readable with the global history permission or with a read permission on the service itself.
//	@Tags			History
//	@Produce		json
//	@Param			limit		query	int		false	"page size (default 10)"
//	@Param			offset		query	int		false	"page offset (default 0)"
//	@Param			serviceid	query	string	false	"filter on a single service ID"
//	@Param			maxage		query	string	false	"maximum record age (go duration format)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{array}		history.Record		"list of records"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/history [get]
func GetHistoryRecords(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)

	options := dbutils.DBQueryOptionnal{
		Limit:  QueryParamToPositiveInt(r, "limit", defaultListLimit),
		Offset: QueryParamToPositiveInt(r, "offset", defaultListOffset),
	}

	maxAge, err := QueryParamToOptionalDuration(r, "maxage", 0)
	if err != nil {
		zap.L().Warn("Parse maxage duration", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingDateTime, err)
		return
	}
	options.MaxAge = maxAge

	rawServiceID := r.URL.Query().Get("serviceid")
	if rawServiceID != "" {
		serviceID, err := uuid.Parse(rawServiceID)
		if err != nil {
			zap.L().Warn("Parse service id", zap.String("serviceid", rawServiceID), zap.Error(err))
			httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
			return
		}

		// The transitions of a single service are part of that service's
		// state, a read permission on the service is as good as the global
		// history permission
		if !userCtx.HasPermissionAtLeastOne([]permissions.Permission{
			permissions.New(permissions.TypeHistory, permissions.All, permissions.ActionList),
			permissions.New(permissions.TypeService, serviceID.String(), permissions.ActionGet),
		}) {
			httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
			return
		}

		records, err := history.R().GetAllByServiceID(serviceID, options)
		if err != nil {
			zap.L().Error("GetHistoryRecords by service", zap.String("serviceid", serviceID.String()), zap.Error(err))
			httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
			return
		}
		httputil.JSON(w, r, records)
		return
	}

	if !userCtx.HasPermission(permissions.New(permissions.TypeHistory, permissions.All, permissions.ActionList)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	records, err := history.R().GetAll(options)
	if err != nil {
		zap.L().Error("GetHistoryRecords", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}

	httputil.JSON(w, r, records)
}

// GetHistoryRecord godoc
//
//	@Id				GetHistoryRecord
//
//	@Summary		Get a status history record
//	@Description	Gets the persisted status transition with the specified id
//	@Tags			History
//	@Produce		json
//	@Param			id	path	int	true	"record ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	history.Record		"record"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		404	{object}	httputil.APIError	"Status Not Found"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/history/{id} [get]
func GetHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	recordID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		zap.L().Warn("Parse record id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingInteger, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeHistory, strconv.FormatInt(recordID, 10), permissions.ActionGet)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	record, found, err := history.R().Get(recordID)
	if err != nil {
		zap.L().Error("Cannot get record", zap.Int64("id", recordID), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Warn("Record not found", zap.Int64("id", recordID))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFound, err)
		return
	}

	httputil.JSON(w, r, record)
}
