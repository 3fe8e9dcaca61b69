package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// GetServices godoc
//
//	@Id				GetServices
//
//	@Summary		Get all supervised services
//	@Description	Gets the definition of every supervised service, ordered by name.
//	@Description	Without a global read permission, the listing is scoped to the services the user can individually read.
//	@Tags			Services
//	@Produce		json
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{array}		supervisor.Definition	"list of services"
//	@Failure		500	{object}	httputil.APIError		"Internal Server Error"
//	@Router			/services [get]
func GetServices(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeService, permissions.All, permissions.ActionList)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	services := readableServices(userCtx)
	definitions := make([]supervisor.Definition, 0, len(services))
	for _, service := range services {
		definitions = append(definitions, service.GetDefinition())
	}

	httputil.JSON(w, r, definitions)
}

// GetService godoc
//
//	@Id				GetService
//
//	@Summary		Get a supervised service
//	@Description	Gets the definition of the supervised service with the specified id
//	@Tags			Services
//	@Produce		json
//	@Param			id	path	string	true	"service ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	supervisor.Definition	"service"
//	@Failure		400	{object}	httputil.APIError		"Bad Request"
//	@Failure		404	{object}	httputil.APIError		"Status Not Found"
//	@Router			/services/{id} [get]
func GetService(w http.ResponseWriter, r *http.Request) {
	service, ok := serviceFromURL(w, r, permissions.ActionGet)
	if !ok {
		return
	}

	httputil.JSON(w, r, service.GetDefinition())
}

// GetServiceStatus godoc
//
//	@Id				GetServiceStatus
//
//	@Summary		Get the status of a service
//	@Description	Gets the current status snapshot of the supervised service with the specified id.
//	@Description	The uptime is expressed in seconds and stays at 0 until the service is running.
//	@Tags			Services
//	@Produce		json
//	@Param			id	path	string	true	"service ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	supervisor.Snapshot	"service status"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		404	{object}	httputil.APIError	"Status Not Found"
//	@Router			/services/{id}/status [get]
func GetServiceStatus(w http.ResponseWriter, r *http.Request) {
	service, ok := serviceFromURL(w, r, permissions.ActionGet)
	if !ok {
		return
	}

	httputil.JSON(w, r, service.GetStatus())
}

// GetServicesStatuses godoc
//
//	@Id				GetServicesStatuses
//
//	@Summary		Get the status of every service
//	@Description	Gets the current status snapshot of every supervised service, ordered by name.
//	@Description	Without a global read permission, the listing is scoped to the services the user can individually read.
//	@Tags			Services
//	@Produce		json
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{array}		supervisor.Snapshot	"list of service statuses"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/services/statuses [get]
func GetServicesStatuses(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeService, permissions.All, permissions.ActionList)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	services := readableServices(userCtx)
	snapshots := make([]supervisor.Snapshot, 0, len(services))
	for _, service := range services {
		snapshots = append(snapshots, service.GetStatus())
	}

	httputil.JSON(w, r, snapshots)
}

// StartService godoc
//
//	@Id				StartService
//
//	@Summary		Start a service
//	@Description	Starts the supervised service with the specified id.
//	@Description	Starting a service which is not stopped returns a conflict.
//	@Tags			Services
//	@Produce		json
//	@Param			id	path	string	true	"service ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	supervisor.Snapshot	"service status"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		404	{object}	httputil.APIError	"Status Not Found"
//	@Failure		409	{object}	httputil.APIError	"Status Conflict"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/services/{id}/start [post]
func StartService(w http.ResponseWriter, r *http.Request) {
	service, ok := serviceFromURL(w, r, permissions.ActionUpdate)
	if !ok {
		return
	}

	err := service.Start(r.Context())
	if err != nil {
		handleTransitionError(w, r, service, "start", err)
		return
	}

	httputil.JSON(w, r, service.GetStatus())
}

// StopService godoc
//
//	@Id				StopService
//
//	@Summary		Stop a service
//	@Description	Stops the supervised service with the specified id.
//	@Description	Stopping a service which is not running returns a conflict.
//	@Tags			Services
//	@Produce		json
//	@Param			id	path	string	true	"service ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	supervisor.Snapshot	"service status"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		404	{object}	httputil.APIError	"Status Not Found"
//	@Failure		409	{object}	httputil.APIError	"Status Conflict"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/services/{id}/stop [post]
func StopService(w http.ResponseWriter, r *http.Request) {
	service, ok := serviceFromURL(w, r, permissions.ActionUpdate)
	if !ok {
		return
	}

	err := service.Stop(r.Context())
	if err != nil {
		handleTransitionError(w, r, service, "stop", err)
		return
	}

	httputil.JSON(w, r, service.GetStatus())
}

// RestartService godoc
//
//	@Id				RestartService
//
//	@Summary		Restart a service
//	@Description	Stops then starts the supervised service with the specified id.
//	@Tags			Services
//	@Produce		json
//	@Param			id	path	string	true	"service ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	supervisor.Snapshot	"service status"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		404	{object}	httputil.APIError	"Status Not Found"
//	@Failure		409	{object}	httputil.APIError	"Status Conflict"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/services/{id}/restart [post]
func RestartService(w http.ResponseWriter, r *http.Request) {
	service, ok := serviceFromURL(w, r, permissions.ActionUpdate)
	if !ok {
		return
	}

	err := service.Restart(r.Context())
	if err != nil {
		handleTransitionError(w, r, service, "restart", err)
		return
	}

	httputil.JSON(w, r, service.GetStatus())
}

// readableServices returns the supervised services the logged user is allowed
// to read: everything with a global read permission, otherwise only the
// services matched by its per-resource permissions.
func readableServices(userCtx users.UserWithPermissions) []supervisor.Service {
	services := supervisor.M().GetAll()
	if userCtx.HasPermission(permissions.New(permissions.TypeService, permissions.All, permissions.ActionGet)) {
		return services
	}

	readable := make(map[string]struct{})
	for _, id := range userCtx.GetMatchingResourceIDs(permissions.New(permissions.TypeService, permissions.All, permissions.ActionGet)) {
		readable[id] = struct{}{}
	}

	scoped := make([]supervisor.Service, 0, len(services))
	for _, service := range services {
		if _, ok := readable[service.GetDefinition().ID.String()]; ok {
			scoped = append(scoped, service)
		}
	}
	return scoped
}

// serviceFromURL resolves the service from the "id" URL parameter and checks
// the matching permission of the logged user
func serviceFromURL(w http.ResponseWriter, r *http.Request, action string) (supervisor.Service, bool) {
	id := chi.URLParam(r, "id")
	serviceID, err := uuid.Parse(id)
	if err != nil {
		zap.L().Warn("Parse service id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
		return nil, false
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeService, serviceID.String(), action)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return nil, false
	}

	service, found := supervisor.M().Get(serviceID)
	if !found {
		zap.L().Warn("Service not found", zap.String("uuid", serviceID.String()))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFound, errors.New("no service found with this id"))
		return nil, false
	}
	return service, true
}

// handleTransitionError maps a lifecycle error on the matching API error.
// An invalid transition is a conflict with the current service status, everything else is a process error.
func handleTransitionError(w http.ResponseWriter, r *http.Request, service supervisor.Service, operation string, err error) {
	name := service.GetDefinition().Name
	if errors.Is(err, supervisor.ErrAlreadyRunning) || errors.Is(err, supervisor.ErrNotRunning) {
		zap.L().Warn("Service transition refused", zap.String("service", name), zap.String("operation", operation), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIServiceTransition, err)
		return
	}
	zap.L().Error("Service transition failed", zap.String("service", name), zap.String("operation", operation), zap.Error(err))
	httputil.Error(w, r, httputil.ErrAPIProcessError, err)
}
