package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/notifier"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// canFollowNotifications checks that the user may follow the notification
// feed. The feed carries service transitions and alert notifications.
func canFollowNotifications(user users.UserWithPermissions) bool {
	return user.HasPermission(permissions.New(permissions.TypeNotification, permissions.All, permissions.ActionList))
}

// NotificationsWSRegister godoc
//
//	@Id				NotificationsWSRegister
//
//	@Summary		Register a new client to the notifications system using WS
//	@Description	Upgrades the connection and pushes every further notification on the socket
//	@Tags			Notifications
//	@Produce		json
//	@Param			token	query	string	false	"Json Web Token"
//	@Security		Bearer
//	@Success		200	"Status OK"
//	@Failure		401	{object}	httputil.APIError	"Unauthorized"
//	@Failure		403	{object}	httputil.APIError	"Forbidden"
//	@Router			/notifications/ws [get]
func NotificationsWSRegister(w http.ResponseWriter, r *http.Request) {
	zap.L().Info("New connection on /notifications/ws")

	user, found := GetUserFromContext(r)
	if !found {
		httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("no user in context"))
		return
	}
	if !canFollowNotifications(user) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	client, err := notifier.BuildWebsocketClient(w, r, &user)
	if err != nil {
		zap.L().Error("Upgrade websocket connection", zap.Error(err))
		return
	}

	if err := notifier.C().Register(client); err != nil {
		zap.L().Error("Register websocket client", zap.Error(err))
		return
	}

	go client.Write()
	go client.Read()
}

// NotificationsSSERegister godoc
//
//	@Id				NotificationsSSERegister
//
//	@Summary		Register a new client to the notifications system using SSE
//	@Description	Keeps the connection open and streams every further notification as a server-sent event
//	@Tags			Notifications
//	@Produce		json
//	@Param			token	query	string	false	"Json Web Token"
//	@Security		Bearer
//	@Success		200	"Status OK"
//	@Failure		401	{object}	httputil.APIError	"Unauthorized"
//	@Failure		403	{object}	httputil.APIError	"Forbidden"
//	@Router			/notifications/sse [get]
func NotificationsSSERegister(w http.ResponseWriter, r *http.Request) {
	zap.L().Info("New connection on /notifications/sse")

	user, found := GetUserFromContext(r)
	if !found {
		httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("no user in context"))
		return
	}
	if !canFollowNotifications(user) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client, err := notifier.BuildSSEClient(w, r, &user)
	if err != nil {
		zap.L().Error("Open SSE stream", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIProcessError, err)
		return
	}

	if err := notifier.C().Register(client); err != nil {
		zap.L().Error("Register SSE client", zap.Error(err))
		return
	}
	defer func() {
		if err := notifier.C().Unregister(client); err != nil {
			zap.L().Warn("Unregister SSE client", zap.Error(err))
		}
	}()

	// The stream lives on the handler goroutine, Write returns once the
	// client goes away.
	client.Write()
}
