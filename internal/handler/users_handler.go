package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/notifier"
	"github.com/lucinametrics/lucina-service-api/v5/internal/notifier/notification"
	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

const (
	defaultListLimit  = 10
	defaultListOffset = 0
)

// GetUserSelf godoc
//
//	@Id				GetUserSelf
//
//	@Summary		Get the logged user
//	@Description	Gets the logged user with the permission set derived from its role.
//	@Tags			Users
//	@Produce		json
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	users.UserWithPermissions	"status OK"
//	@Failure		401	{object}	httputil.APIError			"Unauthorized"
//	@Router			/security/myself [get]
func GetUserSelf(w http.ResponseWriter, r *http.Request) {
	userCtx, found := GetUserFromContext(r)
	if !found {
		zap.L().Warn("No user in context")
		httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("no user in context"))
		return
	}

	httputil.JSON(w, r, userCtx)
}

// GetUsers godoc
//
//	@Id				GetUsers
//
//	@Summary		Get all users
//	@Description	Gets a page of the user list, ordered by login.
//	@Description	The "limit" and "offset" parameters fall back on their default value (10 and 0) when absent or unparseable.
//	@Tags			Users
//	@Produce		json
//	@Param			limit	query	int	false	"page size (default 10)"
//	@Param			offset	query	int	false	"page offset (default 0)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{array}		users.User			"list of users"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/users [get]
func GetUsers(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeUser, permissions.All, permissions.ActionList)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	limit := QueryParamToPositiveInt(r, "limit", defaultListLimit)
	offset := QueryParamToPositiveInt(r, "offset", defaultListOffset)

	page, err := users.R().List(dbutils.DBQueryOptionnal{Limit: limit, Offset: offset})
	if err != nil {
		zap.L().Error("GetUsers.List", zap.Int("limit", limit), zap.Int("offset", offset), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}

	httputil.JSON(w, r, page)
}

// GetUser godoc
//
//	@Id				GetUser
//
//	@Summary		Get an user
//	@Description	Gets the user with the specified id
//	@Tags			Users
//	@Produce		json
//	@Param			id	path	string	true	"user ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	users.User			"user"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		404	{object}	httputil.APIError	"Status Not Found"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/users/{id} [get]
func GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, err := uuid.Parse(id)
	if err != nil {
		zap.L().Warn("Parse user id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeUser, userID.String(), permissions.ActionGet)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	user, found, err := users.R().Get(userID)
	if err != nil {
		zap.L().Error("Cannot get user", zap.String("id", userID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Warn("User not found", zap.String("id", userID.String()))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFound, errors.New("no user found with this id"))
		return
	}

	httputil.JSON(w, r, user)
}

// ValidateUser godoc
//
//	@Id				ValidateUser
//
//	@Summary		Validate a new user definition
//	@Description	Validates a new user definition without persisting it.
//	@Description	The password is checked but never echoed back.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			user	body	users.User	true	"user (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	users.User			"user"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		403	{object}	httputil.APIError	"Forbidden"
//	@Router			/users/validate [post]
func ValidateUser(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermissionAtLeastOne([]permissions.Permission{
		permissions.New(permissions.TypeUser, permissions.All, permissions.ActionCreate),
		permissions.New(permissions.TypeUser, permissions.All, permissions.ActionUpdate),
	}) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var candidate users.UserWithPassword
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		zap.L().Warn("User json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}

	if ok, err := candidate.IsValid(); !ok {
		zap.L().Warn("Invalid user definition", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	httputil.JSON(w, r, candidate.User)
}

// PostUser godoc
//
//	@Id				PostUser
//
//	@Summary		Create a new user
//	@Description	Adds an user to the user list.
//	@Description	The login must be unique, creating a duplicate is rejected.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			user	body	users.User	true	"user (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	users.User			"user"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/users [post]
func PostUser(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeUser, permissions.All, permissions.ActionCreate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var candidate users.UserWithPassword
	err := json.NewDecoder(r.Body).Decode(&candidate)
	if err != nil {
		zap.L().Warn("User json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}

	if ok, err := candidate.IsValid(); !ok {
		zap.L().Warn("Invalid user definition", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	userID, err := users.R().Create(candidate)
	if err != nil {
		if errors.Is(err, users.ErrLoginAlreadyExists) {
			zap.L().Warn("Login already exists", zap.String("login", candidate.Login))
			httputil.Error(w, r, httputil.ErrAPIResourceDuplicate, err)
			return
		}
		zap.L().Error("PostUser.Create", zap.String("login", candidate.Login), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBInsertFailed, err)
		return
	}

	created, found, err := users.R().Get(userID)
	if err != nil {
		zap.L().Error("Cannot get user", zap.String("id", userID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Error("User not found after creation", zap.String("id", userID.String()))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFoundAfterInsert, errors.New("user not found after creation"))
		return
	}

	httputil.JSON(w, r, created)
}

// PutUser godoc
//
//	@Id				PutUser
//
//	@Summary		Update an user
//	@Description	Replaces the definition of the user with the specified id.
//	@Description	The password is not touched, see the dedicated password route.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string		true	"user ID"
//	@Param			user	body	users.User	true	"user (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{object}	users.User			"user"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/users/{id} [put]
func PutUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, err := uuid.Parse(id)
	if err != nil {
		zap.L().Warn("Parse user id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeUser, userID.String(), permissions.ActionUpdate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var update users.User
	err = json.NewDecoder(r.Body).Decode(&update)
	if err != nil {
		zap.L().Warn("User json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}
	update.ID = userID

	if ok, err := update.IsValid(); !ok {
		zap.L().Warn("Invalid user definition", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	err = users.R().Update(update)
	if err != nil {
		zap.L().Error("PutUser.Update", zap.String("id", userID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBUpdateFailed, err)
		return
	}

	updated, found, err := users.R().Get(userID)
	if err != nil {
		zap.L().Error("Cannot get user", zap.String("id", userID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Error("User not found after update", zap.String("id", userID.String()))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFoundAfterInsert, errors.New("user not found after update"))
		return
	}

	httputil.JSON(w, r, updated)
}

// DeleteUser godoc
//
//	@Id				DeleteUser
//
//	@Summary		Delete an user
//	@Description	Deletes the user with the specified id
//	@Tags			Users
//	@Produce		json
//	@Param			id	path	string	true	"user ID"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{string}	string				"status OK"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/users/{id} [delete]
func DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, err := uuid.Parse(id)
	if err != nil {
		zap.L().Warn("Parse user id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeUser, userID.String(), permissions.ActionDelete)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	err = users.R().Delete(userID)
	if err != nil {
		zap.L().Error("Cannot delete user", zap.String("id", userID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBDeleteFailed, err)
		return
	}

	httputil.OK(w, r)
}

// ChangeUserPassword godoc
//
//	@Id				ChangeUserPassword
//
//	@Summary		Change the password of an user
//	@Description	Replaces the password of the user with the specified id.
//	@Description	The new password must be at least 6 characters long.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id			path	string				true	"user ID"
//	@Param			password	body	map[string]string	true	"new password (json)"
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{string}	string				"status OK"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/users/{id}/password [put]
func ChangeUserPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, err := uuid.Parse(id)
	if err != nil {
		zap.L().Warn("Parse user id", zap.String("id", id), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeUser, userID.String(), permissions.ActionUpdate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	err = json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		zap.L().Warn("Password json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}

	if len(body.Password) < 6 {
		zap.L().Warn("Password is too short", zap.String("id", userID.String()))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, errors.New("password is too short (less than 6 characters)"))
		return
	}

	err = users.R().UpdatePassword(userID, body.Password)
	if err != nil {
		zap.L().Error("ChangeUserPassword.UpdatePassword", zap.String("id", userID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBUpdateFailed, err)
		return
	}

	// Warn the live sessions of the affected user
	if c := notifier.C(); c != nil {
		c.SendToUsers(notification.NewBaseNotification(notification.LevelWarning,
			"Your password has been changed",
			"Sessions already open keep their token until it expires"), []uuid.UUID{userID})
	}

	httputil.OK(w, r)
}
