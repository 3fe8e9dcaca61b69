package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/security/apikey"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/roles"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// GetAPIKeys godoc
//
//	@Id				GetAPIKeys
//
//	@Summary		Get all API keys
//	@Description	Gets every API key, ordered by name. Key values are never returned.
//	@Tags			APIKeys
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{array}		apikey.APIKey		"list of API keys"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/apikeys [get]
func GetAPIKeys(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeAPIKey, permissions.All, permissions.ActionList)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	keys, err := apikey.R().GetAll()
	if err != nil {
		zap.L().Error("GetAPIKeys", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Name < keys[j].Name
	})

	httputil.JSON(w, r, keys)
}

// GetAPIKey godoc
//
//	@Id				GetAPIKey
//
//	@Summary		Get an API key
//	@Description	Gets the API key with the specified id. The key value is never returned.
//	@Tags			APIKeys
//	@Produce		json
//	@Param			id	path	string	true	"API key ID"
//	@Security		Bearer
//	@Success		200	{object}	apikey.APIKey		"API key"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		404	{object}	httputil.APIError	"Status Not Found"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/apikeys/{id} [get]
func GetAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Warn("Parse API key id", zap.String("id", chi.URLParam(r, "id")), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeAPIKey, keyID.String(), permissions.ActionGet)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	key, found, err := apikey.R().Get(keyID)
	if err != nil {
		zap.L().Error("Cannot get API key", zap.String("id", keyID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Warn("API key not found", zap.String("id", keyID.String()))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFound, err)
		return
	}

	httputil.JSON(w, r, key)
}

// PostAPIKey godoc
//
//	@Id				PostAPIKey
//
//	@Summary		Create a new API key
//	@Description	Creates an API key and returns it with its generated key value.
//	@Description	The key value is shown exactly once and cannot be retrieved afterwards.
//	@Description	The key role must not grant permissions its creator does not hold.
//	@Tags			APIKeys
//	@Accept			json
//	@Produce		json
//	@Param			apikey	body	apikey.APIKey	true	"API key (json)"
//	@Security		Bearer
//	@Success		200	{object}	apikey.APIKeyWithValue	"API key with its clear value"
//	@Failure		400	{object}	httputil.APIError		"Bad Request"
//	@Failure		403	{object}	httputil.APIError		"Forbidden"
//	@Failure		500	{object}	httputil.APIError		"Internal Server Error"
//	@Router			/apikeys [post]
func PostAPIKey(w http.ResponseWriter, r *http.Request) {
	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeAPIKey, permissions.All, permissions.ActionCreate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var payload apikey.APIKey
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		zap.L().Warn("API key json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}

	newKey, err := apikey.New(payload.Name, payload.Role, userCtx.User.Login, payload.ExpiresAt)
	if err != nil {
		zap.L().Error("Generate API key", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIProcessError, err)
		return
	}

	if ok, err := newKey.IsValid(); !ok {
		zap.L().Warn("API key is not valid", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	// A key must not open more doors than its creator can open
	if !userCtx.HasPermissionAll(roles.GetPermissions(newKey.Role)) {
		zap.L().Warn("API key role exceeds the permissions of its creator",
			zap.String("role", newKey.Role), zap.String("creator", userCtx.Login))
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions,
			errors.New("the key role grants permissions its creator does not hold"))
		return
	}

	keyID, err := apikey.R().Create(newKey.APIKey)
	if err != nil {
		zap.L().Error("PostAPIKey.Create", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBInsertFailed, err)
		return
	}
	newKey.ID = keyID

	httputil.JSON(w, r, newKey)
}

// PutAPIKey godoc
//
//	@Id				PutAPIKey
//
//	@Summary		Update an API key
//	@Description	Updates the name, role, expiration date and active flag of the API key with the specified id.
//	@Description	The key value and hash are never modified.
//	@Tags			APIKeys
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string			true	"API key ID"
//	@Param			apikey	body	apikey.APIKey	true	"API key (json)"
//	@Security		Bearer
//	@Success		200	{object}	apikey.APIKey		"API key"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/apikeys/{id} [put]
func PutAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Warn("Parse API key id", zap.String("id", chi.URLParam(r, "id")), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeAPIKey, keyID.String(), permissions.ActionUpdate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	var payload apikey.APIKey
	err = json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		zap.L().Warn("API key json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}
	payload.ID = keyID
	if payload.CreatedBy == "" {
		payload.CreatedBy = userCtx.User.Login
	}

	if ok, err := payload.IsValid(); !ok {
		zap.L().Warn("API key is not valid", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIResourceInvalid, err)
		return
	}

	err = apikey.R().Update(payload)
	if err != nil {
		zap.L().Error("PutAPIKey.Update", zap.String("id", keyID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBUpdateFailed, err)
		return
	}

	updatedKey, found, err := apikey.R().Get(keyID)
	if err != nil {
		zap.L().Error("Cannot get API key", zap.String("id", keyID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Error("API key not found after update", zap.String("id", keyID.String()))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFoundAfterInsert, err)
		return
	}

	httputil.JSON(w, r, updatedKey)
}

// DeleteAPIKey godoc
//
//	@Id				DeleteAPIKey
//
//	@Summary		Delete an API key
//	@Description	Deletes the API key with the specified id. Callers using this key are rejected immediately.
//	@Tags			APIKeys
//	@Produce		json
//	@Param			id	path	string	true	"API key ID"
//	@Security		Bearer
//	@Success		200	{string}	string				"status OK"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/apikeys/{id} [delete]
func DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Warn("Parse API key id", zap.String("id", chi.URLParam(r, "id")), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeAPIKey, keyID.String(), permissions.ActionDelete)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	err = apikey.R().Delete(keyID)
	if err != nil {
		zap.L().Error("Cannot delete API key", zap.String("id", keyID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBDeleteFailed, err)
		return
	}

	httputil.OK(w, r)
}

// DeactivateAPIKey godoc
//
//	@Id				DeactivateAPIKey
//
//	@Summary		Deactivate an API key
//	@Description	Deactivates the API key with the specified id without deleting it.
//	@Description	A deactivated key no longer authenticates callers but can be re-enabled with an update.
//	@Tags			APIKeys
//	@Produce		json
//	@Param			id	path	string	true	"API key ID"
//	@Security		Bearer
//	@Success		200	{object}	apikey.APIKey		"API key"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/apikeys/{id}/deactivate [post]
func DeactivateAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Warn("Parse API key id", zap.String("id", chi.URLParam(r, "id")), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIParsingUUID, err)
		return
	}

	userCtx, _ := GetUserFromContext(r)
	if !userCtx.HasPermission(permissions.New(permissions.TypeAPIKey, keyID.String(), permissions.ActionUpdate)) {
		httputil.Error(w, r, httputil.ErrAPISecurityNoPermissions, errors.New("missing permission"))
		return
	}

	err = apikey.R().Deactivate(keyID)
	if err != nil {
		zap.L().Error("Cannot deactivate API key", zap.String("id", keyID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBUpdateFailed, err)
		return
	}

	deactivatedKey, found, err := apikey.R().Get(keyID)
	if err != nil {
		zap.L().Error("Cannot get API key", zap.String("id", keyID.String()), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDBSelectFailed, err)
		return
	}
	if !found {
		zap.L().Warn("API key not found", zap.String("id", keyID.String()))
		httputil.Error(w, r, httputil.ErrAPIDBResourceNotFound, err)
		return
	}

	httputil.JSON(w, r, deactivatedKey)
}
