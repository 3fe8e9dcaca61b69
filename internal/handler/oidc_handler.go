package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	routeroidc "github.com/lucinametrics/lucina-service-api/v5/internal/router/oidc"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

func oidcStateKey() []byte {
	return []byte(viper.GetString("AUTHENTICATION_OIDC_ENCRYPTION_KEY"))
}

// HandleOIDCRedirect godoc
//
//	@Id				HandleOIDCRedirect
//
//	@Summary		OIDC login redirect
//	@Description	Redirects the caller on the configured OIDC provider authentication page.
//	@Tags			Security
//	@Success		302	"Found"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/auth/oidc [get]
func HandleOIDCRedirect(w http.ResponseWriter, r *http.Request) {
	// The state comes back with the callback and ties it to this redirect
	state, err := newLoginState(oidcStateKey())
	if err != nil {
		zap.L().Error("Seal OIDC login state", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIGenerateRandomStateFailed, err)
		return
	}

	instance, err := routeroidc.I()
	if err != nil {
		zap.L().Error("OIDC instance not initialized", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIProcessError, err)
		return
	}

	http.Redirect(w, r, instance.Config.AuthCodeURL(state), http.StatusFound)
}

// HandleOIDCCallback godoc
//
//	@Id				HandleOIDCCallback
//
//	@Summary		OIDC login callback
//	@Description	Exchanges the authorization code against an ID token, verifies it
//	@Description	and redirects the caller on the front-end callback URL.
//	@Tags			Security
//	@Success		302	"Found"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/auth/oidc/callback [get]
func HandleOIDCCallback(w http.ResponseWriter, r *http.Request) {
	if err := openLoginState(r.URL.Query().Get("state"), oidcStateKey()); err != nil {
		zap.L().Warn("Open OIDC login state", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIInvalidOIDCState, errors.New("the state does not match the login redirect"))
		return
	}

	instance, err := routeroidc.I()
	if err != nil {
		zap.L().Error("OIDC instance not initialized", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIProcessError, err)
		return
	}

	oauth2Token, err := instance.Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		zap.L().Warn("Exchange OIDC authorization code", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIExchangeOIDCTokenFailed, err)
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		zap.L().Warn("OIDC token response carries no id_token")
		httputil.Error(w, r, httputil.ErrAPINoIDOIDCToken, errors.New("the token response carries no id_token"))
		return
	}

	verifier := instance.Provider.Verifier(&oidc.Config{ClientID: instance.Config.ClientID})
	if _, err := verifier.Verify(r.Context(), rawIDToken); err != nil {
		zap.L().Warn("Verify OIDC ID token", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIVerifyIDOIDCTokenFailed, err)
		return
	}

	frontend := viper.GetString("AUTHENTICATION_OIDC_FRONT_END_URL")
	http.Redirect(w, r, fmt.Sprintf("%s/auth/oidc/callback?token=%s", frontend, url.QueryEscape(rawIDToken)), http.StatusFound)
}
