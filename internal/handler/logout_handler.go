package handler

import (
	"net/http"

	"go.uber.org/zap"

	routerauth "github.com/lucinametrics/lucina-service-api/v5/internal/router/auth"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// Session cookie written by the front-end after a login, expired by the logout route.
const (
	TokenName         = "token"
	AllowedCookiePath = "/"
)

// LogoutHandler godoc
//
//	@Id				LogoutHandler
//
//	@Summary		Logout
//	@Description	Expires the session cookie and confirms the logout.
//	@Tags			Security
//	@Produce		plain
//	@Security		Bearer
//	@Security		ApiKeyAuth
//	@Success		200	{string}	string	"Logged out successfully."
//	@Failure		500	{string}	string	"Internal Server Error"
//	@Router			/logout [post]
func LogoutHandler(deleteSessionMiddleware func(http.Handler) http.Handler) http.Handler {
	confirm := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Logged out successfully."))
	})
	return deleteSessionMiddleware(confirm)
}

// GetAuthenticationMode godoc
//
//	@Id				GetAuthenticationMode
//
//	@Summary		Get the current authentication mode
//	@Description	Tells the front-end which login flow to drive, BASIC or OIDC.
//	@Tags			Security
//	@Produce		json
//	@Success		200	{object}	routerauth.AuthenticationMode
//	@Failure		500	{object}	httputil.APIError	"Internal Server Error"
//	@Router			/authmode [get]
func GetAuthenticationMode(w http.ResponseWriter, r *http.Request) {
	mode, err := routerauth.GetMode()
	if err != nil {
		zap.L().Error("Reading authentication mode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIProcessError, err)
		return
	}

	httputil.JSON(w, r, mode)
}
