package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/security"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// tokenValidityDuration is the lifetime of a JWT issued by the login endpoint
const tokenValidityDuration = 12 * time.Hour

// loginRateLimiter guards the login endpoint against brute force attempts,
// allowing bursts of 10 attempts refilled once per second for each remote address
var loginRateLimiter = security.NewRateLimiter(1, 10)

// JwtToken wrap the json web token string
type JwtToken struct {
	Token string `json:"token"`
}

// Login godoc
//
//	@Id				Login
//
//	@Summary		Login
//	@Description	Authenticate with a login and a password, and returns a JWT.
//	@Description	Example :
//	@Description	<pre>{"login":"myuser","password":"mypassword"}</pre>
//	@Tags			Security
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body	users.UserWithPassword	true	"Credentials (json)"
//	@Success		200	{object}	handler.JwtToken	"json web token"
//	@Failure		400	{object}	httputil.APIError	"Bad Request"
//	@Failure		401	{object}	httputil.APIError	"Unauthorized"
//	@Failure		429	{object}	httputil.APIError	"Too Many Requests"
//	@Router			/login [post]
func Login(w http.ResponseWriter, r *http.Request) {
	if !loginRateLimiter.Allow(remoteAddress(r)) {
		zap.L().Warn("Login rate limit reached", zap.String("remote", remoteAddress(r)))
		httputil.Error(w, r, httputil.ErrAPITooManyRequests, errors.New("too many login attempts"))
		return
	}

	var credentials users.UserWithPassword
	err := json.NewDecoder(r.Body).Decode(&credentials)
	if err != nil {
		zap.L().Warn("Credentials json decode", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIDecodeJSONBody, err)
		return
	}
	if credentials.Login == "" || credentials.Password == "" {
		zap.L().Warn("Missing login or password")
		httputil.Error(w, r, httputil.ErrAPIMissingParam, errors.New("missing login or password"))
		return
	}

	auth := security.NewDatabaseAuth(users.R())
	user, allowed, err := auth.Authenticate(credentials.Login, credentials.Password)
	if err != nil {
		zap.L().Error("Authentication failed", zap.String("login", credentials.Login), zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIProcessError, err)
		return
	}
	if !allowed {
		zap.L().Warn("Invalid credentials", zap.String("login", credentials.Login))
		httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("invalid credentials"))
		return
	}

	token, err := security.NewToken(user, tokenValidityDuration)
	if err != nil {
		zap.L().Error("Error while signing token", zap.Error(err))
		httputil.Error(w, r, httputil.ErrAPIProcessError, err)
		return
	}

	httputil.JSON(w, r, JwtToken{Token: token})
}

// remoteAddress extracts the client address of a request, without the port.
// The RealIP middleware already resolved the forwarding headers at this point.
func remoteAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
