package routeroidc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	gorillacontext "github.com/gorilla/context"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/roles"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

type contextKey string

const contextKeyIDToken contextKey = "idToken"

// requestToken looks the raw OIDC token up in the Authorization header, then
// in the "token" query parameter (the only channel available to websocket and
// SSE connections).
func requestToken(r *http.Request) (string, bool) {
	const bearerPrefix = "Bearer "

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix), true
	}
	if r.URL.Query().Has("token") {
		return r.URL.Query().Get("token"), true
	}
	return "", false
}

// OIDCMiddleware verifies the OIDC token carried by the request against the
// configured provider and stores the verified ID token in the request context
func OIDCMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, found := requestToken(r)
		if !found {
			zap.L().Warn("No token string found in request")
			httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("missing token"))
			return
		}

		instance, err := I()
		if err != nil {
			zap.L().Error("OIDC instance not initialized", zap.Error(err))
			httputil.Error(w, r, httputil.ErrAPIProcessError, err)
			return
		}

		idToken, err := instance.Provider.Verifier(&oidc.Config{ClientID: instance.Config.ClientID}).Verify(r.Context(), tokenStr)
		if err != nil {
			var expired *oidc.TokenExpiredError
			if errors.As(err, &expired) {
				zap.L().Warn("Expired OIDC token", zap.Time("expiry", expired.Expiry))
				httputil.Error(w, r, httputil.ErrAPIExpiredAuthToken, err)
				return
			}
			zap.L().Warn("Verify OIDC token", zap.Error(err))
			httputil.Error(w, r, httputil.ErrAPIInvalidAuthToken, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyIDToken, idToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextMiddleware builds the logged user from the OIDC token claims.
// The first claimed role matching a known role name drives the permission set,
// a user claiming no known role ends up with no permissions at all.
func ContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idToken, ok := r.Context().Value(contextKeyIDToken).(*oidc.IDToken)
		if !ok {
			zap.L().Error("No verified ID token in request context")
			httputil.Error(w, r, httputil.ErrAPIMissingIDTokenFromContext, errors.New("missing idToken from context"))
			return
		}

		var claims struct {
			Email      string   `json:"email"`
			GivenName  string   `json:"given_name"`
			FamilyName string   `json:"family_name"`
			Roles      []string `json:"roles"`
		}
		if err := idToken.Claims(&claims); err != nil {
			zap.L().Warn("Decode OIDC claims", zap.Error(err))
			httputil.Error(w, r, httputil.ErrAPIFailedToGetUserClaims, err)
			return
		}

		var userRole string
		for _, claimedRole := range claims.Roles {
			if roles.IsValid(claimedRole) {
				userRole = claimedRole
				break
			}
		}

		up := users.UserWithPermissions{
			User: users.User{
				Login:     claims.Email,
				Role:      userRole,
				LastName:  claims.FamilyName,
				FirstName: claims.GivenName,
				Email:     claims.Email,
			},
			Permissions: roles.GetPermissions(userRole),
		}

		loggerR := r.Context().Value(httputil.ContextKeyLoggerR)
		if loggerR != nil {
			gorillacontext.Set(loggerR.(*http.Request), httputil.UserLogin, up.User.Login)
		}

		ctx := context.WithValue(r.Context(), httputil.ContextKeyUser, up)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
