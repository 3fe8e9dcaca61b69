package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	gorillacontext "github.com/gorilla/context"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/security/apikey"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// HeaderKeyApiKey is the HTTP header carrying an API key value
const HeaderKeyApiKey = "X-API-Key"

// jwtAuthenticator rejects requests whose bearer token was not verified by the
// jwtauth.Verifier middleware upstream
func jwtAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// jwtContextMiddleware resolves the authenticated user from the verified JWT
// claims and injects it, expanded with its role permissions, in the request context
func jwtContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			zap.L().Warn("Get JWT claims from context", zap.Error(err))
			httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("invalid JWT"))
			return
		}

		rawUserID, ok := claims["id"].(string)
		if !ok {
			zap.L().Warn("Token without a user id claim", zap.Any("claims", claims))
			httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("invalid JWT"))
			return
		}
		userID, err := uuid.Parse(rawUserID)
		if err != nil {
			zap.L().Warn("Token with an invalid user id claim", zap.String("id", rawUserID))
			httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("invalid JWT"))
			return
		}

		user, found, err := users.R().Get(userID)
		if err != nil {
			zap.L().Error("Cannot get user", zap.Error(err))
			httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("internal error"))
			return
		}
		if !found {
			zap.L().Warn("Token for an unknown user", zap.String("id", rawUserID))
			httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("invalid JWT"))
			return
		}

		up := users.WithPermissions(user)
		tagRequestLogger(r, up)

		ctx := context.WithValue(r.Context(), httputil.ContextKeyUser, up)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// apiKeyContextMiddleware authenticates callers with an X-API-Key header and injects
// a synthetic user carrying the key role permissions in the request context.
// Validated keys are cached to avoid one bcrypt comparison per request.
func apiKeyContextMiddleware(next http.Handler, cache *apikey.ValidationCache) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyValue := r.Header.Get(HeaderKeyApiKey)
		if keyValue == "" {
			httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("missing API key"))
			return
		}

		authKey, ok := cache.Get(keyValue)
		if !ok {
			var found bool
			var err error
			authKey, found, err = apikey.R().Validate(keyValue)
			if err != nil {
				zap.L().Error("API key validation", zap.Error(err))
				httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("invalid API key"))
				return
			}
			if !found {
				zap.L().Debug("Unknown API key presented")
				httputil.Error(w, r, httputil.ErrAPISecurityMissingContext, errors.New("invalid API key"))
				return
			}
			cache.Set(keyValue, authKey)
		}

		up := users.WithPermissions(users.User{
			ID:        authKey.ID,
			Login:     "apikey-" + authKey.Name,
			Role:      authKey.Role,
			Created:   authKey.CreatedAt,
			LastName:  "API Service",
			FirstName: authKey.Name,
		})
		tagRequestLogger(r, up)

		zap.L().Debug("API key authentication successful", zap.String("apikey", authKey.Name))
		ctx := context.WithValue(r.Context(), httputil.ContextKeyUser, up)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tagRequestLogger attaches the resolved identity to the request picked up by
// the access-log middleware
func tagRequestLogger(r *http.Request, up users.UserWithPermissions) {
	loggerR := r.Context().Value(httputil.ContextKeyLoggerR)
	if loggerR == nil {
		return
	}
	gorillacontext.Set(loggerR.(*http.Request), httputil.UserLogin, fmt.Sprintf("%s(%s)", up.User.Login, up.User.ID))
}
