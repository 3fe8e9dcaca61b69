package handler

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

// queryParam parses an optional query parameter with the given parser and
// returns orDefault when the parameter is absent from the request.
func queryParam[T any](r *http.Request, name string, parse func(string) (T, error), orDefault T) (T, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return orDefault, nil
	}
	return parse(raw)
}

// QueryParamToPositiveInt parses a positive int from a query parameter.
// An absent, unparseable or negative parameter falls back on the default,
// pagination parameters never make a request fail.
func QueryParamToPositiveInt(r *http.Request, name string, orDefault int) int {
	value, err := queryParam(r, name, strconv.Atoi, orDefault)
	if err != nil || value < 0 {
		return orDefault
	}
	return value
}

// QueryParamToOptionalDuration parses a go duration (like "72h") from a query parameter.
func QueryParamToOptionalDuration(r *http.Request, name string, orDefault time.Duration) (time.Duration, error) {
	return queryParam(r, name, time.ParseDuration, orDefault)
}

// GetUserFromContext extracts the user injected in the request context by the
// authentication middlewares.
func GetUserFromContext(r *http.Request) (users.UserWithPermissions, bool) {
	raw := r.Context().Value(httputil.ContextKeyUser)
	if raw == nil {
		zap.L().Warn("No user in request context")
		return users.UserWithPermissions{}, false
	}
	user, ok := raw.(users.UserWithPermissions)
	if !ok {
		zap.L().Warn("Unexpected user type in request context")
		return users.UserWithPermissions{}, false
	}
	return user, true
}
