package security

import (
	"sync"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

var (
	_globalTokenAuthMu sync.RWMutex
	_globalTokenAuth   *jwtauth.JWTAuth
)

// TokenAuth is used to access the global JWT authenticator singleton
func TokenAuth() *jwtauth.JWTAuth {
	_globalTokenAuthMu.RLock()
	defer _globalTokenAuthMu.RUnlock()

	tokenAuth := _globalTokenAuth
	return tokenAuth
}

// InitTokenAuth affect a new JWT authenticator, based on the input signing key,
// to the global JWT authenticator singleton
func InitTokenAuth(signingKey []byte) func() {
	_globalTokenAuthMu.Lock()
	defer _globalTokenAuthMu.Unlock()

	prev := _globalTokenAuth
	_globalTokenAuth = jwtauth.New("HS256", signingKey, nil)
	return func() {
		_globalTokenAuthMu.Lock()
		defer _globalTokenAuthMu.Unlock()
		_globalTokenAuth = prev
	}
}

// NewToken builds and signs a new JWT for the input user
func NewToken(user users.User, validity time.Duration) (string, error) {
	now := time.Now()
	_, tokenString, err := TokenAuth().Encode(map[string]interface{}{
		"iss": "Lucina metrics",
		"exp": now.Add(validity).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"id":  user.ID.String(),
	})
	if err != nil {
		return "", err
	}
	return tokenString, nil
}
