package routeroidc

import (
	"errors"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/net/context"
	"golang.org/x/oauth2"
)

// Instance groups the discovered OIDC provider with its oauth2 client configuration
type Instance struct {
	Config   oauth2.Config
	Provider *oidc.Provider
}

var (
	_globalInstanceMu sync.RWMutex
	_globalInstance   *Instance
)

// InitOidc discovers the OIDC provider endpoints from the issuer URL and stores
// the resulting instance in the global singleton. Calling it twice is a no-op.
func InitOidc(issuerURL string, clientID string, clientSecret string, redirectURL string, extraScopes []string) error {
	_globalInstanceMu.Lock()
	defer _globalInstanceMu.Unlock()

	if _globalInstance != nil {
		return nil
	}

	provider, err := oidc.NewProvider(context.Background(), issuerURL)
	if err != nil {
		zap.L().Error("OIDC provider discovery", zap.String("issuer", issuerURL), zap.Error(err))
		return err
	}

	_globalInstance = &Instance{
		Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       append([]string{oidc.ScopeOpenID}, extraScopes...),
		},
		Provider: provider,
	}
	return nil
}

// I is used to access the global OIDC instance singleton
func I() (*Instance, error) {
	_globalInstanceMu.RLock()
	defer _globalInstanceMu.RUnlock()

	if _globalInstance == nil {
		return nil, errors.New("OIDC is not initialized")
	}
	return _globalInstance, nil
}
