package routerauth

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Authentication modes supported by the API
const (
	ModeBasic = "BASIC"
	ModeOIDC  = "OIDC"
)

// AuthenticationMode carries the mode the API authenticates its callers with
type AuthenticationMode struct {
	Mode string `json:"mode"`
}

// GetMode reads the authentication mode from the configuration. The value is
// normalized to upper-case and must name a supported mode.
func GetMode() (AuthenticationMode, error) {
	mode := strings.ToUpper(strings.TrimSpace(viper.GetString("AUTHENTICATION_MODE")))
	switch mode {
	case ModeBasic, ModeOIDC:
		return AuthenticationMode{Mode: mode}, nil
	case "":
		return AuthenticationMode{}, errors.New("AUTHENTICATION_MODE is not set")
	default:
		return AuthenticationMode{}, errors.New("unsupported authentication mode: " + mode)
	}
}
