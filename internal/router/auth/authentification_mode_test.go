package routerauth

import (
	"testing"

	"github.com/spf13/viper"
)

func TestGetMode(t *testing.T) {
	viper.Set("AUTHENTICATION_MODE", "BASIC")

	mode, err := GetMode()
	if err != nil {
		t.Errorf("error was not expected while reading the mode: %s", err)
	}
	if mode.Mode != ModeBasic {
		t.Errorf("authentication mode BASIC expected but got %s", mode.Mode)
	}
}

func TestGetModeNormalized(t *testing.T) {
	viper.Set("AUTHENTICATION_MODE", " oidc ")

	mode, err := GetMode()
	if err != nil {
		t.Errorf("error was not expected while reading the mode: %s", err)
	}
	if mode.Mode != ModeOIDC {
		t.Errorf("authentication mode OIDC expected but got %s", mode.Mode)
	}
}

func TestGetModeInvalid(t *testing.T) {
	viper.Set("AUTHENTICATION_MODE", "SAML")

	if _, err := GetMode(); err == nil {
		t.Errorf("expected an error on an unsupported authentication mode")
	}
}

func TestGetModeMissing(t *testing.T) {
	viper.Set("AUTHENTICATION_MODE", "")

	if _, err := GetMode(); err == nil {
		t.Errorf("expected an error when the authentication mode is not set")
	}
}
