package security

import (
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

// Auth refers to a generic interface which must be implemented by every authentication backend
type Auth interface {
	Authenticate(login string, password string) (users.User, bool, error)
}

// DatabaseAuth is an Auth implementation checking the input credentials against the users repository
type DatabaseAuth struct {
	repository users.Repository
}

// NewDatabaseAuth returns a pointer of DatabaseAuth
func NewDatabaseAuth(repository users.Repository) *DatabaseAuth {
	return &DatabaseAuth{repository: repository}
}

// Authenticate checks the input credentials and returns the matching user when the password matches
func (auth *DatabaseAuth) Authenticate(login string, password string) (users.User, bool, error) {
	return auth.repository.Authenticate(login, password)
}
