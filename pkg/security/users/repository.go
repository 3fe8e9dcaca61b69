package users

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
)

// ErrLoginAlreadyExists is returned on creation when the login is already taken by another user
var ErrLoginAlreadyExists = errors.New("login already exists")

// Repository abstracts the storage of user accounts. Authenticate checks a
// clear password against the stored hash without ever returning it; passwords
// only travel through Create and UpdatePassword.
type Repository interface {
	Authenticate(login string, password string) (User, bool, error)
	Get(userUUID uuid.UUID) (User, bool, error)
	GetByLogin(login string) (User, bool, error)
	List(options dbutils.DBQueryOptionnal) ([]User, error)
	Create(user UserWithPassword) (uuid.UUID, error)
	Update(user User) error
	UpdatePassword(userUUID uuid.UUID, password string) error
	Delete(userUUID uuid.UUID) error
}

var (
	_globalRepositoryMu sync.RWMutex
	_globalRepository   Repository
)

// R is used to access the global user repository singleton
func R() Repository {
	_globalRepositoryMu.RLock()
	defer _globalRepositoryMu.RUnlock()

	return _globalRepository
}

// ReplaceGlobals affects a new repository to the global user repository
// singleton, and returns a function restoring the previous one
func ReplaceGlobals(repository Repository) func() {
	_globalRepositoryMu.Lock()
	defer _globalRepositoryMu.Unlock()

	prev := _globalRepository
	_globalRepository = repository
	return func() { ReplaceGlobals(prev) }
}
