package apikey

import (
	"sync"

	"github.com/google/uuid"
)

// Repository abstracts the storage of API keys. Validate is the hot path,
// called by the authentication middleware: it resolves a clear key value to
// its stored hash and reports whether the key is active and not expired.
type Repository interface {
	Get(keyUUID uuid.UUID) (APIKey, bool, error)
	GetAll() ([]APIKey, error)
	Create(key APIKey) (uuid.UUID, error)
	Update(key APIKey) error
	Delete(keyUUID uuid.UUID) error
	Deactivate(keyUUID uuid.UUID) error
	Validate(keyValue string) (APIKey, bool, error)
}

var (
	_globalRepositoryMu sync.RWMutex
	_globalRepository   Repository
)

// R is used to access the global API key repository singleton
func R() Repository {
	_globalRepositoryMu.RLock()
	defer _globalRepositoryMu.RUnlock()

	return _globalRepository
}

// ReplaceGlobals affects a new repository to the global API key repository
// singleton, and returns a function restoring the previous one
func ReplaceGlobals(repository Repository) func() {
	_globalRepositoryMu.Lock()
	defer _globalRepositoryMu.Unlock()

	prev := _globalRepository
	_globalRepository = repository
	return func() { ReplaceGlobals(prev) }
}
