package rule

import (
	"sync"
)

// Repository abstracts the storage of alerting rules.
// Reads split between unitary lookups and the listing calls the evaluation
// engine relies on (GetAllEnabled feeds the healthcheck job).
type Repository interface {
	Get(id int64) (Rule, bool, error)
	GetByName(name string) (Rule, bool, error)
	CheckByName(name string) (bool, error)
	GetAll() (map[int64]Rule, error)
	GetAllEnabled() ([]Rule, error)
	Create(rule Rule) (int64, error)
	Update(rule Rule) error
	Delete(id int64) error
}

var (
	_globalRepositoryMu sync.RWMutex
	_globalRepository   Repository
)

// R is used to access the global rule repository singleton
func R() Repository {
	_globalRepositoryMu.RLock()
	defer _globalRepositoryMu.RUnlock()

	return _globalRepository
}

// ReplaceGlobals affects a new repository to the global rule repository
// singleton, and returns a function restoring the previous one
func ReplaceGlobals(repository Repository) func() {
	_globalRepositoryMu.Lock()
	defer _globalRepositoryMu.Unlock()

	prev := _globalRepository
	_globalRepository = repository
	return func() { ReplaceGlobals(prev) }
}
