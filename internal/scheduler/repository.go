package scheduler

import (
	"sync"
)

// Repository abstracts the storage of job schedules. The postgresql
// implementation is the production backend, tests may swap in lighter ones.
type Repository interface {
	Get(id int64) (InternalSchedule, bool, error)
	GetAll() (map[int64]InternalSchedule, error)
	Create(schedule InternalSchedule) (int64, error)
	Update(schedule InternalSchedule) error
	Delete(id int64) error
}

var (
	_globalRepositoryMu sync.RWMutex
	_globalRepository   Repository
)

// R is used to access the global schedule repository singleton
func R() Repository {
	_globalRepositoryMu.RLock()
	defer _globalRepositoryMu.RUnlock()

	return _globalRepository
}

// ReplaceGlobalRepository affects a new repository to the global schedule
// repository singleton, and returns a function restoring the previous one
func ReplaceGlobalRepository(repository Repository) func() {
	_globalRepositoryMu.Lock()
	defer _globalRepositoryMu.Unlock()

	prev := _globalRepository
	_globalRepository = repository
	return func() { ReplaceGlobalRepository(prev) }
}
