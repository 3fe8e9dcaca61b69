package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
)

// Repository abstracts the storage of service status transition records.
// Records are append-only: they are created by the transition recorder and
// trimmed by the purge job, never updated.
type Repository interface {
	Get(id int64) (Record, bool, error)
	GetAll(options dbutils.DBQueryOptionnal) ([]Record, error)
	GetAllByServiceID(serviceID uuid.UUID, options dbutils.DBQueryOptionnal) ([]Record, error)
	Create(record Record) (int64, error)
	PurgeOlderThan(maxAge time.Duration) (int64, error)
}

var (
	_globalRepositoryMu sync.RWMutex
	_globalRepository   Repository
)

// R is used to access the global history repository singleton
func R() Repository {
	_globalRepositoryMu.RLock()
	defer _globalRepositoryMu.RUnlock()

	return _globalRepository
}

// ReplaceGlobals affects a new repository to the global history repository
// singleton, and returns a function restoring the previous one
func ReplaceGlobals(repository Repository) func() {
	_globalRepositoryMu.Lock()
	defer _globalRepositoryMu.Unlock()

	prev := _globalRepository
	_globalRepository = repository
	return func() { ReplaceGlobals(prev) }
}
