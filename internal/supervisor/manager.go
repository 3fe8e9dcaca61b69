package supervisor

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/connector"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/postgres"
)

var (
	_globalManagerMu sync.RWMutex
	_globalManager   *Manager
)

// M is used to access the global service manager singleton
func M() *Manager {
	_globalManagerMu.RLock()
	defer _globalManagerMu.RUnlock()
	return _globalManager
}

// ReplaceGlobals affect a new manager to the global service manager singleton
func ReplaceGlobals(manager *Manager) func() {
	_globalManagerMu.Lock()
	defer _globalManagerMu.Unlock()

	prev := _globalManager
	_globalManager = manager
	return func() { ReplaceGlobals(prev) }
}

// Manager supervises every registered service and fans their status transitions
// out to the registered sinks (history, notifications, metrics, exporters)
type Manager struct {
	mu       sync.RWMutex
	services map[uuid.UUID]Service
	sinks    []TransitionListener
}

// NewManager returns a pointer to a new instance of Manager
func NewManager() *Manager {
	return &Manager{
		services: make(map[uuid.UUID]Service),
	}
}

// AddTransitionSink registers a sink receiving every status transition of every supervised service
func (m *Manager) AddTransitionSink(sink TransitionListener) {
	m.mu.Lock()
	m.sinks = append(m.sinks, sink)
	m.mu.Unlock()
}

func (m *Manager) handleTransition(transition Transition) {
	m.mu.RLock()
	sinks := make([]TransitionListener, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.RUnlock()

	for _, sink := range sinks {
		sink(transition)
	}
}

// Register adds a service to the manager and wires its transitions to the manager sinks
func (m *Manager) Register(service Service) {
	service.SetTransitionListener(m.handleTransition)

	m.mu.Lock()
	m.services[service.GetDefinition().ID] = service
	m.mu.Unlock()
}

// Get returns a service by its id
func (m *Manager) Get(id uuid.UUID) (Service, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	service, ok := m.services[id]
	return service, ok
}

// GetAll returns all registered services, sorted by name for a stable API output
func (m *Manager) GetAll() []Service {
	m.mu.RLock()
	services := make([]Service, 0, len(m.services))
	for _, s := range m.services {
		services = append(services, s)
	}
	m.mu.RUnlock()

	sort.Slice(services, func(i, j int) bool {
		return services[i].GetDefinition().Name < services[j].GetDefinition().Name
	})
	return services
}

// GetAllStatus returns the current snapshot of every registered service
func (m *Manager) GetAllStatus() []Snapshot {
	services := m.GetAll()
	snapshots := make([]Snapshot, 0, len(services))
	for _, service := range services {
		snapshots = append(snapshots, service.GetStatus())
	}
	return snapshots
}

// LoadServices loads the supervised service definitions from the configuration
// and registers a connector service for each of them
func (m *Manager) LoadServices() error {
	configs, err := LoadConfigs()
	if err != nil {
		return err
	}

	for _, config := range configs {
		var database connector.Database
		if config.Database != nil {
			database = connector.NewPostgresDatabase(postgres.Credentials{
				URL:      config.Database.Host,
				Port:     strconv.Itoa(config.Database.Port),
				DbName:   config.Database.DbName,
				User:     config.Database.Username,
				Password: config.Database.Password,
			})
		}

		var cache connector.Cache
		if config.Cache != nil {
			cache = connector.NewRedisCache(config.Cache.Address, config.Cache.Password, config.Cache.DB)
		}

		m.Register(NewConnectorService(config, database, cache))
		zap.L().Info("Service registered", zap.String("service", config.Name))
	}
	return nil
}

// StartAll starts every registered service, keeps going on failure and returns the joined errors
func (m *Manager) StartAll(ctx context.Context) error {
	var errs []error
	for _, service := range m.GetAll() {
		if err := service.Start(ctx); err != nil {
			zap.L().Error("Service start failed",
				zap.String("service", service.GetDefinition().Name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopAll stops every running service, keeps going on failure and returns the joined errors
func (m *Manager) StopAll(ctx context.Context) error {
	var errs []error
	for _, service := range m.GetAll() {
		if service.GetStatus().Status != Running {
			continue
		}
		if err := service.Stop(ctx); err != nil {
			zap.L().Error("Service stop failed",
				zap.String("service", service.GetDefinition().Name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
