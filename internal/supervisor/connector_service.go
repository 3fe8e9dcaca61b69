package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lucinametrics/lucina-service-api/v5/internal/connector"
)

// ConnectorService is a supervised service owning a database and a cache capability.
// Its status field is guarded by a mutex since the HTTP surface reads and drives
// the lifecycle concurrently.
type ConnectorService struct {
	def      Definition
	config   Config
	database connector.Database
	cache    connector.Cache
	logger   *zap.Logger

	mu        sync.RWMutex
	status    Status
	startedAt time.Time
	listener  TransitionListener
}

// NewConnectorService returns a new stopped instance of ConnectorService
func NewConnectorService(config Config, database connector.Database, cache connector.Cache) *ConnectorService {
	logger := zap.L().With(zap.String("service", config.Name))
	if config.LogLevel != "" {
		if level, err := zapcore.ParseLevel(config.LogLevel); err == nil {
			logger = logger.WithOptions(zap.IncreaseLevel(level))
		}
	}

	return &ConnectorService{
		def: Definition{
			ID:       uuid.New(),
			Name:     config.Name,
			Type:     "connector",
			Port:     config.Port,
			LogLevel: config.LogLevel,
		},
		config:   config,
		database: database,
		cache:    cache,
		logger:   logger,
		status:   Stopped,
	}
}

// GetDefinition returns the service definition
func (s *ConnectorService) GetDefinition() Definition {
	return s.def
}

// SetTransitionListener registers the listener receiving every status change of the service
func (s *ConnectorService) SetTransitionListener(listener TransitionListener) {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
}

// GetStatus returns a snapshot of the service state.
// The uptime is 0 until the service reaches the running status.
func (s *ConnectorService) GetStatus() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := float64(0)
	if s.status == Running && !s.startedAt.IsZero() {
		uptime = time.Since(s.startedAt).Seconds()
	}
	return Snapshot{
		Name:    s.def.Name,
		Status:  s.status,
		Uptime:  uptime,
		Version: Version,
	}
}

// Start drives the service from stopped to running, connecting the database capability on the way.
// Any failure flips the service to the error status and is returned wrapped to the caller.
func (s *ConnectorService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status != Stopped && s.status != Error {
		s.mu.Unlock()
		return fmt.Errorf("cannot start service %s in status %s: %w", s.def.Name, s.status, ErrAlreadyRunning)
	}
	transition := s.setStatusLocked(Starting, "")
	s.mu.Unlock()
	s.emit(transition)

	s.logger.Info("Starting service")

	if s.database != nil {
		if err := s.database.Connect(ctx); err != nil {
			wrapped := fmt.Errorf("service %s database connect: %w", s.def.Name, err)
			s.fail(wrapped)
			return wrapped
		}
	}

	s.mu.Lock()
	transition = s.setStatusLocked(Running, "")
	s.startedAt = time.Now()
	s.mu.Unlock()
	s.emit(transition)

	s.logger.Info("Service started", zap.Int("port", s.def.Port))
	return nil
}

// Stop drives the service from running to stopped, closing the database capability on the way.
// Any failure flips the service to the error status and is returned wrapped to the caller.
func (s *ConnectorService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.status != Running {
		s.mu.Unlock()
		return fmt.Errorf("cannot stop service %s in status %s: %w", s.def.Name, s.status, ErrNotRunning)
	}
	transition := s.setStatusLocked(Stopping, "")
	s.mu.Unlock()
	s.emit(transition)

	s.logger.Info("Stopping service")

	if s.database != nil {
		if err := s.database.Close(); err != nil {
			wrapped := fmt.Errorf("service %s database close: %w", s.def.Name, err)
			s.fail(wrapped)
			return wrapped
		}
	}

	s.mu.Lock()
	transition = s.setStatusLocked(Stopped, "")
	s.startedAt = time.Time{}
	s.mu.Unlock()
	s.emit(transition)

	s.logger.Info("Service stopped")
	return nil
}

// Restart stops the service when it is running, then starts it again
func (s *ConnectorService) Restart(ctx context.Context) error {
	if s.GetStatus().Status == Running {
		if err := s.Stop(ctx); err != nil {
			return err
		}
	}
	return s.Start(ctx)
}

// HealthCheck verifies the service is running and that its capabilities still reach their backend
func (s *ConnectorService) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()

	if status != Running {
		return fmt.Errorf("service %s health check: %w", s.def.Name, ErrNotRunning)
	}

	if s.database != nil {
		if pinger, ok := s.database.(connector.Pinger); ok {
			if err := pinger.Ping(ctx); err != nil {
				return fmt.Errorf("service %s database health check: %w", s.def.Name, err)
			}
		}
	}
	if s.cache != nil {
		if pinger, ok := s.cache.(connector.Pinger); ok {
			if err := pinger.Ping(ctx); err != nil {
				return fmt.Errorf("service %s cache health check: %w", s.def.Name, err)
			}
		}
	}
	return nil
}

// fail flips the service to the error status, keeping the cause as transition message
func (s *ConnectorService) fail(err error) {
	s.mu.Lock()
	transition := s.setStatusLocked(Error, err.Error())
	s.startedAt = time.Time{}
	s.mu.Unlock()
	s.emit(transition)

	s.logger.Error("Service failure", zap.Error(err))
}

// setStatusLocked mutates the status field and builds the resulting transition.
// The caller must hold the write lock.
func (s *ConnectorService) setStatusLocked(to Status, message string) Transition {
	from := s.status
	s.status = to
	return Transition{
		ServiceID:   s.def.ID,
		ServiceName: s.def.Name,
		FromStatus:  from,
		ToStatus:    to,
		Message:     message,
		OccurredAt:  time.Now().UTC(),
	}
}

// emit notifies the transition listener outside of the status lock
func (s *ConnectorService) emit(transition Transition) {
	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()

	if listener != nil {
		listener(transition)
	}
}
