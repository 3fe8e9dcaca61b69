package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Version is the application version reported in every service snapshot, set at startup
var Version = "development"

var (
	// ErrAlreadyRunning is returned when Start is called on a service which is not stopped
	ErrAlreadyRunning = errors.New("service is already running")
	// ErrNotRunning is returned when Stop or HealthCheck is called on a service which is not running
	ErrNotRunning = errors.New("service is not running")
)

// Definition identifies a supervised service
type Definition struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Port     int       `json:"port"`
	LogLevel string    `json:"logLevel,omitempty"`
}

// Snapshot is the public state of a service at a point in time.
// Uptime is expressed in seconds and stays at 0 until the service is running.
type Snapshot struct {
	Name    string  `json:"name"`
	Status  Status  `json:"status"`
	Uptime  float64 `json:"uptime"`
	Version string  `json:"version"`
}

// Transition describes a single status change of a supervised service
type Transition struct {
	ServiceID   uuid.UUID `json:"serviceId"`
	ServiceName string    `json:"serviceName"`
	FromStatus  Status    `json:"fromStatus"`
	ToStatus    Status    `json:"toStatus"`
	Message     string    `json:"message,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// TransitionListener receives every status change of a supervised service
type TransitionListener func(transition Transition)

// Service is a supervised component with an explicit lifecycle
type Service interface {
	GetDefinition() Definition
	GetStatus() Snapshot
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	SetTransitionListener(listener TransitionListener)
}
