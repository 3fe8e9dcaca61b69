package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
)

// Record is a single persisted service status transition
type Record struct {
	ID          int64             `json:"id"`
	ServiceID   uuid.UUID         `json:"serviceId"`
	ServiceName string            `json:"serviceName"`
	FromStatus  supervisor.Status `json:"fromStatus"`
	ToStatus    supervisor.Status `json:"toStatus"`
	Message     string            `json:"message,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

// NewRecord builds a Record from a service status transition
func NewRecord(transition supervisor.Transition) Record {
	return Record{
		ServiceID:   transition.ServiceID,
		ServiceName: transition.ServiceName,
		FromStatus:  transition.FromStatus,
		ToStatus:    transition.ToStatus,
		Message:     transition.Message,
		OccurredAt:  transition.OccurredAt,
	}
}
