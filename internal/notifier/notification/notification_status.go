package notification

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
)

// StatusChangeNotification is sent to connected clients on every supervised service status transition
type StatusChangeNotification struct {
	BaseNotification
	Transition supervisor.Transition `json:"transition"`
}

// NewStatusChangeNotification renders a new StatusChangeNotification instance from a service transition
func NewStatusChangeNotification(transition supervisor.Transition) StatusChangeNotification {
	level := LevelInfo
	if transition.ToStatus == supervisor.Error {
		level = LevelError
	}
	base := NewBaseNotification(level,
		fmt.Sprintf("Service %s is now %s", transition.ServiceName, transition.ToStatus.String()),
		transition.Message)
	base.Type = "StatusChangeNotification"
	return StatusChangeNotification{
		BaseNotification: base,
		Transition:       transition,
	}
}

// ToBytes renders the notification as the JSON payload pushed on the wire
func (n StatusChangeNotification) ToBytes() ([]byte, error) {
	b, err := jsoniter.Marshal(n)
	if err != nil {
		return nil, err
	}
	return b, nil
}
