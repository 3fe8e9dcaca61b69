package notification

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Level values carried by a notification
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notification is anything the notifier can push to a connected client
type Notification interface {
	ToBytes() ([]byte, error)
}

// BaseNotification carries the fields shared by every notification type
type BaseNotification struct {
	Type         string    `json:"type"`
	Level        string    `json:"level"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	CreationDate time.Time `json:"creationDate"`
}

// NewBaseNotification returns a new instance of a BaseNotification
func NewBaseNotification(level string, title string, description string) BaseNotification {
	return BaseNotification{
		Type:         "BaseNotification",
		Level:        level,
		Title:        title,
		Description:  description,
		CreationDate: time.Now().UTC(),
	}
}

// ToBytes renders the notification as the JSON payload pushed on the wire
func (n BaseNotification) ToBytes() ([]byte, error) {
	b, err := jsoniter.Marshal(n)
	if err != nil {
		return nil, err
	}
	return b, nil
}
