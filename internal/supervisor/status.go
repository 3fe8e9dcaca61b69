package supervisor

import (
	"bytes"
	"encoding/json"
)

// Status represents the lifecycle state of a supervised service
type Status int

const (
	// Stopped is the initial and final lifecycle state of a service
	Stopped Status = iota
	// Starting is the transient state between Stopped and Running
	Starting
	// Running is the nominal state of a started service
	Running
	// Stopping is the transient state between Running and Stopped
	Stopping
	// Error is the terminal state of a failed start or stop
	Error
)

func (s Status) String() string {
	if status, ok := statusToString[s]; ok {
		return status
	}
	return ""
}

// ToStatus get the Status from its string representation
func ToStatus(s string) Status {
	if status, ok := statusToID[s]; ok {
		return status
	}
	return Stopped
}

// AllStatuses lists every defined lifecycle status
func AllStatuses() []Status {
	return []Status{Stopped, Starting, Running, Stopping, Error}
}

var statusToString = map[Status]string{
	Stopped:  "STOPPED",
	Starting: "STARTING",
	Running:  "RUNNING",
	Stopping: "STOPPING",
	Error:    "ERROR",
}

var statusToID = map[string]Status{
	"STOPPED":  Stopped,
	"STARTING": Starting,
	"RUNNING":  Running,
	"STOPPING": Stopping,
	"ERROR":    Error,
}

// MarshalJSON marshals the enum as a quoted json string
func (s Status) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString(`"`)
	buffer.WriteString(statusToString[s])
	buffer.WriteString(`"`)
	return buffer.Bytes(), nil
}

// UnmarshalJSON unmashals a quoted json string to the enum value
func (s *Status) UnmarshalJSON(b []byte) error {
	var j string
	err := json.Unmarshal(b, &j)
	if err != nil {
		return err
	}
	// Note that if the string cannot be found then it will be set to the zero value, 'Stopped' in this case.
	*s = statusToID[j]
	return nil
}
