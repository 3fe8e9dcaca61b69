package rule

import (
	"errors"
	"time"

	"github.com/PaesslerAG/gval"
)

// Rule is an alert rule evaluated against every service snapshot.
// Its expression must be a boolean gval expression over the snapshot
// environment (name, status, healthy, uptime, version).
type Rule struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Expression   string    `json:"expression"`
	Enabled      bool      `json:"enabled"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"lastModified"`
}

// IsValid checks if a rule definition is valid and has no missing mandatory fields
// * Name must not be empty
// * Expression must not be empty
// * Expression must be a parseable gval expression
func (r *Rule) IsValid() (bool, error) {
	if r.Name == "" {
		return false, errors.New("missing Name")
	}
	if r.Expression == "" {
		return false, errors.New("missing Expression")
	}
	if _, err := gval.Full().NewEvaluable(r.Expression); err != nil {
		return false, errors.New("invalid Expression: " + err.Error())
	}
	return true, nil
}
