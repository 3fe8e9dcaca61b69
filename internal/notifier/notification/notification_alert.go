package notification

import (
	jsoniter "github.com/json-iterator/go"
)

// AlertNotification is sent to connected clients when an alerting rule matches a service environment
type AlertNotification struct {
	BaseNotification
	RuleID      int64                  `json:"ruleId"`
	RuleName    string                 `json:"ruleName"`
	ServiceName string                 `json:"serviceName"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// NewAlertNotification renders a new AlertNotification instance
func NewAlertNotification(ruleID int64, ruleName string, serviceName string, description string, context map[string]interface{}) AlertNotification {
	base := NewBaseNotification(LevelWarning, "Alert: "+ruleName, description)
	base.Type = "AlertNotification"
	return AlertNotification{
		BaseNotification: base,
		RuleID:           ruleID,
		RuleName:         ruleName,
		ServiceName:      serviceName,
		Context:          context,
	}
}

// ToBytes renders the notification as the JSON payload pushed on the wire
func (n AlertNotification) ToBytes() ([]byte, error) {
	b, err := jsoniter.Marshal(n)
	if err != nil {
		return nil, err
	}
	return b, nil
}
