package rule

import (
	"testing"
)

func TestRuleIsValid(t *testing.T) {
	cases := []struct {
		name  string
		rule  Rule
		valid bool
	}{
		{"valid rule", Rule{Name: "error-status", Expression: `status == "ERROR"`}, true},
		{"valid rule with booleans", Rule{Name: "unhealthy", Expression: `healthy == false && status == "RUNNING"`}, true},
		{"missing name", Rule{Expression: `status == "ERROR"`}, false},
		{"missing expression", Rule{Name: "error-status"}, false},
		{"unparseable expression", Rule{Name: "error-status", Expression: `status ==`}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			valid, err := c.rule.IsValid()
			if valid != c.valid {
				t.Errorf("expected valid=%v, got %v (%v)", c.valid, valid, err)
			}
			if !valid && err == nil {
				t.Error("an invalid rule must come with an explanation")
			}
		})
	}
}
