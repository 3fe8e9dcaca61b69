package rule

import (
	"testing"

	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
)

func TestEnvironment(t *testing.T) {
	snapshot := supervisor.Snapshot{
		Name:    "billing",
		Status:  supervisor.Running,
		Uptime:  42.5,
		Version: "5.0.0",
	}
	env := Environment(snapshot, true)

	if env["name"] != "billing" {
		t.Errorf("expected name billing, got %v", env["name"])
	}
	if env["status"] != "RUNNING" {
		t.Errorf("expected status RUNNING, got %v", env["status"])
	}
	if env["healthy"] != true {
		t.Errorf("expected healthy true, got %v", env["healthy"])
	}
	if env["uptime"] != 42.5 {
		t.Errorf("expected uptime 42.5, got %v", env["uptime"])
	}
	if env["version"] != "5.0.0" {
		t.Errorf("expected version 5.0.0, got %v", env["version"])
	}
}

func TestEvaluate(t *testing.T) {
	env := Environment(supervisor.Snapshot{Name: "billing", Status: supervisor.Error}, false)

	match, err := Evaluate(Rule{Name: "error-status", Expression: `status == "ERROR"`}, env)
	if err != nil {
		t.Error(err)
	}
	if !match {
		t.Error("expected the rule to match an errored service")
	}

	match, err = Evaluate(Rule{Name: "running", Expression: `status == "RUNNING"`}, env)
	if err != nil {
		t.Error(err)
	}
	if match {
		t.Error("expected the rule not to match an errored service")
	}
}

func TestEvaluateNotABoolean(t *testing.T) {
	env := Environment(supervisor.Snapshot{Name: "billing", Uptime: 10}, true)

	_, err := Evaluate(Rule{Name: "uptime-sum", Expression: `uptime + 1`}, env)
	if err == nil {
		t.Error("expected an error on a non-boolean expression result")
	}
}

func TestEvaluateAll(t *testing.T) {
	env := Environment(supervisor.Snapshot{Name: "billing", Status: supervisor.Running, Uptime: 120}, false)

	rules := []Rule{
		{ID: 1, Name: "unhealthy", Expression: `healthy == false`},
		{ID: 2, Name: "error-status", Expression: `status == "ERROR"`},
		{ID: 3, Name: "broken", Expression: `uptime + 1`},
		{ID: 4, Name: "long-running-unhealthy", Expression: `healthy == false && uptime > 60`},
	}

	matched := EvaluateAll(rules, env)
	if len(matched) != 2 {
		t.Fatalf("expected 2 matching rules, got %d", len(matched))
	}
	if matched[0].ID != 1 || matched[1].ID != 4 {
		t.Errorf("expected rules 1 and 4 to match, got %d and %d", matched[0].ID, matched[1].ID)
	}
}
