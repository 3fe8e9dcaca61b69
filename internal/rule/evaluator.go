package rule

import (
	"fmt"

	"github.com/PaesslerAG/gval"
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"go.uber.org/zap"
)

// Environment builds the expression environment of a single service snapshot
func Environment(snapshot supervisor.Snapshot, healthy bool) map[string]interface{} {
	return map[string]interface{}{
		"name":    snapshot.Name,
		"status":  snapshot.Status.String(),
		"healthy": healthy,
		"uptime":  snapshot.Uptime,
		"version": snapshot.Version,
	}
}

// Evaluate runs a single rule expression against the input environment.
// A result which is not a boolean is an error.
func Evaluate(r Rule, env map[string]interface{}) (bool, error) {
	result, err := gval.Evaluate(r.Expression, env)
	if err != nil {
		return false, fmt.Errorf("rule %s evaluation: %w", r.Name, err)
	}
	match, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("rule %s evaluation: result is not a boolean (got %T)", r.Name, result)
	}
	return match, nil
}

// EvaluateAll runs every input rule against the environment and returns the matching ones.
// A rule failing to evaluate is logged and skipped, it never blocks the other rules.
func EvaluateAll(rules []Rule, env map[string]interface{}) []Rule {
	matched := make([]Rule, 0)
	for _, r := range rules {
		match, err := Evaluate(r, env)
		if err != nil {
			zap.L().Warn("Rule evaluation", zap.String("rule", r.Name), zap.Error(err))
			continue
		}
		if match {
			matched = append(matched, r)
		}
	}
	return matched
}
