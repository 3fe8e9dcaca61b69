package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
)

func TestRecordTransition(t *testing.T) {
	MustRegister()

	RecordTransition(supervisor.Transition{
		ServiceName: "billing",
		FromStatus:  supervisor.Starting,
		ToStatus:    supervisor.Running,
	})

	if v := testutil.ToFloat64(serviceStatusGauge.WithLabelValues("billing", "RUNNING")); v != 1 {
		t.Errorf("expected RUNNING gauge to be 1, got %f", v)
	}
	if v := testutil.ToFloat64(serviceStatusGauge.WithLabelValues("billing", "STOPPED")); v != 0 {
		t.Errorf("expected STOPPED gauge to be 0, got %f", v)
	}
	if v := testutil.ToFloat64(serviceTransitionCount.WithLabelValues("billing", "RUNNING")); v != 1 {
		t.Errorf("expected transition counter to be 1, got %f", v)
	}
}

func TestSetServiceHealth(t *testing.T) {
	MustRegister()

	SetServiceHealth("billing", true)
	if v := testutil.ToFloat64(serviceHealthGauge.WithLabelValues("billing")); v != 1 {
		t.Errorf("expected health gauge to be 1, got %f", v)
	}

	SetServiceHealth("billing", false)
	if v := testutil.ToFloat64(serviceHealthGauge.WithLabelValues("billing")); v != 0 {
		t.Errorf("expected health gauge to be 0, got %f", v)
	}
}
