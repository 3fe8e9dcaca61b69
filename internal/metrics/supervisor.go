package metrics

import (
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
)

var (
	serviceStatusGauge     *stdprometheus.GaugeVec
	serviceHealthGauge     *stdprometheus.GaugeVec
	serviceTransitionCount *stdprometheus.CounterVec
)

func newSupervisorCollectors() []stdprometheus.Collector {
	serviceStatusGauge = stdprometheus.NewGaugeVec(stdprometheus.GaugeOpts{
		Namespace:   MetricNamespace,
		Subsystem:   "supervisor",
		ConstLabels: MetricPrometheusLabels,
		Name:        "service_status",
		Help:        "Current lifecycle status of a supervised service (1 on the active status, 0 elsewhere)",
	}, []string{"service", "status"})

	serviceHealthGauge = stdprometheus.NewGaugeVec(stdprometheus.GaugeOpts{
		Namespace:   MetricNamespace,
		Subsystem:   "supervisor",
		ConstLabels: MetricPrometheusLabels,
		Name:        "service_healthy",
		Help:        "Result of the last health check of a supervised service (1 healthy, 0 unhealthy)",
	}, []string{"service"})

	serviceTransitionCount = stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace:   MetricNamespace,
		Subsystem:   "supervisor",
		ConstLabels: MetricPrometheusLabels,
		Name:        "service_transitions_total",
		Help:        "Total number of status transitions of a supervised service",
	}, []string{"service", "to_status"})

	return []stdprometheus.Collector{serviceStatusGauge, serviceHealthGauge, serviceTransitionCount}
}

// RecordTransition updates the status gauges and the transition counter of a service.
// It is registered as a transition sink on the service manager.
func RecordTransition(transition supervisor.Transition) {
	if serviceStatusGauge == nil {
		return
	}
	for _, status := range supervisor.AllStatuses() {
		value := float64(0)
		if status == transition.ToStatus {
			value = 1
		}
		serviceStatusGauge.WithLabelValues(transition.ServiceName, status.String()).Set(value)
	}
	serviceTransitionCount.WithLabelValues(transition.ServiceName, transition.ToStatus.String()).Inc()
}

// SetServiceHealth records the result of a service health check
func SetServiceHealth(serviceName string, healthy bool) {
	if serviceHealthGauge == nil {
		return
	}
	value := float64(0)
	if healthy {
		value = 1
	}
	serviceHealthGauge.WithLabelValues(serviceName).Set(value)
}
