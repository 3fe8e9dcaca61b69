package metrics

import (
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricNamespace prefixes every metric exposed by the binary
	MetricNamespace = "lucina"
	// MetricComponent identifies this binary among the platform components
	MetricComponent = "serviceapi"
)

// Hostname is the instance name carried by the shared metric labels
var Hostname = "undefined"

// MetricPrometheusLabels are the constant labels shared by every metric of the binary
var MetricPrometheusLabels = stdprometheus.Labels{"component": MetricComponent, "hostname": Hostname}

// InitMetricLabels replaces the shared constant labels.
// It must be called before the first metric registration.
func InitMetricLabels(hostname string) {
	Hostname = hostname
	MetricPrometheusLabels = stdprometheus.Labels{"component": MetricComponent, "hostname": Hostname}
}
