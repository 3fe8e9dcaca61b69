package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestDuration *stdprometheus.HistogramVec
)

func newHTTPCollectors() []stdprometheus.Collector {
	httpRequestDuration = stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace:   MetricNamespace,
		Subsystem:   "http",
		ConstLabels: MetricPrometheusLabels,
		Name:        "request_duration_seconds",
		Help:        "Duration of the handled HTTP requests, partitioned by method, route pattern and status code",
	}, []string{"method", "route", "status"})

	return []stdprometheus.Collector{httpRequestDuration}
}

// MustRegister builds and registers every collector of the binary on the default
// prometheus registry. It must be called once, after InitMetricLabels.
func MustRegister() {
	registerOnce.Do(func() {
		collectors := newSupervisorCollectors()
		collectors = append(collectors, newHTTPCollectors()...)
		stdprometheus.MustRegister(collectors...)
	})
}

// ObserveHTTPRequest records the duration of a single handled HTTP request
func ObserveHTTPRequest(method string, route string, status int, seconds float64) {
	if httpRequestDuration == nil {
		return
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

// Middleware instruments every handled request with the http metrics.
// The route label is the chi route pattern, not the raw path, to keep the cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if ctx := chi.RouteContext(r.Context()); ctx != nil && ctx.RoutePattern() != "" {
			route = ctx.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, route, ww.Status(), time.Since(start).Seconds())
	})
}
