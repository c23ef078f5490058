package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/teilomillet/callbridge/server/metrics"
)

// PrometheusMetrics middleware records HTTP metrics using Prometheus.
// Endpoints are labeled by chi route pattern to keep cardinality bounded;
// unmatched paths share the "unmatched" label.
func PrometheusMetrics(m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.ActiveRequests.WithLabelValues("all").Inc()
			defer m.ActiveRequests.WithLabelValues("all").Dec()

			rw := NewResponseWriter(w)
			next.ServeHTTP(rw, r)

			endpoint := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					endpoint = pattern
				}
			}

			status := rw.Status()
			m.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

			switch {
			case status >= 500:
				m.ErrorsTotal.WithLabelValues("server_error").Inc()
			case status >= 400:
				m.ErrorsTotal.WithLabelValues("client_error").Inc()
			}
		})
	}
}
