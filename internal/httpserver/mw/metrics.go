package mw

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/mimic/internal/httpserver/routes"
	"github.com/MrSnakeDoc/mimic/internal/metrics"
)

// Metrics observes the handling time of each request, labelled by kind.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			kind := routes.KindInvoke
			if route, ok := routes.FromContext(r.Context()); ok {
				kind = route.Kind
			}
			m.RequestDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
		})
	}
}
