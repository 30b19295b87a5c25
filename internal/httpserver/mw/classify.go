package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/mimic/internal/httpserver/routes"
)

// Classify computes the route of each request once and stores it in the
// request context for the handlers and middlewares that follow.
func Classify(c routes.Classifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := c.Classify(r.Method, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(routes.WithRoute(r.Context(), route)))
		})
	}
}
