package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/mimic/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mimic/internal/httpserver/handlers"
)

// Mount routes every request through one dispatcher. Admin paths cannot be
// expressed as chi patterns because they are case-insensitive and fall back
// to invocation, so the dispatcher switches on the classified route instead.
func Mount(r chi.Router, d deps.Deps, c Classifier) {
	h := Dispatcher(d, c)
	r.Handle("/", h)
	r.Handle("/*", h)
}

// Dispatcher returns the handler serving every route kind. It uses the route
// stored in the request context, classifying the request itself when absent.
func Dispatcher(d deps.Deps, c Classifier) http.HandlerFunc {
	var (
		add        = handlers.AddService(d)
		query      = handlers.QueryService(d)
		del        = handlers.DeleteService(d)
		deleteAll  = handlers.DeleteAllServices(d)
		invoke     = handlers.InvokeService(d)
		healthz    = handlers.Healthz(d)
		readyz     = handlers.Readyz(d)
		infra      = handlers.Infra(d)
		seedReload = handlers.SeedReload(d)
	)
	var metrics http.Handler = invoke
	if d.Metrics != nil {
		metrics = d.Metrics.Handler()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		route, ok := FromContext(r.Context())
		if !ok {
			route = c.Classify(r.Method, r.URL.Path)
		}

		switch route.Kind {
		case KindAdd:
			add(w, r)
		case KindQuery:
			query(w, r, route.ServiceID)
		case KindDelete:
			del(w, r, route.ServiceID)
		case KindDeleteAll:
			deleteAll(w, r)
		case KindHealthz:
			healthz(w, r)
		case KindReadyz:
			readyz(w, r)
		case KindInfra:
			infra(w, r)
		case KindMetrics:
			metrics.ServeHTTP(w, r)
		case KindSeedReload:
			seedReload(w, r)
		default:
			invoke(w, r)
		}
	}
}
