package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Kind is what a request asks the server to do.
type Kind int

const (
	KindInvoke Kind = iota
	KindAdd
	KindQuery
	KindDelete
	KindDeleteAll
	KindHealthz
	KindReadyz
	KindInfra
	KindMetrics
	KindSeedReload
)

var kindNames = [...]string{
	KindInvoke:     "invoke",
	KindAdd:        "add",
	KindQuery:      "query",
	KindDelete:     "delete",
	KindDeleteAll:  "delete_all",
	KindHealthz:    "healthz",
	KindReadyz:     "readyz",
	KindInfra:      "infra",
	KindMetrics:    "metrics",
	KindSeedReload: "seed_reload",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Route is a classified request. ServiceID is set for KindQuery and
// KindDelete only.
type Route struct {
	Kind      Kind
	ServiceID uuid.UUID
}

// Classifier maps requests to routes. Paths under the admin prefix are
// matched case-insensitively; anything unrecognized is an invocation.
type Classifier struct {
	prefix string
}

// NewClassifier creates a classifier for admin paths under prefix (ex: "/__vs").
func NewClassifier(prefix string) Classifier {
	return Classifier{prefix: strings.ToLower(prefix)}
}

// Prefix returns the admin prefix, lower-cased.
func (c Classifier) Prefix() string {
	return c.prefix
}

// Classify computes the route of a request from its method and path.
func (c Classifier) Classify(method, path string) Route {
	invoke := Route{Kind: KindInvoke}

	if len(path) < len(c.prefix) || !strings.EqualFold(path[:len(c.prefix)], c.prefix) {
		return invoke
	}
	rest := path[len(c.prefix):]
	lower := strings.ToLower(rest)

	is := func(m string) bool { return strings.EqualFold(method, m) }

	switch lower {
	case "/services":
		switch {
		case is(http.MethodPost):
			return Route{Kind: KindAdd}
		case is(http.MethodDelete):
			return Route{Kind: KindDeleteAll}
		}
		return invoke
	case "/healthz":
		return adminGet(is, KindHealthz)
	case "/readyz":
		return adminGet(is, KindReadyz)
	case "/infra":
		return adminGet(is, KindInfra)
	case "/metrics":
		return adminGet(is, KindMetrics)
	case "/seed/reload":
		if is(http.MethodPost) {
			return Route{Kind: KindSeedReload}
		}
		return invoke
	}

	if !strings.HasPrefix(lower, "/services/") {
		return invoke
	}
	id, err := uuid.Parse(rest[len("/services/"):])
	if err != nil {
		return invoke
	}
	switch {
	case is(http.MethodGet):
		return Route{Kind: KindQuery, ServiceID: id}
	case is(http.MethodDelete):
		return Route{Kind: KindDelete, ServiceID: id}
	}
	return invoke
}

func adminGet(is func(string) bool, kind Kind) Route {
	if is(http.MethodGet) {
		return Route{Kind: kind}
	}
	return Route{Kind: KindInvoke}
}

type routeKey struct{}

// WithRoute stores route in ctx.
func WithRoute(ctx context.Context, route Route) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// FromContext returns the route stored by WithRoute.
func FromContext(ctx context.Context) (Route, bool) {
	route, ok := ctx.Value(routeKey{}).(Route)
	return route, ok
}
