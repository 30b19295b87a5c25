// Package engine exposes the operations of the stub server: add, query,
// delete, delete-all and invoke. It glues the description parser to the
// registry and reports every outcome to logs, metrics and the event feed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/mimic/internal/domain"
	"github.com/MrSnakeDoc/mimic/internal/events"
	"github.com/MrSnakeDoc/mimic/internal/logger"
	"github.com/MrSnakeDoc/mimic/internal/metrics"
	"github.com/MrSnakeDoc/mimic/internal/parser"
	"github.com/MrSnakeDoc/mimic/internal/registry"
)

var (
	// ErrNotFound is returned when no service has the requested identity or
	// matches the invoked request.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateService is returned by AddService when the registry already
	// holds a service with the same identity or the same request filter.
	ErrDuplicateService = errors.New("unable to add service: a service with the same ID or the same request filter already exists")
)

const (
	missingMethod = "an HTTP method, i.e. GET, POST, PUT, DELETE, etc., must be provided"
	missingPath   = "a path must be provided, for example /api/myResources/53"
)

// Engine runs the operations against one registry. It is safe for concurrent
// use.
type Engine struct {
	registry *registry.Registry
	parser   *parser.Parser
	logger   logger.Logger
	metrics  *metrics.Metrics
	events   events.Publisher
	now      func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetrics records operation outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithEvents publishes registry changes and invocations to p.
func WithEvents(p events.Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.events = p
		}
	}
}

// New creates an engine over reg.
func New(reg *registry.Registry, log logger.Logger, opts ...Option) *Engine {
	if reg == nil {
		panic("engine: nil registry")
	}
	if log == nil {
		log = logger.NewNop()
	}

	e := &Engine{
		registry: reg,
		parser:   parser.New(),
		logger:   log.With(logger.String("component", "engine")),
		events:   events.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ──────────────────────────────
// Operations
// ──────────────────────────────

// AddService parses a description from body, builds the service and
// registers it. body is always closed.
func (e *Engine) AddService(ctx context.Context, body io.ReadCloser) (uuid.UUID, error) {
	if body == nil {
		panic("engine: nil description body")
	}

	desc, err := e.parser.Parse(body)
	if err != nil {
		e.countOperation("add", metrics.OutcomeInvalid)
		return uuid.Nil, err
	}
	return e.AddDescription(ctx, desc)
}

// AddDescription registers an already parsed description.
func (e *Engine) AddDescription(ctx context.Context, desc *domain.ServiceDescription) (uuid.UUID, error) {
	if desc == nil {
		panic("engine: nil service description")
	}

	svc, err := buildService(desc)
	if err != nil {
		e.countOperation("add", metrics.OutcomeInvalid)
		return uuid.Nil, err
	}

	if !e.registry.TryAdd(svc) {
		e.countOperation("add", metrics.OutcomeDuplicate)
		e.logger.Info("service rejected as duplicate",
			logger.Stringer("service_id", svc.ID()),
			logger.String("method", svc.Method()),
			logger.String("path", svc.Path()))
		return uuid.Nil, ErrDuplicateService
	}

	e.countOperation("add", metrics.OutcomeOK)
	e.refreshGauge()
	e.logger.Info("service added",
		logger.Stringer("service_id", svc.ID()),
		logger.String("method", svc.Method()),
		logger.String("path", svc.Path()),
		logger.Int("status_code", svc.Response().StatusCode))
	e.publish(ctx, events.Event{
		Kind:      events.KindAdded,
		ServiceID: svc.ID(),
		Method:    svc.Method(),
		Path:      svc.Path(),
	})

	return svc.ID(), nil
}

// QueryService returns the call statistics of the service with the given
// identity.
func (e *Engine) QueryService(_ context.Context, id uuid.UUID) (domain.Stats, error) {
	svc, ok := e.registry.TryGetByID(id)
	if !ok {
		e.countOperation("query", metrics.OutcomeNotFound)
		return domain.Stats{}, fmt.Errorf("service %s: %w", id, ErrNotFound)
	}

	e.countOperation("query", metrics.OutcomeOK)
	return svc.Stats(), nil
}

// DeleteService removes the service with the given identity and reports
// whether one was removed.
func (e *Engine) DeleteService(ctx context.Context, id uuid.UUID) bool {
	if !e.registry.TryRemove(id) {
		e.countOperation("delete", metrics.OutcomeNotFound)
		return false
	}

	e.countOperation("delete", metrics.OutcomeOK)
	e.refreshGauge()
	e.logger.Info("service deleted", logger.Stringer("service_id", id))
	e.publish(ctx, events.Event{Kind: events.KindRemoved, ServiceID: id})
	return true
}

// DeleteAllServices empties the registry.
func (e *Engine) DeleteAllServices(ctx context.Context) {
	n := e.registry.Clear()

	e.countOperation("delete_all", metrics.OutcomeOK)
	e.refreshGauge()
	e.logger.Info("all services deleted", logger.Int("count", n))
	e.publish(ctx, events.Event{Kind: events.KindCleared, Count: n})
}

// InvokeService finds the first service matching the request, records the
// call and writes the canned response to sink. ErrNotFound means nothing
// matched and sink was left untouched.
func (e *Engine) InvokeService(ctx context.Context, method, pathWithQuery, body string, sink domain.ResponseSink) error {
	if sink == nil {
		panic("engine: nil response sink")
	}

	svc, ok := e.registry.TryGetWhere(func(s *domain.Service) bool {
		return s.MatchesRequest(method, pathWithQuery, body)
	})
	if !ok {
		e.countInvocation(metrics.OutcomeUnmatched)
		e.logger.Debug("no service matches request",
			logger.String("method", method),
			logger.String("path", pathWithQuery))
		e.publish(ctx, events.Event{Kind: events.KindUnmatched, Method: method, Path: pathWithQuery})
		return fmt.Errorf("%s %s: %w", method, pathWithQuery, ErrNotFound)
	}

	svc.RecordCall(body)
	if err := svc.WriteResponseTo(sink); err != nil {
		return fmt.Errorf("failed to write response of service %s: %w", svc.ID(), err)
	}

	e.countInvocation(metrics.OutcomeMatched)
	e.publish(ctx, events.Event{
		Kind:      events.KindInvoked,
		ServiceID: svc.ID(),
		Method:    method,
		Path:      pathWithQuery,
	})
	return nil
}

// Count returns the number of registered services.
func (e *Engine) Count() int {
	return e.registry.Count()
}

// LastChange returns when the registry was last mutated.
func (e *Engine) LastChange() time.Time {
	return e.registry.GetLastChange()
}

// ──────────────────────────────
// Helpers
// ──────────────────────────────

func buildService(desc *domain.ServiceDescription) (*domain.Service, error) {
	if strings.TrimSpace(desc.Method) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, missingMethod)
	}
	if strings.TrimSpace(desc.Path) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidArgument, missingPath)
	}
	return domain.NewService(desc)
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	ev.At = e.now()
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.Warn("failed to publish event",
			logger.String("kind", string(ev.Kind)),
			logger.Error(err))
	}
}

func (e *Engine) countOperation(op, outcome string) {
	if e.metrics != nil {
		e.metrics.Operations.WithLabelValues(op, outcome).Inc()
	}
}

func (e *Engine) countInvocation(outcome string) {
	if e.metrics != nil {
		e.metrics.Invocations.WithLabelValues(outcome).Inc()
	}
}

func (e *Engine) refreshGauge() {
	if e.metrics != nil {
		e.metrics.ServicesRegistered.Set(float64(e.registry.Count()))
	}
}
