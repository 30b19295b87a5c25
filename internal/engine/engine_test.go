package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/mimic/internal/domain"
	"github.com/MrSnakeDoc/mimic/internal/events"
	"github.com/MrSnakeDoc/mimic/internal/metrics"
	"github.com/MrSnakeDoc/mimic/internal/parser"
	"github.com/MrSnakeDoc/mimic/internal/registry"
)

const studentsDescription = `# Request
Method: POST
Path: /api/students

# Response
ContentType: application/json
StatusCode: 200

# Body
{"studentId":"ST-001"}`

type recordingSink struct {
	status      int
	contentType string
	body        strings.Builder
}

func (s *recordingSink) SetStatusCode(code int) {
	s.status = code
}

func (s *recordingSink) SetContentType(contentType string) {
	s.contentType = contentType
}

func (s *recordingSink) WriteBody(body string) error {
	s.body.WriteString(body)
	return nil
}

type failingSink struct{ recordingSink }

func (*failingSink) WriteBody(string) error {
	return errors.New("connection reset")
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *capturePublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]events.Kind, 0, len(p.events))
	for _, e := range p.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func newEngine(opts ...Option) *Engine {
	return New(registry.New(), nil, opts...)
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	id, err := e.AddService(ctx, body(studentsDescription))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	sink := &recordingSink{}
	require.NoError(t, e.InvokeService(ctx, "POST", "/api/students", `{"name":"Ada"}`, sink))
	assert.Equal(t, 200, sink.status)
	assert.Equal(t, "application/json", sink.contentType)
	assert.Equal(t, `{"studentId":"ST-001"}`, sink.body.String())

	stats, err := e.QueryService(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CallCount)
	assert.Equal(t, `{"name":"Ada"}`, stats.LastRequestBody)

	assert.True(t, e.DeleteService(ctx, id))

	err = e.InvokeService(ctx, "POST", "/api/students", "", &recordingSink{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.QueryService(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown setting",
			input:   "Method: GET\nPath: /a\nColour: blue\n",
			wantErr: parser.ErrMalformedDescription,
			wantMsg: "Colour",
		},
		{
			name:    "malformed line",
			input:   "Method GET\n",
			wantErr: parser.ErrMalformedDescription,
		},
		{
			name:    "missing method",
			input:   "Path: /a\n",
			wantErr: domain.ErrInvalidArgument,
			wantMsg: "HTTP method",
		},
		{
			name:    "missing path",
			input:   "Method: GET\n",
			wantErr: domain.ErrInvalidArgument,
			wantMsg: "path must be provided",
		},
		{
			name:    "bad id",
			input:   "Id: nope\nMethod: GET\nPath: /a\n",
			wantErr: domain.ErrInvalidArgument,
			wantMsg: "not a UUID",
		},
		{
			name:    "bad status code",
			input:   "Method: GET\nPath: /a\nStatusCode: OK\n",
			wantErr: domain.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine()

			id, err := e.AddService(context.Background(), body(tt.input))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, uuid.Nil, id)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Zero(t, e.Count())
		})
	}
}

func TestAddServiceRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	id, err := e.AddService(ctx, body("Method: GET\nPath: /things\n"))
	require.NoError(t, err)

	_, err = e.AddService(ctx, body("Method: get\nPath: /THINGS\nStatusCode: 201\n"))
	assert.ErrorIs(t, err, ErrDuplicateService)

	_, err = e.AddService(ctx, body("Id: "+id.String()+"\nMethod: PUT\nPath: /other\n"))
	assert.ErrorIs(t, err, ErrDuplicateService)

	assert.Equal(t, 1, e.Count())
}

func TestAddServiceClosesBody(t *testing.T) {
	closed := false
	rc := struct {
		io.Reader
		io.Closer
	}{
		Reader: strings.NewReader("Method: GET\n"),
		Closer: closerFunc(func() error {
			closed = true
			return nil
		}),
	}

	_, err := newEngine().AddService(context.Background(), rc)
	require.Error(t, err)
	assert.True(t, closed)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestInvokeServiceBodyFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	_, err := e.AddService(ctx, body("Method: POST\nPath: /api/users\nBodyContains: admin\n# Body\nadmin"))
	require.NoError(t, err)
	_, err = e.AddService(ctx, body("Method: POST\nPath: /api/users\n# Body\nanyone"))
	require.NoError(t, err)

	admin := &recordingSink{}
	require.NoError(t, e.InvokeService(ctx, "post", "/API/users", `{"role":"admin"}`, admin))
	assert.Equal(t, "admin", admin.body.String())

	guest := &recordingSink{}
	require.NoError(t, e.InvokeService(ctx, "POST", "/api/users", `{"role":"guest"}`, guest))
	assert.Equal(t, "anyone", guest.body.String())
}

func TestInvokeServiceMatchesDecodedQuery(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	_, err := e.AddService(ctx, body("Method: GET\nPath: /search?q=a b\n"))
	require.NoError(t, err)

	require.NoError(t, e.InvokeService(ctx, "GET", "/search?q=a%20b", "", &recordingSink{}))
	assert.ErrorIs(t, e.InvokeService(ctx, "GET", "/search", "", &recordingSink{}), ErrNotFound)
}

func TestInvokeServiceSinkFailure(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	id, err := e.AddService(ctx, body("Method: GET\nPath: /a\n"))
	require.NoError(t, err)

	err = e.InvokeService(ctx, "GET", "/a", "", &failingSink{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	// The call was recorded before the response was written.
	stats, err := e.QueryService(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CallCount)
}

func TestDeleteService(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	assert.False(t, e.DeleteService(ctx, uuid.New()))

	id, err := e.AddService(ctx, body("Method: GET\nPath: /a\n"))
	require.NoError(t, err)
	assert.True(t, e.DeleteService(ctx, id))
	assert.False(t, e.DeleteService(ctx, id))
}

func TestDeleteAllServices(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	for _, p := range []string{"/a", "/b", "/c"} {
		_, err := e.AddService(ctx, body("Method: GET\nPath: "+p+"\n"))
		require.NoError(t, err)
	}
	require.Equal(t, 3, e.Count())

	e.DeleteAllServices(ctx)
	assert.Zero(t, e.Count())
	assert.ErrorIs(t, e.InvokeService(ctx, "GET", "/a", "", &recordingSink{}), ErrNotFound)
	assert.False(t, e.LastChange().IsZero())
}

func TestEventsAndMetrics(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	m := metrics.New()
	e := newEngine(WithEvents(pub), WithMetrics(m))

	id, err := e.AddService(ctx, body("Method: GET\nPath: /a\n"))
	require.NoError(t, err)
	_, err = e.AddService(ctx, body("Method: GET\nPath: /a\n"))
	require.ErrorIs(t, err, ErrDuplicateService)

	require.NoError(t, e.InvokeService(ctx, "GET", "/a", "", &recordingSink{}))
	require.Error(t, e.InvokeService(ctx, "GET", "/missing", "", &recordingSink{}))
	e.DeleteService(ctx, id)
	e.DeleteAllServices(ctx)

	assert.Equal(t, []events.Kind{
		events.KindAdded,
		events.KindInvoked,
		events.KindUnmatched,
		events.KindRemoved,
		events.KindCleared,
	}, pub.kinds())
	for _, ev := range pub.events {
		assert.False(t, ev.At.IsZero())
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("add", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("add", metrics.OutcomeDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues(metrics.OutcomeMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues(metrics.OutcomeUnmatched)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ServicesRegistered))
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	pub := &capturePublisher{err: errors.New("redis down")}
	e := newEngine(WithEvents(pub))

	_, err := e.AddService(context.Background(), body("Method: GET\nPath: /a\n"))
	assert.NoError(t, err)
	assert.Len(t, pub.kinds(), 1)
}

func TestConcurrentInvokeCountsEveryCall(t *testing.T) {
	ctx := context.Background()
	e := newEngine()

	id, err := e.AddService(ctx, body("Method: POST\nPath: /hits\n"))
	require.NoError(t, err)

	const calls = 100
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.InvokeService(ctx, "POST", "/hits", "x", &recordingSink{})
		}()
	}
	wg.Wait()

	stats, err := e.QueryService(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, calls, stats.CallCount)
	assert.Equal(t, "x", stats.LastRequestBody)
}

func TestContractViolationsPanic(t *testing.T) {
	e := newEngine()

	assert.Panics(t, func() { New(nil, nil) })
	assert.Panics(t, func() { _, _ = e.AddService(context.Background(), nil) })
	assert.Panics(t, func() { _, _ = e.AddDescription(context.Background(), nil) })
	assert.Panics(t, func() { _ = e.InvokeService(context.Background(), "GET", "/", "", nil) })
}
