package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Service is a virtual service: a request matcher bound to a canned response.
//
// Everything except the call statistics is fixed at construction. The
// statistics are guarded by the service's own lock, so recording a call on
// one service never contends with another.
//
// Methods on Service are safe for concurrent use.
type Service struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	id uuid.UUID

	// ─────────────────────────────
	// Matching (immutable, normalized)
	// ─────────────────────────────

	// method and path are stored upper-cased.
	method string
	path   string

	// bodyFilter is compared case-sensitively. Empty means no filter.
	bodyFilter string

	// ─────────────────────────────
	// Canned response (immutable)
	// ─────────────────────────────

	response Response

	// ─────────────────────────────
	// Statistics (guarded by mu)
	// ─────────────────────────────

	mu              sync.Mutex
	callCount       int
	lastRequestBody string
}

// Response is the canned answer of a service.
type Response struct {
	StatusCode  int
	ContentType string
	Body        string
}

// Stats is a consistent snapshot of a service's call statistics.
type Stats struct {
	CallCount       int
	LastRequestBody string
}

// ResponseSink receives a canned response.
type ResponseSink interface {
	SetStatusCode(code int)
	SetContentType(contentType string)
	WriteBody(body string) error
}

// NewService validates desc and builds a Service from it.
// All failures wrap ErrInvalidArgument.
func NewService(desc *ServiceDescription) (*Service, error) {
	if desc == nil {
		panic("domain: nil service description")
	}

	required := []struct {
		name  string
		value string
	}{
		{"Method", desc.Method},
		{"Path", desc.Path},
		{"ContentType", desc.ContentType},
		{"StatusCode", desc.StatusCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, fmt.Errorf("%w: %s must be provided", ErrInvalidArgument, r.name)
		}
	}

	id, err := parseID(desc.ID)
	if err != nil {
		return nil, err
	}

	statusCode, err := parseStatusCode(desc.StatusCode)
	if err != nil {
		return nil, err
	}

	return &Service{
		id:         id,
		method:     normalize(desc.Method),
		path:       normalize(desc.Path),
		bodyFilter: desc.BodyContains,
		response: Response{
			StatusCode:  statusCode,
			ContentType: desc.ContentType,
			Body:        desc.Body,
		},
	}, nil
}

// ID returns the service identity.
func (s *Service) ID() uuid.UUID { return s.id }

// Method returns the normalized method the service answers to.
func (s *Service) Method() string { return s.method }

// Path returns the normalized path (and query) the service answers to.
func (s *Service) Path() string { return s.path }

// BodyFilter returns the body substring filter, empty when unset.
func (s *Service) BodyFilter() string { return s.bodyFilter }

// Response returns a copy of the canned response.
func (s *Service) Response() Response { return s.response }

// HandlesSameRequests reports whether other would answer exactly the same
// requests as s. Identity and response are ignored.
func (s *Service) HandlesSameRequests(other *Service) bool {
	if other == nil {
		panic("domain: nil service")
	}
	return s.method == other.method &&
		s.path == other.path &&
		s.bodyFilter == other.bodyFilter
}

// MatchesRequest reports whether a request is answered by s.
// pathAndQuery is the raw request path followed by "?query" when a query is
// present; it is URL-decoded before comparison.
func (s *Service) MatchesRequest(method, pathAndQuery, body string) bool {
	return s.method == normalize(method) &&
		s.path == normalize(decode(pathAndQuery)) &&
		s.matchesBodyFilter(body)
}

// RecordCall counts one invocation and remembers its body.
func (s *Service) RecordCall(requestBody string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	s.lastRequestBody = requestBody
}

// Stats returns the call count and last request body as one snapshot.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		CallCount:       s.callCount,
		LastRequestBody: s.lastRequestBody,
	}
}

// WriteResponseTo writes the canned response to sink.
func (s *Service) WriteResponseTo(sink ResponseSink) error {
	if sink == nil {
		panic("domain: nil response sink")
	}
	sink.SetStatusCode(s.response.StatusCode)
	sink.SetContentType(s.response.ContentType)
	return sink.WriteBody(s.response.Body)
}

func (s *Service) matchesBodyFilter(body string) bool {
	if strings.TrimSpace(s.bodyFilter) == "" {
		return true
	}
	return strings.Contains(body, s.bodyFilter)
}

func parseID(raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: provided service ID is not a UUID: %w", ErrInvalidArgument, err)
	}
	return id, nil
}

// parseStatusCode accepts any final status net/http can write as a status
// line. 1xx codes are informational: net/http would follow them with an
// implicit 200, so they are rejected.
func parseStatusCode(raw string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: unable to parse status code value %q", ErrInvalidArgument, raw)
	}
	if code < 200 || code > 999 {
		return 0, fmt.Errorf("%w: status code %d is outside 200-999", ErrInvalidArgument, code)
	}
	return code, nil
}

// upper maps rune by rune, so one rune never expands into several (ß stays ß).
// It holds no state and is safe for concurrent use.
var upper = runes.Map(unicode.ToUpper)

// normalize upper-cases s independently of any locale.
func normalize(s string) string {
	out, _, err := transform.String(upper, s)
	if err != nil {
		return strings.ToUpper(s)
	}
	return out
}

// decode URL-decodes s, leaving it untouched when it is not valid encoding.
func decode(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
