package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/mimic/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mimic/internal/logger"
)

// IDHandler handles a request addressed to one service.
type IDHandler func(w http.ResponseWriter, r *http.Request, id uuid.UUID)

// AddService registers the service described by the request body and
// answers with its identity.
func AddService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := d.Engine.AddService(r.Context(), r.Body)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeText(w, d.Logger, http.StatusOK, id.String())
	}
}

// QueryService answers with the call statistics of a service.
func QueryService(d deps.Deps) IDHandler {
	return func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		stats, err := d.Engine.QueryService(r.Context(), id)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeText(w, d.Logger, http.StatusOK,
			fmt.Sprintf("CallCount: %d\n\nLastRequestBody:\n%s", stats.CallCount, stats.LastRequestBody))
	}
}

// DeleteService removes one service.
func DeleteService(d deps.Deps) IDHandler {
	return func(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		if !d.Engine.DeleteService(r.Context(), id) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// DeleteAllServices empties the registry.
func DeleteAllServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Engine.DeleteAllServices(r.Context())
		w.WriteHeader(http.StatusOK)
	}
}

// InvokeService answers the request with the canned response of the first
// matching service, or 404.
func InvokeService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		sink := &responseSink{w: w, status: http.StatusOK}
		err = d.Engine.InvokeService(r.Context(), r.Method, r.URL.RequestURI(), string(body), sink)
		if err != nil && !sink.written {
			writeError(w, d.Logger, err)
			return
		}
		if err != nil {
			d.Logger.Debug("failed to write canned response", logger.Error(err))
		}
	}
}

// responseSink writes a canned response to an http.ResponseWriter. The status
// is held until the body is written so that the content type lands in the
// headers first.
type responseSink struct {
	w       http.ResponseWriter
	status  int
	written bool
}

func (s *responseSink) SetStatusCode(code int) {
	s.status = code
}

func (s *responseSink) SetContentType(contentType string) {
	s.w.Header().Set("Content-Type", contentType)
}

func (s *responseSink) WriteBody(body string) error {
	s.written = true
	s.w.WriteHeader(s.status)
	_, err := io.WriteString(s.w, body)
	return err
}
