package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/mimic/internal/domain"
	"github.com/MrSnakeDoc/mimic/internal/engine"
	"github.com/MrSnakeDoc/mimic/internal/logger"
	"github.com/MrSnakeDoc/mimic/internal/parser"
)

// writeError maps an operation error to a status code. Caller-facing
// failures carry their message; anything else is logged and hidden.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, engine.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.As(err, &tooLarge):
		writeText(w, log, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, engine.ErrDuplicateService),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, parser.ErrMalformedDescription):
		writeText(w, log, http.StatusBadRequest, err.Error())
	default:
		log.Error("request failed", logger.Error(err))
		writeText(w, log, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeText(w http.ResponseWriter, log logger.Logger, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}
