package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/mimic/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready    bool `json:"ready"`
	Services int  `json:"services"`
}

// Readyz reports readiness once the server is serving; seeds are applied
// before the listener starts.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)

		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready:    true,
			Services: d.Engine.Count(),
		})
	}
}
