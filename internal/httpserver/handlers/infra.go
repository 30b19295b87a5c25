package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/mimic/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Services   *int   `json:"services,omitempty"`
	LastChange string `json:"last_change,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		count := d.Engine.Count()
		lastChange := "never"
		if t := d.Engine.LastChange(); !t.IsZero() {
			lastChange = t.UTC().Format(time.RFC3339)
		}

		components := map[string]componentStatus{
			"registry": {
				OK:         true,
				Services:   &count,
				LastChange: lastChange,
			},
			"events": checkEvents(r.Context(), d),
			"seeds":  seedStatus(d),
			"metrics": {
				OK:   true,
				Mode: enabledMode(d.Metrics != nil),
			},
		}

		status := "ok"
		for _, c := range components {
			if !c.OK {
				status = "degraded"
			}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{Status: status, Components: components})
	}
}

// checkEvents pings the event stream server. A missing client means the
// stream is disabled, which is not a failure.
func checkEvents(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Mode: "redis-stream", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "redis-stream"}
}

func seedStatus(d deps.Deps) componentStatus {
	if d.SeedDir == "" {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	return componentStatus{OK: true, Mode: "directory:" + d.SeedDir}
}

func enabledMode(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
