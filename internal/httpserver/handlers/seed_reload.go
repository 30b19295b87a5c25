package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/mimic/internal/httpserver/deps"
	"github.com/MrSnakeDoc/mimic/internal/logger"
	"github.com/MrSnakeDoc/mimic/internal/utils"
)

// SeedReload asks the seed reloader to re-apply the seed directory.
func SeedReload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.SeedReloadTrigger == nil {
			writeText(w, d.Logger, http.StatusConflict, "no seed directory configured\n")
			return
		}

		remote := utils.ClientIP(r, d.TrustProxy)
		select {
		case d.SeedReloadTrigger <- struct{}{}:
			d.Logger.Info("manual seed reload triggered via endpoint",
				logger.String("remote_ip", remote))
			writeText(w, d.Logger, http.StatusAccepted, "seed reload triggered\n")
		default:
			d.Logger.Warn("seed reload already pending",
				logger.String("remote_ip", remote))
			writeText(w, d.Logger, http.StatusTooManyRequests, "seed reload already pending, please wait\n")
		}
	}
}
