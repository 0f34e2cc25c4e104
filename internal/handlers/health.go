package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/internal/logging"
)

const healthPingTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthz answers 200 while the database responds and 503 otherwise.
func Healthz(db Pinger, logger logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn(r.Context(), "health check failed", "error", err)
			writeError(w, r, logger, apperr.New(http.StatusServiceUnavailable, "Database unavailable"))
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
