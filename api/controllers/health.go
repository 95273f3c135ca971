package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/fishermenfirst/fleetquota-backend/api/responses"
	"github.com/fishermenfirst/fleetquota-backend/pkg/config"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
)

const envHeader = "X-FleetQuota-Env"

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks each wired dependency. A nil pinger is a dependency
// that was intentionally not configured and is skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "healthcheck failed: "+name, err)
				}
				continue
			}
			checks[name] = "up"
		}

		status := "ready"
		httpStatus := http.StatusOK
		if !healthy {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, httpStatus, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
