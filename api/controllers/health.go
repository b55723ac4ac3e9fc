package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tokosehat/kasir/api/responses"
	"github.com/tokosehat/kasir/pkg/config"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
	"github.com/tokosehat/kasir/pkg/redis"
)

const readinessTimeout = 2 * time.Second

// BreakerReporter exposes the remote API circuit breaker state.
type BreakerReporter interface {
	BreakerState() gobreaker.State
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kasir-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready while the session store answers and the remote
// API breaker is not open. A nil store means sessions live in memory.
func HealthReady(cfg *config.Config, logg *logger.Logger, store redis.Pinger, breaker BreakerReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Kasir-Env", cfg.App.Env)

		checks := map[string]string{"session_store": "memory", "remote_api": "unknown"}
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable").
					WithDetails(map[string]string{"session_store": "down"}))
				return
			}
			checks["session_store"] = "up"
		}
		if breaker != nil {
			state := breaker.BreakerState()
			checks["remote_api"] = state.String()
			if state == gobreaker.StateOpen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "Tidak dapat terhubung ke server").
					WithDetails(checks))
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
