package controllers

import (
	"net/http"

	"github.com/marisol-apps/pantrylog-backend/api/responses"
	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/db"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pantrylog-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the local store. The cache is optional infrastructure
// and does not gate readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Pantrylog-Env", cfg.App.Env)
		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
