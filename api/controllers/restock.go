package controllers

import (
	"net/http"
	"time"

	"github.com/marisol-apps/pantrylog-backend/api/middleware"
	"github.com/marisol-apps/pantrylog-backend/api/responses"
	"github.com/marisol-apps/pantrylog-backend/internal/inventory"
	"github.com/marisol-apps/pantrylog-backend/internal/restock"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

// RestockSummary computes the needs-attention view over active inventory.
func RestockSummary(repo *inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := repo.ListActive(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restock.Build(active, time.Now().UTC()))
	}
}
