package controllers

import (
	"net/http"

	"github.com/marisol-apps/pantrylog-backend/api/middleware"
	"github.com/marisol-apps/pantrylog-backend/api/responses"
	"github.com/marisol-apps/pantrylog-backend/internal/sync"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

type syncReportResponse struct {
	Outcome enums.SyncOutcome `json:"outcome"`
	Pushed  int               `json:"pushed"`
	Failed  int               `json:"failed"`
	Error   string            `json:"error,omitempty"`
}

// TriggerSync runs one push cycle for the caller and reports the outcome.
// Offline and local-only outcomes are normal results, not errors.
func TriggerSync(engine *sync.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := engine.SyncNow(r.Context(), middleware.UserIDFromContext(r.Context()))
		resp := syncReportResponse{
			Outcome: report.Outcome,
			Pushed:  report.Pushed,
			Failed:  report.Failed,
		}
		if report.Err != nil {
			resp.Error = report.Err.Error()
		}
		responses.WriteSuccess(w, resp)
	}
}

type syncStatusResponse struct {
	Pending map[string]int64 `json:"pending"`
	Total   int64            `json:"total"`
}

// SyncStatus reports how many rows per entity still await a push.
func SyncStatus(engine *sync.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := engine.PendingCounts(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := syncStatusResponse{Pending: counts}
		for _, n := range counts {
			resp.Total += n
		}
		responses.WriteSuccess(w, resp)
	}
}
