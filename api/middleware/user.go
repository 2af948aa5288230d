package middleware

import (
	"net/http"
	"strings"

	"github.com/marisol-apps/pantrylog-backend/api/responses"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

const userIDHeader = "X-User-Id"

// RequireUser resolves the acting user from the device-provided header and
// rejects requests without one. Every record in the store is single-owner,
// so all domain routes sit behind this.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if userID == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "X-User-Id header required"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
