package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marisol-apps/pantrylog-backend/api/middleware"
	"github.com/marisol-apps/pantrylog-backend/api/responses"
	"github.com/marisol-apps/pantrylog-backend/api/validators"
	"github.com/marisol-apps/pantrylog-backend/internal/prices"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

func pathBarcode(r *http.Request) (string, error) {
	barcode := validators.SanitizeString(chi.URLParam(r, "barcode"), 64)
	if barcode == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	return barcode, nil
}

// PriceHistory returns every recorded observation for a barcode, newest
// first, with store names resolved.
func PriceHistory(repo *prices.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		barcode, err := pathBarcode(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := repo.History(r.Context(), middleware.UserIDFromContext(r.Context()), barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

// BestDeal returns the cheapest recorded price for a barcode across stores.
func BestDeal(repo *prices.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		barcode, err := pathBarcode(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deal, err := repo.BestDeal(r.Context(), middleware.UserIDFromContext(r.Context()), barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, deal)
	}
}

// PriceTrend returns chronological points for one barcode at one store.
// ?days= bounds the window, defaulting to 90.
func PriceTrend(repo *prices.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		barcode, err := pathBarcode(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := pathID(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", 90, 1, 3650)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		since := time.Now().UTC().AddDate(0, 0, -days)
		trend, err := repo.Trend(r.Context(), middleware.UserIDFromContext(r.Context()), barcode, storeID, since)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, trend)
	}
}
