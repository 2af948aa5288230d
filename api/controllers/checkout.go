package controllers

import (
	"net/http"

	"github.com/marisol-apps/pantrylog-backend/api/middleware"
	"github.com/marisol-apps/pantrylog-backend/api/responses"
	"github.com/marisol-apps/pantrylog-backend/api/validators"
	"github.com/marisol-apps/pantrylog-backend/internal/checkout"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

type checkoutRequest struct {
	StoreName       string `json:"storeName" validate:"required,max=200"`
	DefaultLocation string `json:"defaultLocation,omitempty" validate:"max=100"`
}

func (req checkoutRequest) toInput() checkout.Input {
	return checkout.Input{
		StoreName:       validators.SanitizeString(req.StoreName, 200),
		DefaultLocation: validators.SanitizeString(req.DefaultLocation, 100),
	}
}

// CheckoutCart promotes every cart row to inventory in one transaction.
func CheckoutCart(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CheckoutCart(r.Context(), middleware.UserIDFromContext(r.Context()), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CheckoutList promotes the purchased subset of one open shopping list.
func CheckoutList(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, err := pathID(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CheckoutList(r.Context(), middleware.UserIDFromContext(r.Context()), listID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
