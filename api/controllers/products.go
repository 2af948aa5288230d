package controllers

import (
	"net/http"

	"github.com/marisol-apps/pantrylog-backend/api/responses"
	"github.com/marisol-apps/pantrylog-backend/internal/products"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

// LookupProduct resolves a barcode against the product catalog without
// creating anything.
func LookupProduct(lookup *products.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		barcode, err := pathBarcode(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := lookup.ByBarcode(r.Context(), barcode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
