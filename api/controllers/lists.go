package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marisol-apps/pantrylog-backend/api/middleware"
	"github.com/marisol-apps/pantrylog-backend/api/responses"
	"github.com/marisol-apps/pantrylog-backend/api/validators"
	"github.com/marisol-apps/pantrylog-backend/internal/lists"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

type createListRequest struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Notes *string `json:"notes,omitempty"`
}

func CreateList(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createListRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.CreateList(r.Context(), middleware.UserIDFromContext(r.Context()),
			validators.SanitizeString(req.Name, 200), req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, list)
	}
}

func ListShoppingLists(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func GetList(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type renameListRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func RenameList(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req renameListRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Rename(r.Context(), middleware.UserIDFromContext(r.Context()), id,
			validators.SanitizeString(req.Name, 200))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func DeleteList(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

type addListItemRequest struct {
	ItemName   string           `json:"itemName" validate:"required,max=200"`
	Quantity   float64          `json:"quantity" validate:"gt=0"`
	UnitID     string           `json:"unitId" validate:"required,uuid4"`
	CategoryID string           `json:"categoryId" validate:"required,uuid4"`
	Barcode    *string          `json:"barcode,omitempty"`
	Brand      *string          `json:"brand,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Weight     *float64         `json:"weight,omitempty" validate:"omitempty,gt=0"`
	WeightUnit *string          `json:"weightUnit,omitempty"`
	ImageURL   *string          `json:"imageUrl,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

func AddListItem(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, err := pathID(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req addListItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitID, err := parseUUIDField(req.UnitID, "unitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := parseUUIDField(req.CategoryID, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.AddItem(r.Context(), middleware.UserIDFromContext(r.Context()), listID, lists.AddItemInput{
			ItemName:   validators.SanitizeString(req.ItemName, 200),
			Quantity:   req.Quantity,
			UnitID:     unitID,
			CategoryID: categoryID,
			Barcode:    req.Barcode,
			Brand:      req.Brand,
			Price:      req.Price,
			Weight:     req.Weight,
			WeightUnit: req.WeightUnit,
			ImageURL:   req.ImageURL,
			Notes:      req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func RemoveListItem(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, err := pathID(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveItem(r.Context(), middleware.UserIDFromContext(r.Context()), listID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

type setPurchasedRequest struct {
	Purchased *bool `json:"purchased" validate:"required"`
}

// SetListItemPurchased ticks or unticks one row while shopping.
func SetListItemPurchased(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, err := pathID(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setPurchasedRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.SetPurchased(r.Context(), middleware.UserIDFromContext(r.Context()), listID, itemID, *req.Purchased)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type listItemOverridesRequest struct {
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`
	StorageLocation *string    `json:"storageLocation,omitempty" validate:"omitempty,max=100"`
}

// SetListItemOverrides stores per-item expiry and location hints applied at
// checkout.
func SetListItemOverrides(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID, err := pathID(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req listItemOverridesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.SetOverrides(r.Context(), middleware.UserIDFromContext(r.Context()), listID, itemID,
			req.ExpiryDate, req.StorageLocation)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// CompleteList freezes the list without promoting anything to inventory.
func CompleteList(svc *lists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Complete(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
