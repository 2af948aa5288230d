package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marisol-apps/pantrylog-backend/api/middleware"
	"github.com/marisol-apps/pantrylog-backend/api/responses"
	"github.com/marisol-apps/pantrylog-backend/api/validators"
	"github.com/marisol-apps/pantrylog-backend/internal/inventory"
	"github.com/marisol-apps/pantrylog-backend/internal/products"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

type createItemRequest struct {
	Name            string           `json:"name" validate:"required,max=200"`
	Barcode         *string          `json:"barcode,omitempty"`
	Brand           *string          `json:"brand,omitempty"`
	CategoryID      uuid.UUID        `json:"categoryId" validate:"required"`
	Quantity        float64          `json:"quantity" validate:"gte=0"`
	UnitID          uuid.UUID        `json:"unitId" validate:"required"`
	ExpiryDate      *time.Time       `json:"expiryDate,omitempty"`
	StorageLocation string           `json:"storageLocation" validate:"required,max=100"`
	ImageURL        *string          `json:"imageUrl,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	PurchaseDate    *time.Time       `json:"purchaseDate,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

func (req createItemRequest) toInput() inventory.CreateInput {
	return inventory.CreateInput{
		Name:            validators.SanitizeString(req.Name, 200),
		Barcode:         req.Barcode,
		Brand:           req.Brand,
		CategoryID:      req.CategoryID,
		Quantity:        req.Quantity,
		UnitID:          req.UnitID,
		ExpiryDate:      req.ExpiryDate,
		StorageLocation: validators.SanitizeString(req.StorageLocation, 100),
		ImageURL:        req.ImageURL,
		Price:           req.Price,
		PurchaseDate:    req.PurchaseDate,
		Notes:           req.Notes,
	}
}

// CreateInventoryItem handles direct manual entry. Manual items never carry
// a catalog match, so they enter the review queue.
func CreateInventoryItem(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := req.toInput()
		item, err := svc.Create(r.Context(), middleware.UserIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type scanItemRequest struct {
	Barcode         string    `json:"barcode" validate:"required,max=64"`
	Name            string    `json:"name,omitempty" validate:"max=200"`
	CategoryID      uuid.UUID `json:"categoryId" validate:"required"`
	Quantity        float64   `json:"quantity" validate:"gt=0"`
	UnitID          uuid.UUID `json:"unitId" validate:"required"`
	StorageLocation string    `json:"storageLocation" validate:"required,max=100"`
}

type scanItemResponse struct {
	Item   any             `json:"item"`
	Lookup products.Result `json:"lookup"`
}

// ScanInventoryItem resolves a barcode against the product catalog and adds
// the item. An unrecognized barcode still creates the item, flagged for
// review.
func ScanInventoryItem(svc *inventory.Service, lookup *products.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := lookup.ByBarcode(r.Context(), req.Barcode)
		if err != nil {
			// the catalog being down must not block adding the item
			if logg != nil {
				logg.Warn(r.Context(), "product lookup unavailable, adding unverified")
			}
			result = products.Result{}
		}

		input := inventory.CreateInput{
			Name:            validators.SanitizeString(req.Name, 200),
			Barcode:         &req.Barcode,
			CategoryID:      req.CategoryID,
			Quantity:        req.Quantity,
			UnitID:          req.UnitID,
			StorageLocation: validators.SanitizeString(req.StorageLocation, 100),
			CatalogMatched:  result.Found,
		}
		if result.Found {
			if result.ProductName != nil {
				input.Name = *result.ProductName
			}
			input.Brand = result.Brands
			input.ImageURL = result.ImageURL
		}
		if input.Name == "" {
			input.Name = "Unknown product"
		}

		item, err := svc.Create(r.Context(), middleware.UserIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, scanItemResponse{Item: item, Lookup: result})
	}
}

// ListInventory returns active stock, optionally filtered by storage
// location via ?location=.
func ListInventory(repo *inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		location := validators.SanitizeString(r.URL.Query().Get("location"), 100)

		var err error
		var items any
		if location != "" {
			items, err = repo.ListByLocation(r.Context(), userID, location)
		} else {
			items, err = repo.ListActive(r.Context(), userID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ListInventoryHistory returns consumed, expired and discarded items.
func ListInventoryHistory(repo *inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := repo.ListHistory(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetInventoryItem(repo *inventory.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := repo.FindByID(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type consumeRequest struct {
	Outcome           string   `json:"outcome" validate:"required,oneof=used_up expired discarded"`
	QuantityRemaining *float64 `json:"quantityRemaining,omitempty" validate:"omitempty,gte=0"`
}

func ConsumeInventoryItem(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req consumeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.MarkConsumed(r.Context(), middleware.UserIDFromContext(r.Context()), id,
			enums.ConsumptionOutcome(req.Outcome), req.QuantityRemaining)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func RestoreInventoryItem(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.RestoreToActive(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type adjustQuantityRequest struct {
	Delta float64 `json:"delta" validate:"required"`
}

func AdjustInventoryQuantity(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req adjustQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.AdjustQuantity(r.Context(), middleware.UserIDFromContext(r.Context()), id, req.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type moveItemRequest struct {
	StorageLocation string `json:"storageLocation" validate:"required,max=100"`
}

func MoveInventoryItem(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req moveItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.MoveToLocation(r.Context(), middleware.UserIDFromContext(r.Context()), id,
			validators.SanitizeString(req.StorageLocation, 100))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type setExpiryRequest struct {
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
}

// SetInventoryExpiry stores the expiry when one is given, or records an
// explicit "no expiry" answer when the body carries null.
func SetInventoryExpiry(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setExpiryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID := middleware.UserIDFromContext(r.Context())

		var item any
		if req.ExpiryDate != nil {
			item, err = svc.SetExpiryDate(r.Context(), userID, id, *req.ExpiryDate)
		} else {
			item, err = svc.ConfirmNoExpiry(r.Context(), userID, id)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ToggleInventoryImportant(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.ToggleImportant(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type setThresholdRequest struct {
	Threshold int `json:"threshold" validate:"gte=0"`
}

func SetInventoryThreshold(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setThresholdRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.SetRestockThreshold(r.Context(), middleware.UserIDFromContext(r.Context()), id, req.Threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ReviewInventoryItem(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.MarkReviewed(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func DeleteInventoryItem(svc *inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
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
