package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marisol-apps/pantrylog-backend/api/middleware"
	"github.com/marisol-apps/pantrylog-backend/api/responses"
	"github.com/marisol-apps/pantrylog-backend/api/validators"
	"github.com/marisol-apps/pantrylog-backend/internal/cart"
	"github.com/marisol-apps/pantrylog-backend/internal/products"
	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

type addCartItemRequest struct {
	ItemName   string           `json:"itemName" validate:"required,max=200"`
	Quantity   float64          `json:"quantity" validate:"gt=0"`
	UnitID     uuid.UUID        `json:"unitId" validate:"required"`
	CategoryID uuid.UUID        `json:"categoryId" validate:"required"`
	Barcode    *string          `json:"barcode,omitempty"`
	Brand      *string          `json:"brand,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Weight     *float64         `json:"weight,omitempty" validate:"omitempty,gt=0"`
	WeightUnit *string          `json:"weightUnit,omitempty"`
	ImageURL   *string          `json:"imageUrl,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

// AddCartItem stages a manually entered row. Manual rows are unverified, so
// they carry the review flag into inventory at checkout.
func AddCartItem(repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item := &models.CartItem{
			UserID:      middleware.UserIDFromContext(r.Context()),
			ItemName:    validators.SanitizeString(req.ItemName, 200),
			Quantity:    req.Quantity,
			UnitID:      req.UnitID,
			CategoryID:  req.CategoryID,
			Barcode:     req.Barcode,
			Brand:       req.Brand,
			Price:       req.Price,
			Weight:      req.Weight,
			WeightUnit:  req.WeightUnit,
			ImageURL:    req.ImageURL,
			Notes:       req.Notes,
			NeedsReview: true,
		}
		if err := repo.Add(r.Context(), item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type scanCartItemRequest struct {
	Barcode    string           `json:"barcode" validate:"required,max=64"`
	Name       string           `json:"name,omitempty" validate:"max=200"`
	Quantity   float64          `json:"quantity" validate:"gt=0"`
	UnitID     uuid.UUID        `json:"unitId" validate:"required"`
	CategoryID uuid.UUID        `json:"categoryId" validate:"required"`
	Price      *decimal.Decimal `json:"price,omitempty"`
}

type scanCartItemResponse struct {
	Item   *models.CartItem `json:"item"`
	Lookup products.Result  `json:"lookup"`
}

// ScanCartItem resolves a barcode and stages the product in the cart. A miss
// stages the row anyway, flagged for review.
func ScanCartItem(repo *cart.Repository, lookup *products.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := lookup.ByBarcode(r.Context(), req.Barcode)
		if err != nil {
			if logg != nil {
				logg.Warn(r.Context(), "product lookup unavailable, staging unverified")
			}
			result = products.Result{}
		}

		scanID := uuid.New()
		item := &models.CartItem{
			UserID:       middleware.UserIDFromContext(r.Context()),
			ItemName:     validators.SanitizeString(req.Name, 200),
			Quantity:     req.Quantity,
			UnitID:       req.UnitID,
			CategoryID:   req.CategoryID,
			Barcode:      &req.Barcode,
			Price:        req.Price,
			SourceScanID: &scanID,
			NeedsReview:  !result.Found,
		}
		if result.Found {
			if result.ProductName != nil {
				item.ItemName = *result.ProductName
			}
			item.Brand = result.Brands
			item.ImageURL = result.ImageURL
		}
		if item.ItemName == "" {
			item.ItemName = "Unknown product"
		}

		if err := repo.Add(r.Context(), item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, scanCartItemResponse{Item: item, Lookup: result})
	}
}

func ListCart(repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := repo.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

type updateCartItemRequest struct {
	Quantity        *float64         `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	ExpiryDate      *time.Time       `json:"expiryDate,omitempty"`
	StorageLocation *string          `json:"storageLocation,omitempty" validate:"omitempty,max=100"`
}

// UpdateCartItem patches quantity, price, notes and the checkout overrides.
func UpdateCartItem(repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := repo.FindByID(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.Price != nil {
			item.Price = req.Price
		}
		if req.Notes != nil {
			item.Notes = req.Notes
		}
		if req.ExpiryDate != nil {
			item.ExpiryOverride = req.ExpiryDate
		}
		if req.StorageLocation != nil {
			loc := validators.SanitizeString(*req.StorageLocation, 100)
			item.LocationOverride = &loc
		}
		if err := repo.Save(r.Context(), item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func RemoveCartItem(repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := repo.Remove(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func ClearCart(repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.ClearForUser(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]bool{"cleared": true})
	}
}
