package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
)

// Repository manages the per-user staging cart. Rows live only between scan
// and checkout; checkout clears them inside its own transaction.
type Repository struct {
	db  *gorm.DB
	bus *observe.Bus
}

func NewRepository(db *gorm.DB, bus *observe.Bus) *Repository {
	return &Repository{db: db, bus: bus}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx, bus: r.bus}
}

// Watch subscribes to invalidations of the cart table.
func (r *Repository) Watch() *observe.Subscription {
	return r.bus.Subscribe(models.CartItem{}.TableName())
}

// Add validates and inserts a staging row.
func (r *Repository) Add(ctx context.Context, item *models.CartItem) error {
	if err := validateCartItem(item); err != nil {
		return err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// FindByID returns the user's cart row or CodeNotFound.
func (r *Repository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, err
	}
	return &item, nil
}

// ListForUser returns the user's cart, insertion order.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// Save persists the full row and marks it dirty.
func (r *Repository) Save(ctx context.Context, item *models.CartItem) error {
	if err := validateCartItem(item); err != nil {
		return err
	}
	item.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// Remove deletes a single cart row.
func (r *Repository) Remove(ctx context.Context, userID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	r.invalidate()
	return nil
}

// ClearForUser empties the user's cart.
func (r *Repository) ClearForUser(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

func (r *Repository) invalidate() {
	if r.bus != nil {
		r.bus.Publish(models.CartItem{}.TableName())
	}
}

func validateCartItem(item *models.CartItem) error {
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item required")
	}
	details := map[string]string{}
	if strings.TrimSpace(item.ItemName) == "" {
		details["item_name"] = "is required"
	}
	if strings.TrimSpace(item.UserID) == "" {
		details["user_id"] = "is required"
	}
	if item.Quantity <= 0 {
		details["quantity"] = "must be positive"
	}
	if item.UnitID == uuid.Nil {
		details["unit_id"] = "is required"
	}
	if item.CategoryID == uuid.Nil {
		details["category_id"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").WithDetails(details)
	}
	return nil
}
