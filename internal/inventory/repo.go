package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
)

// Repository manages inventory item persistence. Every write to user-visible
// state marks the row dirty for sync as its final step.
type Repository struct {
	db  *gorm.DB
	bus *observe.Bus
}

// NewRepository binds the repository to the provided DB handle.
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

// Watch subscribes to invalidations of the inventory table.
func (r *Repository) Watch() *observe.Subscription {
	return r.bus.Subscribe(models.InventoryItem{}.TableName())
}

// Create validates and inserts the item. The local ID is generated here and
// survives as the permanent cross-system key after the first sync.
func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.AddedDate.IsZero() {
		item.AddedDate = time.Now()
	}
	if item.Status == "" {
		item.Status = enums.ItemStatusActive
	}
	item.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// FindByID returns the user's item or CodeNotFound.
func (r *Repository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, err
	}
	return &item, nil
}

// ListActive returns the user's current stock, newest first.
func (r *Repository) ListActive(ctx context.Context, userID string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.ItemStatusActive).
		Order("updated_at DESC").
		Find(&items).Error
	return items, err
}

// ListHistory returns consumed/expired/discarded rows, most recent first.
func (r *Repository) ListHistory(ctx context.Context, userID string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, enums.ItemStatusActive).
		Order("consumed_date DESC").
		Find(&items).Error
	return items, err
}

// ListByLocation returns active items in the given storage location.
func (r *Repository) ListByLocation(ctx context.Context, userID, location string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND storage_location = ?", userID, enums.ItemStatusActive, location).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

// Save persists the full row and marks it dirty.
func (r *Repository) Save(ctx context.Context, item *models.InventoryItem) error {
	item.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// Delete removes the row. Explicit user delete is the only hard deletion in
// the item lifecycle.
func (r *Repository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.InventoryItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	r.invalidate()
	return nil
}

func (r *Repository) invalidate() {
	if r.bus != nil {
		r.bus.Publish(models.InventoryItem{}.TableName())
	}
}

func validateItem(item *models.InventoryItem) error {
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item required")
	}
	details := map[string]string{}
	if strings.TrimSpace(item.Name) == "" {
		details["name"] = "is required"
	}
	if strings.TrimSpace(item.UserID) == "" {
		details["user_id"] = "is required"
	}
	if item.CategoryID == uuid.Nil {
		details["category_id"] = "is required"
	}
	if item.UnitID == uuid.Nil {
		details["unit_id"] = "is required"
	}
	if item.Quantity < 0 {
		details["quantity"] = "must not be negative"
	}
	if item.RestockThreshold < 0 {
		details["restock_threshold"] = "must not be negative"
	}
	if strings.TrimSpace(item.StorageLocation) == "" {
		details["storage_location"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid inventory item").WithDetails(details)
	}
	return nil
}
