package lists

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

// Repository manages shopping lists and their owned items. The list owns its
// rows: deleting a list removes its items in the same transaction.
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

// Watch subscribes to invalidations of the shopping list tables.
func (r *Repository) Watch() *observe.Subscription {
	return r.bus.Subscribe(models.ShoppingList{}.TableName())
}

// CreateList inserts a new planning list.
func (r *Repository) CreateList(ctx context.Context, list *models.ShoppingList) error {
	if list == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "list required")
	}
	if strings.TrimSpace(list.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "list name required")
	}
	if strings.TrimSpace(list.UserID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if list.ID == uuid.Nil {
		list.ID = uuid.New()
	}
	if list.CreatedDate.IsZero() {
		list.CreatedDate = time.Now()
	}
	list.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// FindList returns the user's list or CodeNotFound.
func (r *Repository) FindList(ctx context.Context, userID string, id uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shopping list not found")
		}
		return nil, err
	}
	return &list, nil
}

// FindListWithItems returns the list with its items preloaded.
func (r *Repository) FindListWithItems(ctx context.Context, userID string, id uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shopping list not found")
		}
		return nil, err
	}
	return &list, nil
}

// ListForUser returns the user's lists, open planning lists first, newest
// within each group.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]models.ShoppingList, error) {
	var found []models.ShoppingList
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_checked_out ASC, created_date DESC").
		Find(&found).Error
	return found, err
}

// ListOpen returns the user's planning lists only.
func (r *Repository) ListOpen(ctx context.Context, userID string) ([]models.ShoppingList, error) {
	var found []models.ShoppingList
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_checked_out = ?", userID, false).
		Order("created_date DESC").
		Find(&found).Error
	return found, err
}

// SaveList persists the full row and marks it dirty.
func (r *Repository) SaveList(ctx context.Context, list *models.ShoppingList) error {
	list.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Save(list).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// DeleteList removes the list and its items inside one transaction.
func (r *Repository) DeleteList(ctx context.Context, userID string, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.ShoppingList{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shopping list not found")
		}
		// sqlite does not always enforce FK cascade, so delete children
		// explicitly inside the same transaction.
		return tx.Where("list_id = ?", id).Delete(&models.ListItem{}).Error
	})
	if err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// AddItem inserts a row under the list.
func (r *Repository) AddItem(ctx context.Context, item *models.ListItem) error {
	if err := validateListItem(item); err != nil {
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

// FindItem returns a row under the given list or CodeNotFound.
func (r *Repository) FindItem(ctx context.Context, listID, itemID uuid.UUID) (*models.ListItem, error) {
	var item models.ListItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND list_id = ?", itemID, listID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "list item not found")
		}
		return nil, err
	}
	return &item, nil
}

// ItemsForList returns every row of the list, unpurchased first.
func (r *Repository) ItemsForList(ctx context.Context, listID uuid.UUID) ([]models.ListItem, error) {
	var items []models.ListItem
	err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("is_purchased ASC, item_name ASC").
		Find(&items).Error
	return items, err
}

// PurchasedForList returns the ticked subset only.
func (r *Repository) PurchasedForList(ctx context.Context, listID uuid.UUID) ([]models.ListItem, error) {
	var items []models.ListItem
	err := r.db.WithContext(ctx).
		Where("list_id = ? AND is_purchased = ?", listID, true).
		Order("item_name ASC").
		Find(&items).Error
	return items, err
}

// SaveItem persists the full row and marks it dirty.
func (r *Repository) SaveItem(ctx context.Context, item *models.ListItem) error {
	item.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// DeleteItem removes a single row from the list.
func (r *Repository) DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND list_id = ?", itemID, listID).
		Delete(&models.ListItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "list item not found")
	}
	r.invalidate()
	return nil
}

// UnpurchasedAcrossOpenLists returns unticked rows from every open planning
// list of the user, for barcode/name cross-referencing at checkout.
func (r *Repository) UnpurchasedAcrossOpenLists(ctx context.Context, userID string) ([]models.ListItem, error) {
	var items []models.ListItem
	err := r.db.WithContext(ctx).
		Joins("JOIN shopping_lists ON shopping_lists.id = list_items.list_id").
		Where("shopping_lists.user_id = ? AND shopping_lists.is_checked_out = ? AND list_items.is_purchased = ?",
			userID, false, false).
		Find(&items).Error
	return items, err
}

func (r *Repository) invalidate() {
	if r.bus != nil {
		r.bus.Publish(models.ShoppingList{}.TableName())
	}
}

func validateListItem(item *models.ListItem) error {
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
	if item.ListID == uuid.Nil {
		details["list_id"] = "is required"
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
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid list item").WithDetails(details)
	}
	return nil
}
