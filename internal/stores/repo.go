package stores

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

// Repository manages retail store records. There is no unique-name
// constraint: concurrent checkouts can create duplicates for the same name,
// so lookups search by name first and callers tolerate duplicates.
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

// Watch subscribes to invalidations of the store table.
func (r *Repository) Watch() *observe.Subscription {
	return r.bus.Subscribe(models.Store{}.TableName())
}

// Create inserts a new store.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store required")
	}
	if strings.TrimSpace(store.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "store name required")
	}
	if strings.TrimSpace(store.UserID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	store.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// FindByID returns the user's store or CodeNotFound.
func (r *Repository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&store).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, err
	}
	return &store, nil
}

// FindByName returns the oldest store matching the name, case-insensitive,
// or nil when none exists.
func (r *Repository) FindByName(ctx context.Context, userID, name string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).
		Order("created_at ASC").
		First(&store).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

// GetOrCreateByName resolves a store at checkout time. A concurrent call for
// the same name can produce a duplicate row; the name search keeps that rare
// and the duplicate is harmless to price history.
func (r *Repository) GetOrCreateByName(ctx context.Context, userID, name string) (*models.Store, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name required")
	}
	existing, err := r.FindByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	store := &models.Store{UserID: userID, Name: strings.TrimSpace(name)}
	if err := r.Create(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

// ListForUser returns the user's stores, alphabetical.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]models.Store, error) {
	var found []models.Store
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&found).Error
	return found, err
}

// Save persists the full row and marks it dirty.
func (r *Repository) Save(ctx context.Context, store *models.Store) error {
	store.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Save(store).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// Delete removes the store. Price records referencing it are kept and fall
// back to a placeholder name at read time.
func (r *Repository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Store{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	r.invalidate()
	return nil
}

func (r *Repository) invalidate() {
	if r.bus != nil {
		r.bus.Publish(models.Store{}.TableName())
	}
}
