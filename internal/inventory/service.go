package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marisol-apps/pantrylog-backend/internal/notifications"
	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

// Service is the inventory lifecycle engine: it owns the status state
// machine and every non-transition mutation on active items.
type Service struct {
	repo      *Repository
	scheduler notifications.Scheduler
	logg      *logger.Logger
}

// NewService builds the lifecycle engine.
func NewService(repo *Repository, scheduler notifications.Scheduler, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("notification scheduler required")
	}
	return &Service{repo: repo, scheduler: scheduler, logg: logg}, nil
}

// CreateInput captures a manual or scan-sourced item entry.
type CreateInput struct {
	Name            string
	Barcode         *string
	Brand           *string
	CategoryID      uuid.UUID
	Quantity        float64
	UnitID          uuid.UUID
	ExpiryDate      *time.Time
	StorageLocation string
	ImageURL        *string
	Price           *decimal.Decimal
	PurchaseDate    *time.Time
	Notes           *string
	SourceScanID    *uuid.UUID

	// CatalogMatched is true when an external product lookup confirmed the
	// item. Anything else enters the review queue.
	CatalogMatched bool
}

// Create inserts a new active item. Items without a confirmed catalog match
// are flagged for review so they can be reconciled later.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*models.InventoryItem, error) {
	item := &models.InventoryItem{
		UserID:          userID,
		Name:            input.Name,
		Barcode:         input.Barcode,
		Brand:           input.Brand,
		CategoryID:      input.CategoryID,
		Quantity:        input.Quantity,
		UnitID:          input.UnitID,
		ExpiryDate:      input.ExpiryDate,
		StorageLocation: input.StorageLocation,
		ImageURL:        input.ImageURL,
		Price:           input.Price,
		PurchaseDate:    input.PurchaseDate,
		Notes:           input.Notes,
		SourceScanID:    input.SourceScanID,
		Status:          enums.ItemStatusActive,
		NeedsReview:     !input.CatalogMatched,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	if item.ExpiryDate != nil {
		s.schedule(ctx, item.ID, *item.ExpiryDate)
	}
	return item, nil
}

// MarkConsumed transitions an active item out of stock. The outcome variant
// determines the target status; quantityRemaining defaults to zero.
func (s *Service) MarkConsumed(ctx context.Context, userID string, id uuid.UUID, outcome enums.ConsumptionOutcome, quantityRemaining *float64) (*models.InventoryItem, error) {
	if !outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid consumption outcome %q", outcome))
	}
	item, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item.Status != enums.ItemStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only active items can be consumed").
			WithDetails(map[string]any{"status": item.Status})
	}

	now := time.Now()
	remaining := float64(0)
	if quantityRemaining != nil && *quantityRemaining > 0 {
		remaining = *quantityRemaining
	}
	reason := outcome
	item.Status = outcome.Status()
	item.ConsumedDate = &now
	item.ConsumedReason = &reason
	item.QuantityRemaining = &remaining

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.cancel(ctx, item.ID)
	return item, nil
}

// RestoreToActive returns a terminal item to stock. Restoring an already
// active item is a no-op rather than an error.
func (s *Service) RestoreToActive(ctx context.Context, userID string, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item.Status == enums.ItemStatusActive && item.ConsumedDate == nil && item.ConsumedReason == nil {
		return item, nil
	}

	item.Status = enums.ItemStatusActive
	item.ConsumedDate = nil
	item.ConsumedReason = nil
	item.QuantityRemaining = nil

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	if item.ExpiryDate != nil {
		s.schedule(ctx, item.ID, *item.ExpiryDate)
	}
	return item, nil
}

// AdjustQuantity applies a delta, clamping at zero. Reaching zero does not
// auto-transition the status; the engine stays active until an explicit
// MarkConsumed call.
func (s *Service) AdjustQuantity(ctx context.Context, userID string, id uuid.UUID, delta float64) (*models.InventoryItem, error) {
	item, err := s.activeItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next := item.Quantity + delta
	if next < 0 {
		next = 0
	}
	item.Quantity = next
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// MoveToLocation updates the storage location key.
func (s *Service) MoveToLocation(ctx context.Context, userID string, id uuid.UUID, location string) (*models.InventoryItem, error) {
	if location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage location required")
	}
	item, err := s.activeItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	item.StorageLocation = location
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ConfirmNoExpiry records the user's explicit "no expiry" answer, clearing
// the review nag without setting a date.
func (s *Service) ConfirmNoExpiry(ctx context.Context, userID string, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.activeItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	item.ExpiryConfirmed = true
	item.ExpiryDate = nil
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.cancel(ctx, item.ID)
	return item, nil
}

// SetExpiryDate stores the expiry and (re)schedules the reminder.
func (s *Service) SetExpiryDate(ctx context.Context, userID string, id uuid.UUID, expiry time.Time) (*models.InventoryItem, error) {
	item, err := s.activeItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	item.ExpiryDate = &expiry
	item.ExpiryConfirmed = true
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.schedule(ctx, item.ID, expiry)
	return item, nil
}

// ToggleImportant flips restock tracking for the item.
func (s *Service) ToggleImportant(ctx context.Context, userID string, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.activeItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	item.IsImportant = !item.IsImportant
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetRestockThreshold validates and stores the replenishment threshold.
func (s *Service) SetRestockThreshold(ctx context.Context, userID string, id uuid.UUID, threshold int) (*models.InventoryItem, error) {
	if threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock threshold must not be negative")
	}
	item, err := s.activeItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	item.RestockThreshold = threshold
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// MarkReviewed clears the needs-review flag after reconciliation.
func (s *Service) MarkReviewed(ctx context.Context, userID string, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	item.NeedsReview = false
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the item and cancels any pending reminder.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.cancel(ctx, id)
	return nil
}

func (s *Service) activeItem(ctx context.Context, userID string, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item.Status != enums.ItemStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item is not active").
			WithDetails(map[string]any{"status": item.Status})
	}
	return item, nil
}

func (s *Service) schedule(ctx context.Context, itemID uuid.UUID, expiry time.Time) {
	if err := s.scheduler.Schedule(ctx, itemID, expiry); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithItemID(ctx, itemID.String()), "failed to schedule expiry reminder")
	}
}

func (s *Service) cancel(ctx context.Context, itemID uuid.UUID) {
	if err := s.scheduler.Cancel(ctx, itemID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithItemID(ctx, itemID.String()), "failed to cancel expiry reminder")
	}
}
