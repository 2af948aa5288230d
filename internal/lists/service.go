package lists

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
)

// Service implements the planning side of the shopping pipeline: list CRUD,
// item ticking, and the explicit completion step that freezes a list into a
// purchase record.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lists repository required")
	}
	return &Service{repo: repo}, nil
}

// CreateList opens a new planning list.
func (s *Service) CreateList(ctx context.Context, userID, name string, notes *string) (*models.ShoppingList, error) {
	list := &models.ShoppingList{
		UserID: userID,
		Name:   name,
		Notes:  notes,
	}
	if err := s.repo.CreateList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Get returns the list with its items.
func (s *Service) Get(ctx context.Context, userID string, listID uuid.UUID) (*models.ShoppingList, error) {
	return s.repo.FindListWithItems(ctx, userID, listID)
}

// ListForUser returns every list, open planning lists first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.ShoppingList, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Rename updates the list name. Frozen lists are immutable.
func (s *Service) Rename(ctx context.Context, userID string, listID uuid.UUID, name string) (*models.ShoppingList, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list name required")
	}
	list, err := s.openList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	list.Name = name
	if err := s.repo.SaveList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete removes the list and all of its items.
func (s *Service) Delete(ctx context.Context, userID string, listID uuid.UUID) error {
	return s.repo.DeleteList(ctx, userID, listID)
}

// AddItemInput captures a planned purchase row.
type AddItemInput struct {
	ItemName   string
	Quantity   float64
	UnitID     uuid.UUID
	CategoryID uuid.UUID
	Barcode    *string
	Brand      *string
	Price      *decimal.Decimal
	Weight     *float64
	WeightUnit *string
	ImageURL   *string
	Notes      *string
}

// AddItem appends a row to an open list.
func (s *Service) AddItem(ctx context.Context, userID string, listID uuid.UUID, input AddItemInput) (*models.ListItem, error) {
	if _, err := s.openList(ctx, userID, listID); err != nil {
		return nil, err
	}
	item := &models.ListItem{
		UserID:     userID,
		ListID:     listID,
		ItemName:   input.ItemName,
		Quantity:   input.Quantity,
		UnitID:     input.UnitID,
		CategoryID: input.CategoryID,
		Barcode:    input.Barcode,
		Brand:      input.Brand,
		Price:      input.Price,
		Weight:     input.Weight,
		WeightUnit: input.WeightUnit,
		ImageURL:   input.ImageURL,
		Notes:      input.Notes,
	}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem deletes a row from an open list.
func (s *Service) RemoveItem(ctx context.Context, userID string, listID, itemID uuid.UUID) error {
	if _, err := s.openList(ctx, userID, listID); err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, listID, itemID)
}

// SetPurchased ticks or unticks a row.
func (s *Service) SetPurchased(ctx context.Context, userID string, listID, itemID uuid.UUID, purchased bool) (*models.ListItem, error) {
	if _, err := s.openList(ctx, userID, listID); err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}
	item.IsPurchased = purchased
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetOverrides stores the per-item expiry/location used when the purchased
// row is later promoted to inventory.
func (s *Service) SetOverrides(ctx context.Context, userID string, listID, itemID uuid.UUID, expiry *time.Time, location *string) (*models.ListItem, error) {
	if _, err := s.openList(ctx, userID, listID); err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}
	item.ExpiryOverride = expiry
	item.LocationOverride = location
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Complete freezes the list into a purchase record: stamps the checkout
// date and computes the total over purchased rows. Unpurchased rows are left
// in place as part of the record.
func (s *Service) Complete(ctx context.Context, userID string, listID uuid.UUID) (*models.ShoppingList, error) {
	list, err := s.openList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	purchased, err := s.repo.PurchasedForList(ctx, listID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, row := range purchased {
		if row.Price == nil {
			continue
		}
		total = total.Add(row.Price.Mul(decimal.NewFromFloat(row.Quantity)))
	}

	now := time.Now()
	list.IsCheckedOut = true
	list.IsCompleted = true
	list.CheckoutDate = &now
	list.TotalPrice = &total
	if err := s.repo.SaveList(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) openList(ctx context.Context, userID string, listID uuid.UUID) (*models.ShoppingList, error) {
	list, err := s.repo.FindList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if list.IsCheckedOut {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "list is checked out and immutable")
	}
	return list, nil
}
