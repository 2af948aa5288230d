package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/internal/cart"
	"github.com/marisol-apps/pantrylog-backend/internal/inventory"
	"github.com/marisol-apps/pantrylog-backend/internal/lists"
	"github.com/marisol-apps/pantrylog-backend/internal/notifications"
	"github.com/marisol-apps/pantrylog-backend/internal/prices"
	"github.com/marisol-apps/pantrylog-backend/internal/products"
	"github.com/marisol-apps/pantrylog-backend/internal/stores"
	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

// TxRunner executes fn inside one transaction. Satisfied by db.Client.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts purchased cart or list rows into inventory records plus
// price history, atomically. Either every row of a checkout lands or none.
type Service struct {
	tx          TxRunner
	inventory   *inventory.Repository
	cart        *cart.Repository
	lists       *lists.Repository
	stores      *stores.Repository
	prices      *prices.Repository
	scheduler   notifications.Scheduler
	contributor products.Contributor
	logg        *logger.Logger
}

func NewService(
	tx TxRunner,
	inventoryRepo *inventory.Repository,
	cartRepo *cart.Repository,
	listRepo *lists.Repository,
	storeRepo *stores.Repository,
	priceRepo *prices.Repository,
	scheduler notifications.Scheduler,
	contributor products.Contributor,
	logg *logger.Logger,
) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inventoryRepo == nil || cartRepo == nil || listRepo == nil || storeRepo == nil || priceRepo == nil {
		return nil, fmt.Errorf("all repositories required")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("notification scheduler required")
	}
	return &Service{
		tx:          tx,
		inventory:   inventoryRepo,
		cart:        cartRepo,
		lists:       listRepo,
		stores:      storeRepo,
		prices:      priceRepo,
		scheduler:   scheduler,
		contributor: contributor,
		logg:        logg,
	}, nil
}

// Input carries the trip-level checkout parameters. Per-item expiry and
// location overrides live on the rows themselves.
type Input struct {
	StoreName       string
	DefaultLocation string
}

// ManifestEntry identifies one created inventory item for downstream use.
type ManifestEntry struct {
	ItemID  uuid.UUID `json:"itemId"`
	Name    string    `json:"name"`
	Barcode *string   `json:"barcode,omitempty"`
}

// Result summarizes a completed checkout.
type Result struct {
	StoreID     uuid.UUID       `json:"storeId"`
	Created     []ManifestEntry `json:"created"`
	TickedCount int             `json:"tickedCount"`
}

// CheckoutCart promotes the user's entire cart to inventory, records prices,
// clears the cart, and auto-ticks matching unpurchased rows on open lists.
func (s *Service) CheckoutCart(ctx context.Context, userID string, input Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	rows, err := s.cart.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	staged := make([]stagedItem, 0, len(rows))
	for _, row := range rows {
		staged = append(staged, stagedFromCart(row))
	}

	result := &Result{}
	var created []*models.InventoryItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.stores.WithTx(tx).GetOrCreateByName(ctx, userID, input.StoreName)
		if err != nil {
			return err
		}
		result.StoreID = store.ID

		created, err = s.promote(ctx, tx, userID, store.ID, input.DefaultLocation, staged)
		if err != nil {
			return err
		}
		for _, item := range created {
			result.Created = append(result.Created, ManifestEntry{ItemID: item.ID, Name: item.Name, Barcode: item.Barcode})
		}

		ticked, err := s.crossReference(ctx, tx, userID, result.Created)
		if err != nil {
			return err
		}
		result.TickedCount = ticked

		return s.cart.WithTx(tx).ClearForUser(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, created)
	return result, nil
}

// CheckoutList promotes the ticked subset of an open list. Unticked rows
// stay for future trips and the list remains open until explicitly
// completed.
func (s *Service) CheckoutList(ctx context.Context, userID string, listID uuid.UUID, input Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	list, err := s.lists.FindList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if list.IsCheckedOut {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "list is checked out and immutable")
	}
	rows, err := s.lists.PurchasedForList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no purchased items to check out")
	}

	staged := make([]stagedItem, 0, len(rows))
	for _, row := range rows {
		staged = append(staged, stagedFromList(row))
	}

	result := &Result{}
	var created []*models.InventoryItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.stores.WithTx(tx).GetOrCreateByName(ctx, userID, input.StoreName)
		if err != nil {
			return err
		}
		result.StoreID = store.ID

		created, err = s.promote(ctx, tx, userID, store.ID, input.DefaultLocation, staged)
		if err != nil {
			return err
		}
		for _, item := range created {
			result.Created = append(result.Created, ManifestEntry{ItemID: item.ID, Name: item.Name, Barcode: item.Barcode})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, created)
	return result, nil
}

// stagedItem is the common shape cart and list rows are reduced to before
// promotion.
type stagedItem struct {
	Name             string
	Barcode          *string
	Brand            *string
	CategoryID       uuid.UUID
	Quantity         float64
	UnitID           uuid.UUID
	ImageURL         *string
	Notes            *string
	SourceScanID     *uuid.UUID
	NeedsReview      bool
	ExpiryOverride   *time.Time
	LocationOverride *string

	// Price always lands on the created item; PriceValue is set only for
	// barcoded rows, because price history is keyed by barcode.
	Price      *decimal.Decimal
	PriceValue priceValue
}

type priceValue struct {
	set   bool
	value models.PriceRecord
}

func stagedFromCart(row models.CartItem) stagedItem {
	item := stagedItem{
		Name:             row.ItemName,
		Barcode:          row.Barcode,
		Brand:            row.Brand,
		CategoryID:       row.CategoryID,
		Quantity:         row.Quantity,
		UnitID:           row.UnitID,
		ImageURL:         row.ImageURL,
		Notes:            row.Notes,
		SourceScanID:     row.SourceScanID,
		NeedsReview:      row.NeedsReview,
		ExpiryOverride:   row.ExpiryOverride,
		LocationOverride: row.LocationOverride,
		Price:            row.Price,
	}
	// price history is keyed by barcode; a priced row without one keeps
	// its price on the inventory item only
	if row.Price != nil && row.Barcode != nil {
		item.PriceValue = priceValue{set: true, value: models.PriceRecord{
			Barcode:     *row.Barcode,
			ProductName: row.ItemName,
			Price:       *row.Price,
		}}
	}
	return item
}

func stagedFromList(row models.ListItem) stagedItem {
	item := stagedItem{
		Name:             row.ItemName,
		Barcode:          row.Barcode,
		Brand:            row.Brand,
		CategoryID:       row.CategoryID,
		Quantity:         row.Quantity,
		UnitID:           row.UnitID,
		ImageURL:         row.ImageURL,
		Notes:            row.Notes,
		ExpiryOverride:   row.ExpiryOverride,
		LocationOverride: row.LocationOverride,
		Price:            row.Price,
	}
	// same barcode-keyed narrowing as the cart path
	if row.Price != nil && row.Barcode != nil {
		item.PriceValue = priceValue{set: true, value: models.PriceRecord{
			Barcode:     *row.Barcode,
			ProductName: row.ItemName,
			Price:       *row.Price,
		}}
	}
	return item
}

// promote creates one inventory item per staged row and one price record per
// priced barcode, all on the supplied transaction.
func (s *Service) promote(ctx context.Context, tx *gorm.DB, userID string, storeID uuid.UUID, defaultLocation string, staged []stagedItem) ([]*models.InventoryItem, error) {
	invRepo := s.inventory.WithTx(tx)
	priceRepo := s.prices.WithTx(tx)
	now := time.Now()

	created := make([]*models.InventoryItem, 0, len(staged))
	for _, row := range staged {
		location := defaultLocation
		if row.LocationOverride != nil && *row.LocationOverride != "" {
			location = *row.LocationOverride
		}

		item := &models.InventoryItem{
			UserID:          userID,
			Name:            row.Name,
			Barcode:         row.Barcode,
			Brand:           row.Brand,
			CategoryID:      row.CategoryID,
			Quantity:        row.Quantity,
			UnitID:          row.UnitID,
			ExpiryDate:      row.ExpiryOverride,
			StorageLocation: location,
			ImageURL:        row.ImageURL,
			PurchaseDate:    &now,
			Notes:           row.Notes,
			SourceScanID:    row.SourceScanID,
			Status:          enums.ItemStatusActive,
			NeedsReview:     row.NeedsReview,
		}
		if row.Price != nil {
			price := *row.Price
			item.Price = &price
		}
		if err := invRepo.Create(ctx, item); err != nil {
			return nil, err
		}
		created = append(created, item)

		if row.PriceValue.set {
			record := row.PriceValue.value
			record.UserID = userID
			record.StoreID = storeID
			record.PurchaseDate = now
			if err := priceRepo.Record(ctx, &record); err != nil {
				return nil, err
			}
		}
	}
	return created, nil
}

// crossReference ticks unpurchased rows on the user's open lists that match
// a checked-out item by barcode, falling back to a case-insensitive name
// match. Each list row is ticked at most once.
func (s *Service) crossReference(ctx context.Context, tx *gorm.DB, userID string, created []ManifestEntry) (int, error) {
	listRepo := s.lists.WithTx(tx)
	candidates, err := listRepo.UnpurchasedAcrossOpenLists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	barcodes := map[string]struct{}{}
	names := map[string]struct{}{}
	for _, entry := range created {
		if entry.Barcode != nil && *entry.Barcode != "" {
			barcodes[*entry.Barcode] = struct{}{}
		}
		names[strings.ToLower(entry.Name)] = struct{}{}
	}

	ticked := 0
	for i := range candidates {
		row := &candidates[i]
		matched := false
		if row.Barcode != nil && *row.Barcode != "" {
			_, matched = barcodes[*row.Barcode]
		}
		if !matched {
			_, matched = names[strings.ToLower(row.ItemName)]
		}
		if !matched {
			continue
		}
		row.IsPurchased = true
		if err := listRepo.SaveItem(ctx, row); err != nil {
			return 0, err
		}
		ticked++
	}
	return ticked, nil
}

// afterCommit runs the non-transactional followups: expiry reminders and
// fire-and-forget contribution of unrecognized products.
func (s *Service) afterCommit(ctx context.Context, created []*models.InventoryItem) {
	for _, item := range created {
		if item.ExpiryDate != nil {
			if err := s.scheduler.Schedule(ctx, item.ID, *item.ExpiryDate); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "failed to schedule expiry reminder")
			}
		}
		if s.contributor != nil && item.NeedsReview && item.Barcode != nil {
			s.contributor.Contribute(ctx, products.Contribution{
				Barcode:  *item.Barcode,
				Name:     item.Name,
				Brand:    item.Brand,
				ImageURL: item.ImageURL,
			})
		}
	}
}

func validateInput(input Input) error {
	details := map[string]string{}
	if strings.TrimSpace(input.StoreName) == "" {
		details["store_name"] = "is required"
	}
	if strings.TrimSpace(input.DefaultLocation) == "" {
		details["default_location"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout input").WithDetails(details)
	}
	return nil
}
