package prices

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
)

// DeletedStoreName is shown for observations whose store was deleted after
// the record was written. The read path tolerates the broken reference
// instead of failing.
const DeletedStoreName = "Unknown store"

// Repository manages the append-only price history. Records are never
// updated or deleted once written.
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

// Watch subscribes to invalidations of the price history table.
func (r *Repository) Watch() *observe.Subscription {
	return r.bus.Subscribe(models.PriceRecord{}.TableName())
}

// Record appends one observation.
func (r *Repository) Record(ctx context.Context, record *models.PriceRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.PurchaseDate.IsZero() {
		record.PurchaseDate = time.Now()
	}
	record.SyncState = enums.SyncStateDirty
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return err
	}
	r.invalidate()
	return nil
}

// Observation is a price record joined with its store name. StoreName falls
// back to DeletedStoreName when the store no longer exists.
type Observation struct {
	Record    models.PriceRecord
	StoreName string
}

// History returns every observation for a barcode, newest first.
func (r *Repository) History(ctx context.Context, userID, barcode string) ([]Observation, error) {
	var records []models.PriceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND barcode = ?", userID, barcode).
		Order("purchase_date DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return r.resolveStores(ctx, records)
}

// BestDeal returns the cheapest observation for a barcode across all stores,
// or CodeNotFound when no history exists.
func (r *Repository) BestDeal(ctx context.Context, userID, barcode string) (*Observation, error) {
	var record models.PriceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND barcode = ?", userID, barcode).
		Order("price ASC, purchase_date DESC").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no price history for barcode")
		}
		return nil, err
	}
	resolved, err := r.resolveStores(ctx, []models.PriceRecord{record})
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}

// TrendPoint is one (date, price) pair for charting.
type TrendPoint struct {
	Date  time.Time
	Price decimal.Decimal
}

// Trend returns observations for a barcode at one store in chronological
// order, within the lookback window.
func (r *Repository) Trend(ctx context.Context, userID, barcode string, storeID uuid.UUID, since time.Time) ([]TrendPoint, error) {
	var records []models.PriceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND barcode = ? AND store_id = ? AND purchase_date >= ?",
			userID, barcode, storeID, since).
		Order("purchase_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	points := make([]TrendPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, TrendPoint{Date: rec.PurchaseDate, Price: rec.Price})
	}
	return points, nil
}

func (r *Repository) resolveStores(ctx context.Context, records []models.PriceRecord) ([]Observation, error) {
	ids := make([]uuid.UUID, 0, len(records))
	seen := map[uuid.UUID]struct{}{}
	for _, rec := range records {
		if _, ok := seen[rec.StoreID]; !ok {
			seen[rec.StoreID] = struct{}{}
			ids = append(ids, rec.StoreID)
		}
	}

	names := map[uuid.UUID]string{}
	if len(ids) > 0 {
		var found []models.Store
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
			return nil, err
		}
		for _, store := range found {
			names[store.ID] = store.Name
		}
	}

	out := make([]Observation, 0, len(records))
	for _, rec := range records {
		name, ok := names[rec.StoreID]
		if !ok {
			name = DeletedStoreName
		}
		out = append(out, Observation{Record: rec, StoreName: name})
	}
	return out, nil
}

func (r *Repository) invalidate() {
	if r.bus != nil {
		r.bus.Publish(models.PriceRecord{}.TableName())
	}
}

func validateRecord(record *models.PriceRecord) error {
	if record == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "price record required")
	}
	details := map[string]string{}
	if strings.TrimSpace(record.Barcode) == "" {
		details["barcode"] = "is required"
	}
	if strings.TrimSpace(record.ProductName) == "" {
		details["product_name"] = "is required"
	}
	if strings.TrimSpace(record.UserID) == "" {
		details["user_id"] = "is required"
	}
	if record.StoreID == uuid.Nil {
		details["store_id"] = "is required"
	}
	if record.Price.IsNegative() {
		details["price"] = "must not be negative"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid price record").WithDetails(details)
	}
	return nil
}
