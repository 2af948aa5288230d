package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
)

// ExpiringSoonWindowDays bounds the "expiring soon" derived flag.
const ExpiringSoonWindowDays = 3

// InventoryItem is the central aggregate: one physical purchase of a product.
// Active stock and consumption history share this table; leaving active stock
// is a status transition, not a deletion. Barcode is intentionally not unique,
// repeat purchases of the same product are distinct rows.
type InventoryItem struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID          string           `gorm:"column:user_id;not null;index"`
	Name            string           `gorm:"column:name;not null"`
	Barcode         *string          `gorm:"column:barcode;index"`
	Brand           *string          `gorm:"column:brand"`
	CategoryID      uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	Quantity        float64          `gorm:"column:quantity;not null;default:0"`
	UnitID          uuid.UUID        `gorm:"column:unit_id;type:uuid;not null"`
	ExpiryDate      *time.Time       `gorm:"column:expiry_date"`
	StorageLocation string           `gorm:"column:storage_location;not null"`
	ImageURL        *string          `gorm:"column:image_url"`
	AddedDate       time.Time        `gorm:"column:added_date;not null"`
	Price           *decimal.Decimal `gorm:"column:price;type:numeric"`
	PurchaseDate    *time.Time       `gorm:"column:purchase_date"`
	Notes           *string          `gorm:"column:notes"`
	SourceScanID    *uuid.UUID       `gorm:"column:source_scan_id;type:uuid"`

	Status            enums.ItemStatus          `gorm:"column:status;not null;default:'active'"`
	ConsumedDate      *time.Time                `gorm:"column:consumed_date"`
	ConsumedReason    *enums.ConsumptionOutcome `gorm:"column:consumed_reason"`
	QuantityRemaining *float64                  `gorm:"column:quantity_remaining"`

	IsImportant      bool `gorm:"column:is_important;not null;default:false"`
	RestockThreshold int  `gorm:"column:restock_threshold;not null;default:0"`

	ExpiryConfirmed bool `gorm:"column:expiry_confirmed;not null;default:false"`
	NeedsReview     bool `gorm:"column:needs_review;not null;default:false"`

	SyncState enums.SyncState `gorm:"column:sync_state;not null;default:'dirty';index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// DaysUntilExpiry returns whole days until the expiry date, negative when past.
// The second return is false when no expiry date is set.
func (i InventoryItem) DaysUntilExpiry(now time.Time) (int, bool) {
	if i.ExpiryDate == nil {
		return 0, false
	}
	return int(i.ExpiryDate.Sub(now).Hours() / 24), true
}

// IsExpired reports whether the expiry date has passed. Computed on every
// read, never stored.
func (i InventoryItem) IsExpired(now time.Time) bool {
	return i.ExpiryDate != nil && i.ExpiryDate.Before(now)
}

// IsExpiringSoon reports whether expiry falls within the warning window.
func (i InventoryItem) IsExpiringSoon(now time.Time) bool {
	days, ok := i.DaysUntilExpiry(now)
	if !ok || i.IsExpired(now) {
		return false
	}
	return days >= 0 && days <= ExpiringSoonWindowDays
}

// NeedsRestock reports whether a tracked active item fell to its threshold.
func (i InventoryItem) NeedsRestock() bool {
	return i.IsImportant && i.Status == enums.ItemStatusActive && i.Quantity <= float64(i.RestockThreshold)
}

// NeedsExpiryAttention reports whether the user still owes an expiry answer.
func (i InventoryItem) NeedsExpiryAttention() bool {
	return i.Status == enums.ItemStatusActive && i.ExpiryDate == nil && !i.ExpiryConfirmed
}
