package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
)

// CartItem is a per-user pre-checkout staging row. It exists independently of
// any shopping list so items can be scanned directly into the cart.
type CartItem struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID       string           `gorm:"column:user_id;not null;index"`
	ItemName     string           `gorm:"column:item_name;not null"`
	Quantity     float64          `gorm:"column:quantity;not null"`
	UnitID       uuid.UUID        `gorm:"column:unit_id;type:uuid;not null"`
	CategoryID   uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	Barcode      *string          `gorm:"column:barcode;index"`
	Brand        *string          `gorm:"column:brand"`
	Price        *decimal.Decimal `gorm:"column:price;type:numeric"`
	Weight       *float64         `gorm:"column:weight"`
	WeightUnit   *string          `gorm:"column:weight_unit"`
	ImageURL     *string          `gorm:"column:image_url"`
	Notes        *string          `gorm:"column:notes"`
	SourceScanID *uuid.UUID       `gorm:"column:source_scan_id;type:uuid"`
	NeedsReview  bool             `gorm:"column:needs_review;not null;default:false"`

	ExpiryOverride   *time.Time `gorm:"column:expiry_override"`
	LocationOverride *string    `gorm:"column:location_override"`

	SyncState enums.SyncState `gorm:"column:sync_state;not null;default:'dirty';index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
