package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
)

// ShoppingList is either a planning list (IsCheckedOut=false) or a frozen
// purchase record (IsCheckedOut=true, immutable except audit fields). The
// list owns its items; deleting the list cascades to them.
type ShoppingList struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID       string           `gorm:"column:user_id;not null;index"`
	Name         string           `gorm:"column:name;not null"`
	CreatedDate  time.Time        `gorm:"column:created_date;not null"`
	IsCompleted  bool             `gorm:"column:is_completed;not null;default:false"`
	IsCheckedOut bool             `gorm:"column:is_checked_out;not null;default:false"`
	CheckoutDate *time.Time       `gorm:"column:checkout_date"`
	StoreID      *uuid.UUID       `gorm:"column:store_id;type:uuid"`
	TotalPrice   *decimal.Decimal `gorm:"column:total_price;type:numeric"`
	Notes        *string          `gorm:"column:notes"`

	Items []ListItem `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE"`

	SyncState enums.SyncState `gorm:"column:sync_state;not null;default:'dirty';index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (ShoppingList) TableName() string {
	return "shopping_lists"
}

// ListItem belongs to a ShoppingList. Purchased rows may carry per-item
// expiry/location overrides applied at checkout. UserID duplicates the
// owning list's user so the sync engine can scope every tracked table by
// the same column.
type ListItem struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID      string           `gorm:"column:user_id;not null;index"`
	ListID      uuid.UUID        `gorm:"column:list_id;type:uuid;not null;index"`
	ItemName    string           `gorm:"column:item_name;not null"`
	Quantity    float64          `gorm:"column:quantity;not null"`
	UnitID      uuid.UUID        `gorm:"column:unit_id;type:uuid;not null"`
	CategoryID  uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	IsPurchased bool             `gorm:"column:is_purchased;not null;default:false"`
	Barcode     *string          `gorm:"column:barcode;index"`
	Brand       *string          `gorm:"column:brand"`
	Price       *decimal.Decimal `gorm:"column:price;type:numeric"`
	Weight      *float64         `gorm:"column:weight"`
	WeightUnit  *string          `gorm:"column:weight_unit"`
	ImageURL    *string          `gorm:"column:image_url"`
	Notes       *string          `gorm:"column:notes"`

	ExpiryOverride   *time.Time `gorm:"column:expiry_override"`
	LocationOverride *string    `gorm:"column:location_override"`

	SyncState enums.SyncState `gorm:"column:sync_state;not null;default:'dirty';index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (ListItem) TableName() string {
	return "list_items"
}
