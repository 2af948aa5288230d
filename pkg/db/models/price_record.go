package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
)

// PriceRecord is an append-only observation of a price paid for a barcode at
// a store. Never mutated after creation.
type PriceRecord struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID       string          `gorm:"column:user_id;not null;index"`
	Barcode      string          `gorm:"column:barcode;not null;index"`
	ProductName  string          `gorm:"column:product_name;not null"`
	StoreID      uuid.UUID       `gorm:"column:store_id;type:uuid;not null;index"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric;not null"`
	PurchaseDate time.Time       `gorm:"column:purchase_date;not null"`

	SyncState enums.SyncState `gorm:"column:sync_state;not null;default:'dirty';index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (PriceRecord) TableName() string {
	return "price_records"
}
