package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
)

// Store is a retail location referenced by price records and checkouts.
// Name is deliberately not unique: concurrent checkouts may create duplicate
// stores with the same name, callers de-duplicate by name search first.
type Store struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	Name      string    `gorm:"column:name;not null;index"`
	Address   *string   `gorm:"column:address"`
	Latitude  *float64  `gorm:"column:latitude"`
	Longitude *float64  `gorm:"column:longitude"`

	SyncState enums.SyncState `gorm:"column:sync_state;not null;default:'dirty';index"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Store) TableName() string {
	return "stores"
}
