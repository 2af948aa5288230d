package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
)

// Category is seeded reference data keyed from every item row. Deleting a
// category that is still referenced must be refused, never silently orphaned.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	Icon      string    `gorm:"column:icon;not null"`
	Color     string    `gorm:"column:color;not null"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Category) TableName() string {
	return "categories"
}

// Unit is seeded measurement reference data.
type Unit struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name         string         `gorm:"column:name;not null;uniqueIndex"`
	Abbreviation string         `gorm:"column:abbreviation;not null"`
	UnitType     enums.UnitType `gorm:"column:unit_type;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Unit) TableName() string {
	return "units"
}
