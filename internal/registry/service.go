package registry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
)

// Service owns the category and unit reference registries. Both are seeded
// once and referenced by foreign key from every item row, so deletion is
// refused while references exist.
type Service struct {
	db  *gorm.DB
	bus *observe.Bus
}

// NewService binds the registry service to the provided DB handle.
func NewService(db *gorm.DB, bus *observe.Bus) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &Service{db: db, bus: bus}, nil
}

type seedCategory struct {
	name  string
	icon  string
	color string
}

type seedUnit struct {
	name     string
	abbrev   string
	unitType enums.UnitType
}

var defaultCategories = []seedCategory{
	{"Produce", "leaf", "#4CAF50"},
	{"Dairy & Eggs", "egg", "#FFF9C4"},
	{"Meat & Seafood", "fish", "#EF5350"},
	{"Bakery", "bread", "#A1887F"},
	{"Frozen", "snowflake", "#81D4FA"},
	{"Pantry", "jar", "#FFB74D"},
	{"Beverages", "cup", "#7986CB"},
	{"Snacks", "cookie", "#F06292"},
	{"Household", "home", "#90A4AE"},
	{"Other", "tag", "#BDBDBD"},
}

var defaultUnits = []seedUnit{
	{"piece", "pc", enums.UnitTypeCount},
	{"pack", "pk", enums.UnitTypeCount},
	{"gram", "g", enums.UnitTypeWeight},
	{"kilogram", "kg", enums.UnitTypeWeight},
	{"ounce", "oz", enums.UnitTypeWeight},
	{"pound", "lb", enums.UnitTypeWeight},
	{"milliliter", "ml", enums.UnitTypeVolume},
	{"liter", "l", enums.UnitTypeVolume},
}

// Seed inserts the default reference rows. Safe to run on every boot: rows
// are matched by name and never duplicated.
func (s *Service) Seed(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, c := range defaultCategories {
			// the lookup must carry only the name; a preset ID would join
			// the primary key into the match and re-insert on every boot
			var category models.Category
			err := tx.Where(models.Category{Name: c.name}).
				Attrs(models.Category{ID: uuid.New(), Icon: c.icon, Color: c.color, SortOrder: i}).
				FirstOrCreate(&category).Error
			if err != nil {
				return fmt.Errorf("seeding category %q: %w", c.name, err)
			}
		}
		for _, u := range defaultUnits {
			var unit models.Unit
			err := tx.Where(models.Unit{Name: u.name}).
				Attrs(models.Unit{ID: uuid.New(), Abbreviation: u.abbrev, UnitType: u.unitType}).
				FirstOrCreate(&unit).Error
			if err != nil {
				return fmt.Errorf("seeding unit %q: %w", u.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(models.Category{}.TableName(), models.Unit{}.TableName())
	return nil
}

// ListCategories returns all categories in presentation order.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := s.db.WithContext(ctx).Order("sort_order ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}

// ListUnits returns all units grouped by type then name.
func (s *Service) ListUnits(ctx context.Context) ([]models.Unit, error) {
	var rows []models.Unit
	err := s.db.WithContext(ctx).Order("unit_type ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}

// CategoryByName looks a category up by its seeded name.
func (s *Service) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var row models.Category
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("category %q not found", name))
		}
		return nil, err
	}
	return &row, nil
}

// UnitByName looks a unit up by its seeded name or abbreviation.
func (s *Service) UnitByName(ctx context.Context, name string) (*models.Unit, error) {
	var row models.Unit
	err := s.db.WithContext(ctx).Where("name = ? OR abbreviation = ?", name, name).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unit %q not found", name))
		}
		return nil, err
	}
	return &row, nil
}

// DeleteCategory removes a category only when nothing references it.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	refs, err := s.countReferences(ctx, "category_id", id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category is still referenced by items").
			WithDetails(map[string]any{"references": refs})
	}
	result := s.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	s.publish(models.Category{}.TableName())
	return nil
}

// DeleteUnit removes a unit only when nothing references it.
func (s *Service) DeleteUnit(ctx context.Context, id uuid.UUID) error {
	refs, err := s.countReferences(ctx, "unit_id", id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "unit is still referenced by items").
			WithDetails(map[string]any{"references": refs})
	}
	result := s.db.WithContext(ctx).Delete(&models.Unit{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
	}
	s.publish(models.Unit{}.TableName())
	return nil
}

func (s *Service) countReferences(ctx context.Context, column string, id uuid.UUID) (int64, error) {
	tables := []string{
		models.InventoryItem{}.TableName(),
		models.ListItem{}.TableName(),
		models.CartItem{}.TableName(),
	}
	var total int64
	for _, table := range tables {
		var count int64
		err := s.db.WithContext(ctx).Table(table).Where(fmt.Sprintf("%s = ?", column), id).Count(&count).Error
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

func (s *Service) publish(tables ...string) {
	if s.bus == nil {
		return
	}
	for _, table := range tables {
		s.bus.Publish(table)
	}
}
