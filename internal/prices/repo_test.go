package prices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/internal/stores"
	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
)

func newTestRepo(t *testing.T) (*Repository, *stores.Repository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PriceRecord{}, &models.Store{}))
	bus := observe.NewBus()
	return NewRepository(db, bus), stores.NewRepository(db, bus)
}

func record(userID, barcode string, storeID uuid.UUID, price string, when time.Time) *models.PriceRecord {
	return &models.PriceRecord{
		UserID:       userID,
		Barcode:      barcode,
		ProductName:  "Oat Milk",
		StoreID:      storeID,
		Price:        decimal.RequireFromString(price),
		PurchaseDate: when,
	}
}

func TestBestDealPicksCheapestAcrossStores(t *testing.T) {
	repo, storeRepo := newTestRepo(t)
	ctx := context.Background()

	cheap, err := storeRepo.GetOrCreateByName(ctx, "user-1", "Discounter")
	require.NoError(t, err)
	dear, err := storeRepo.GetOrCreateByName(ctx, "user-1", "Corner shop")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, repo.Record(ctx, record("user-1", "4006381333931", dear.ID, "2.49", now.Add(-48*time.Hour))))
	require.NoError(t, repo.Record(ctx, record("user-1", "4006381333931", cheap.ID, "1.99", now.Add(-24*time.Hour))))

	best, err := repo.BestDeal(ctx, "user-1", "4006381333931")
	require.NoError(t, err)
	require.Equal(t, "Discounter", best.StoreName)
	require.True(t, best.Record.Price.Equal(decimal.RequireFromString("1.99")))
}

func TestBestDealWithoutHistoryReturnsNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.BestDeal(context.Background(), "user-1", "0000000000000")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestHistoryFallsBackForDeletedStore(t *testing.T) {
	repo, storeRepo := newTestRepo(t)
	ctx := context.Background()

	store, err := storeRepo.GetOrCreateByName(ctx, "user-1", "Popup market")
	require.NoError(t, err)
	require.NoError(t, repo.Record(ctx, record("user-1", "4006381333931", store.ID, "2.10", time.Now())))

	require.NoError(t, storeRepo.Delete(ctx, "user-1", store.ID))

	history, err := repo.History(ctx, "user-1", "4006381333931")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, DeletedStoreName, history[0].StoreName)
}

func TestTrendIsChronologicalAndWindowed(t *testing.T) {
	repo, storeRepo := newTestRepo(t)
	ctx := context.Background()

	store, err := storeRepo.GetOrCreateByName(ctx, "user-1", "Discounter")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, repo.Record(ctx, record("user-1", "4006381333931", store.ID, "2.20", now.Add(-90*24*time.Hour))))
	require.NoError(t, repo.Record(ctx, record("user-1", "4006381333931", store.ID, "2.00", now.Add(-10*24*time.Hour))))
	require.NoError(t, repo.Record(ctx, record("user-1", "4006381333931", store.ID, "2.10", now.Add(-1*24*time.Hour))))

	points, err := repo.Trend(ctx, "user-1", "4006381333931", store.ID, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.True(t, points[0].Date.Before(points[1].Date))
	require.True(t, points[0].Price.Equal(decimal.RequireFromString("2.00")))
}

func TestRecordRejectsNegativePrice(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	bad := record("user-1", "4006381333931", uuid.New(), "2.00", time.Now())
	bad.Price = decimal.RequireFromString("-1.00")
	err := repo.Record(ctx, bad)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
