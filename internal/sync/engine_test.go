package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/internal/inventory"
	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
)

type fakeRemote struct {
	probeErr error
	pushErr  error
	pushed   [][]Record
	// failIDs marks records the remote rejects per-record
	failIDs map[uuid.UUID]string
}

func (f *fakeRemote) Probe(context.Context) error { return f.probeErr }

func (f *fakeRemote) Push(_ context.Context, _ string, records []Record) (*PushResult, error) {
	f.pushed = append(f.pushed, records)
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	result := &PushResult{Failed: map[uuid.UUID]string{}}
	for _, rec := range records {
		if reason, ok := f.failIDs[rec.ID]; ok {
			result.Failed[rec.ID] = reason
			continue
		}
		result.Succeeded = append(result.Succeeded, rec.ID)
	}
	return result, nil
}

func syncConfig(tier string) config.SyncConfig {
	return config.SyncConfig{
		PushTimeout:  5 * time.Second,
		ProbeTimeout: time.Second,
		BatchLimit:   200,
		Tier:         tier,
	}
}

func newEngine(t *testing.T, remote RemoteStore, tier string) (*Engine, *gorm.DB, *inventory.Repository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.InventoryItem{}, &models.ShoppingList{}, &models.ListItem{},
		&models.CartItem{}, &models.Store{}, &models.PriceRecord{},
	))
	engine, err := NewEngine(db, remote, syncConfig(tier), nil, nil)
	require.NoError(t, err)
	return engine, db, inventory.NewRepository(db, observe.NewBus())
}

func seedItem(t *testing.T, repo *inventory.Repository, userID, name string) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		UserID:          userID,
		Name:            name,
		CategoryID:      uuid.New(),
		Quantity:        1,
		UnitID:          uuid.New(),
		StorageLocation: "pantry",
	}
	require.NoError(t, repo.Create(context.Background(), item))
	return item
}

func stateOf(t *testing.T, db *gorm.DB, table string, id uuid.UUID) enums.SyncState {
	t.Helper()
	var state string
	require.NoError(t, db.Table(table).Select("sync_state").Where("id = ?", id).Scan(&state).Error)
	return enums.SyncState(state)
}

func TestSyncNowFreeTierIsLocalOnly(t *testing.T) {
	remote := &fakeRemote{}
	engine, db, repo := newEngine(t, remote, "free")
	item := seedItem(t, repo, "user-1", "Oats")

	report := engine.SyncNow(context.Background(), "user-1")
	require.Equal(t, enums.SyncOutcomeLocalOnly, report.Outcome)
	require.Empty(t, remote.pushed, "free tier must never touch the network")
	require.Equal(t, enums.SyncStateDirty, stateOf(t, db, "inventory_items", item.ID))
}

func TestSyncNowOfflineLeavesRowsDirty(t *testing.T) {
	remote := &fakeRemote{probeErr: pkgerrors.New(pkgerrors.CodeOffline, "no route")}
	engine, db, repo := newEngine(t, remote, "plus")
	item := seedItem(t, repo, "user-1", "Oats")

	report := engine.SyncNow(context.Background(), "user-1")
	require.Equal(t, enums.SyncOutcomeOffline, report.Outcome)
	require.Empty(t, remote.pushed)
	require.Equal(t, enums.SyncStateDirty, stateOf(t, db, "inventory_items", item.ID))
}

func TestSyncNowNoopWhenNothingDirty(t *testing.T) {
	remote := &fakeRemote{}
	engine, _, repo := newEngine(t, remote, "plus")
	seedItem(t, repo, "user-1", "Oats")

	first := engine.SyncNow(context.Background(), "user-1")
	require.Equal(t, enums.SyncOutcomeSynced, first.Outcome)

	second := engine.SyncNow(context.Background(), "user-1")
	require.Equal(t, enums.SyncOutcomeNoop, second.Outcome)
	require.Len(t, remote.pushed, 1)
}

func TestSyncNowFlipsExactlyTheBatch(t *testing.T) {
	remote := &fakeRemote{}
	engine, db, repo := newEngine(t, remote, "plus")
	ctx := context.Background()

	mine := seedItem(t, repo, "user-1", "Oats")
	other := seedItem(t, repo, "user-2", "Milk")

	report := engine.SyncNow(ctx, "user-1")
	require.Equal(t, enums.SyncOutcomeSynced, report.Outcome)
	require.Equal(t, 1, report.Pushed)
	require.Equal(t, enums.SyncStateClean, stateOf(t, db, "inventory_items", mine.ID))
	require.Equal(t, enums.SyncStateDirty, stateOf(t, db, "inventory_items", other.ID),
		"rows outside the batch must keep their state")
}

func TestSyncNowPartialFailureKeepsFailedDirty(t *testing.T) {
	remote := &fakeRemote{failIDs: map[uuid.UUID]string{}}
	engine, db, repo := newEngine(t, remote, "plus")
	ctx := context.Background()

	good := seedItem(t, repo, "user-1", "Oats")
	bad := seedItem(t, repo, "user-1", "Milk")
	remote.failIDs[bad.ID] = "schema mismatch"

	report := engine.SyncNow(ctx, "user-1")
	require.Equal(t, enums.SyncOutcomePartial, report.Outcome)
	require.Equal(t, 1, report.Pushed)
	require.Equal(t, 1, report.Failed)
	require.Error(t, report.Err)
	require.Equal(t, enums.SyncStateClean, stateOf(t, db, "inventory_items", good.ID))
	require.Equal(t, enums.SyncStateDirty, stateOf(t, db, "inventory_items", bad.ID))
}

func TestSyncNowTransportFailureRevertsWholeBatch(t *testing.T) {
	remote := &fakeRemote{pushErr: pkgerrors.New(pkgerrors.CodeTimeout, "deadline")}
	engine, db, repo := newEngine(t, remote, "plus")
	ctx := context.Background()

	item := seedItem(t, repo, "user-1", "Oats")

	report := engine.SyncNow(ctx, "user-1")
	require.Equal(t, enums.SyncOutcomeFailed, report.Outcome)
	require.Equal(t, enums.SyncStateDirty, stateOf(t, db, "inventory_items", item.ID))
}

func TestSyncNowMutationDuringPushStaysDirty(t *testing.T) {
	remote := &fakeRemote{}
	engine, db, repo := newEngine(t, remote, "plus")
	ctx := context.Background()
	item := seedItem(t, repo, "user-1", "Oats")

	// remote that dirties the row mid-flight, as a concurrent user edit would
	engine.remote = remoteFunc(func(records []Record) (*PushResult, error) {
		remote.pushed = append(remote.pushed, records)
		require.NoError(t, db.Table("inventory_items").
			Where("id = ?", item.ID).
			Update("sync_state", string(enums.SyncStateDirty)).Error)
		result := &PushResult{Failed: map[uuid.UUID]string{}}
		for _, rec := range records {
			result.Succeeded = append(result.Succeeded, rec.ID)
		}
		return result, nil
	})

	report := engine.SyncNow(ctx, "user-1")
	require.Equal(t, enums.SyncOutcomeSynced, report.Outcome)
	require.Equal(t, enums.SyncStateDirty, stateOf(t, db, "inventory_items", item.ID),
		"an edit made during the push must survive the flag flip")
}

type remoteFunc func(records []Record) (*PushResult, error)

func (remoteFunc) Probe(context.Context) error { return nil }

func (f remoteFunc) Push(_ context.Context, _ string, records []Record) (*PushResult, error) {
	return f(records)
}

func TestSyncNowBatchSpansTables(t *testing.T) {
	remote := &fakeRemote{}
	engine, db, repo := newEngine(t, remote, "plus")
	ctx := context.Background()

	seedItem(t, repo, "user-1", "Oats")
	store := &models.Store{ID: uuid.New(), UserID: "user-1", Name: "Discounter", SyncState: enums.SyncStateDirty}
	require.NoError(t, db.Create(store).Error)

	report := engine.SyncNow(ctx, "user-1")
	require.Equal(t, enums.SyncOutcomeSynced, report.Outcome)
	require.Equal(t, 2, report.Pushed)

	entities := map[string]bool{}
	for _, rec := range remote.pushed[0] {
		entities[rec.Entity] = true
	}
	require.True(t, entities["inventory_items"])
	require.True(t, entities["stores"])
}

func TestRowIDUnwrapsDriverPointers(t *testing.T) {
	want := uuid.New()

	var boxed any = want.String()
	id, err := rowID(map[string]any{"id": &boxed})
	require.NoError(t, err)
	require.Equal(t, want, id)

	var bytes any = []byte(want.String())
	id, err = rowID(map[string]any{"id": &bytes})
	require.NoError(t, err)
	require.Equal(t, want, id)

	id, err = rowID(map[string]any{"id": want.String()})
	require.NoError(t, err)
	require.Equal(t, want, id)
}

func TestSyncNowCoversListItems(t *testing.T) {
	remote := &fakeRemote{}
	engine, db, _ := newEngine(t, remote, "plus")
	ctx := context.Background()

	list := &models.ShoppingList{
		ID:          uuid.New(),
		UserID:      "user-1",
		Name:        "Weekly shop",
		CreatedDate: time.Now(),
		SyncState:   enums.SyncStateDirty,
	}
	require.NoError(t, db.Create(list).Error)
	item := &models.ListItem{
		ID:         uuid.New(),
		UserID:     "user-1",
		ListID:     list.ID,
		ItemName:   "Oats",
		Quantity:   1,
		UnitID:     uuid.New(),
		CategoryID: uuid.New(),
		SyncState:  enums.SyncStateDirty,
	}
	require.NoError(t, db.Create(item).Error)

	report := engine.SyncNow(ctx, "user-1")
	require.NoError(t, report.Err)
	require.Equal(t, enums.SyncOutcomeSynced, report.Outcome)
	require.Equal(t, 2, report.Pushed)

	var got models.ListItem
	require.NoError(t, db.First(&got, "id = ?", item.ID).Error)
	require.Equal(t, enums.SyncStateClean, got.SyncState)

	counts, err := engine.PendingCounts(ctx, "user-1")
	require.NoError(t, err)
	require.EqualValues(t, 0, counts["list_items"])
}

func TestPendingCountsPerTable(t *testing.T) {
	remote := &fakeRemote{}
	engine, db, repo := newEngine(t, remote, "plus")
	ctx := context.Background()

	seedItem(t, repo, "user-1", "Oats")
	seedItem(t, repo, "user-1", "Beans")
	store := &models.Store{ID: uuid.New(), UserID: "user-1", Name: "Discounter", SyncState: enums.SyncStateDirty}
	require.NoError(t, db.Create(store).Error)

	counts, err := engine.PendingCounts(ctx, "user-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, counts["inventory_items"])
	require.EqualValues(t, 1, counts["stores"])
	require.EqualValues(t, 0, counts["cart_items"])

	report := engine.SyncNow(ctx, "user-1")
	require.Equal(t, enums.SyncOutcomeSynced, report.Outcome)

	counts, err = engine.PendingCounts(ctx, "user-1")
	require.NoError(t, err)
	require.EqualValues(t, 0, counts["inventory_items"])
	require.EqualValues(t, 0, counts["stores"])
}

func TestDirtyUsersListsEachUserOnce(t *testing.T) {
	engine, db, repo := newEngine(t, &fakeRemote{}, "plus")
	ctx := context.Background()

	seedItem(t, repo, "user-1", "Oats")
	seedItem(t, repo, "user-1", "Beans")
	seedItem(t, repo, "user-2", "Rice")
	store := &models.Store{ID: uuid.New(), UserID: "user-2", Name: "Corner shop", SyncState: enums.SyncStateDirty}
	require.NoError(t, db.Create(store).Error)

	users, err := engine.DirtyUsers(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"user-1", "user-2"}, users)

	report := engine.SyncNow(ctx, "user-1")
	require.Equal(t, enums.SyncOutcomeSynced, report.Outcome)

	users, err = engine.DirtyUsers(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"user-2"}, users)
}

func TestNewEngineRejectsUnknownTier(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	_, err = NewEngine(db, &fakeRemote{}, syncConfig("platinum"), nil, nil)
	require.Error(t, err)
}
