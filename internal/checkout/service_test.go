package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/internal/cart"
	"github.com/marisol-apps/pantrylog-backend/internal/inventory"
	"github.com/marisol-apps/pantrylog-backend/internal/lists"
	"github.com/marisol-apps/pantrylog-backend/internal/prices"
	"github.com/marisol-apps/pantrylog-backend/internal/products"
	"github.com/marisol-apps/pantrylog-backend/internal/stores"
	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
)

type txRunner struct {
	db *gorm.DB
}

func (r txRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubScheduler struct {
	scheduled map[uuid.UUID]time.Time
}

func (s *stubScheduler) Schedule(_ context.Context, itemID uuid.UUID, expiry time.Time) error {
	s.scheduled[itemID] = expiry
	return nil
}

func (s *stubScheduler) Cancel(context.Context, uuid.UUID) error { return nil }

type stubContributor struct {
	got []products.Contribution
}

func (s *stubContributor) Contribute(_ context.Context, c products.Contribution) {
	s.got = append(s.got, c)
}

type harness struct {
	db          *gorm.DB
	svc         *Service
	cart        *cart.Repository
	lists       *lists.Service
	listRepo    *lists.Repository
	inventory   *inventory.Repository
	prices      *prices.Repository
	stores      *stores.Repository
	scheduler   *stubScheduler
	contributor *stubContributor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.InventoryItem{}, &models.CartItem{},
		&models.ShoppingList{}, &models.ListItem{},
		&models.Store{}, &models.PriceRecord{},
	))

	bus := observe.NewBus()
	h := &harness{
		db:          db,
		cart:        cart.NewRepository(db, bus),
		listRepo:    lists.NewRepository(db, bus),
		inventory:   inventory.NewRepository(db, bus),
		prices:      prices.NewRepository(db, bus),
		stores:      stores.NewRepository(db, bus),
		scheduler:   &stubScheduler{scheduled: map[uuid.UUID]time.Time{}},
		contributor: &stubContributor{},
	}
	h.lists, err = lists.NewService(h.listRepo)
	require.NoError(t, err)
	h.svc, err = NewService(
		txRunner{db: db}, h.inventory, h.cart, h.listRepo,
		h.stores, h.prices, h.scheduler, h.contributor, nil,
	)
	require.NoError(t, err)
	return h
}

func cartRow(userID, name string) *models.CartItem {
	return &models.CartItem{
		UserID:     userID,
		ItemName:   name,
		Quantity:   1,
		UnitID:     uuid.New(),
		CategoryID: uuid.New(),
	}
}

func checkoutInput() Input {
	return Input{StoreName: "Discounter", DefaultLocation: "pantry"}
}

func TestCheckoutCartPromotesAndClears(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	priced := cartRow("user-1", "Oat Milk")
	barcode := "4006381333931"
	price := decimal.RequireFromString("1.99")
	priced.Barcode = &barcode
	priced.Price = &price
	require.NoError(t, h.cart.Add(ctx, priced))
	require.NoError(t, h.cart.Add(ctx, cartRow("user-1", "Bananas")))

	result, err := h.svc.CheckoutCart(ctx, "user-1", checkoutInput())
	require.NoError(t, err)
	require.Len(t, result.Created, 2)

	items, err := h.inventory.ListActive(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.Equal(t, enums.ItemStatusActive, item.Status)
		require.Equal(t, "pantry", item.StorageLocation)
		require.NotNil(t, item.PurchaseDate)
	}

	remaining, err := h.cart.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, remaining)

	// one price record for the priced barcode only
	history, err := h.prices.History(ctx, "user-1", barcode)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "Discounter", history[0].StoreName)
}

func TestCheckoutPricedRowWithoutBarcodeSkipsPriceHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	row := cartRow("user-1", "Farm eggs")
	price := decimal.RequireFromString("3.49")
	row.Price = &price
	require.NoError(t, h.cart.Add(ctx, row))

	result, err := h.svc.CheckoutCart(ctx, "user-1", checkoutInput())
	require.NoError(t, err)
	require.Len(t, result.Created, 1)

	// the price stays on the item; history is barcode-keyed
	items, err := h.inventory.ListActive(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Price)
	require.True(t, price.Equal(*items[0].Price))

	var recorded int64
	require.NoError(t, h.db.Model(&models.PriceRecord{}).Count(&recorded).Error)
	require.Zero(t, recorded)
}

func TestCheckoutCartAppliesOverrides(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	expiry := time.Now().Add(72 * time.Hour).Truncate(time.Second)
	location := "fridge"
	row := cartRow("user-1", "Yogurt")
	row.ExpiryOverride = &expiry
	row.LocationOverride = &location
	require.NoError(t, h.cart.Add(ctx, row))

	result, err := h.svc.CheckoutCart(ctx, "user-1", checkoutInput())
	require.NoError(t, err)
	require.Len(t, result.Created, 1)

	item, err := h.inventory.FindByID(ctx, "user-1", result.Created[0].ItemID)
	require.NoError(t, err)
	require.Equal(t, "fridge", item.StorageLocation)
	require.NotNil(t, item.ExpiryDate)
	require.Contains(t, h.scheduler.scheduled, item.ID)
}

func TestCheckoutIsAtomic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.cart.Add(ctx, cartRow("user-1", "Bananas")))
	// corrupt row inserted below the repository's validation
	bad := cartRow("user-1", "x")
	bad.ID = uuid.New()
	bad.ItemName = ""
	require.NoError(t, h.db.Create(bad).Error)
	require.NoError(t, h.cart.Add(ctx, cartRow("user-1", "Oats")))

	_, err := h.svc.CheckoutCart(ctx, "user-1", checkoutInput())
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	items, err := h.inventory.ListActive(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, items, "a failed checkout must create no inventory")

	remaining, err := h.cart.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, remaining, 3, "a failed checkout must leave the cart intact")
}

func TestCheckoutCartCrossReferencesOpenLists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	list, err := h.lists.CreateList(ctx, "user-1", "Weekly shop", nil)
	require.NoError(t, err)
	barcode := "4006381333931"
	byBarcode := lists.AddItemInput{ItemName: "Oat Milk", Quantity: 1, UnitID: uuid.New(), CategoryID: uuid.New(), Barcode: &barcode}
	listRow, err := h.lists.AddItem(ctx, "user-1", list.ID, byBarcode)
	require.NoError(t, err)
	byName, err := h.lists.AddItem(ctx, "user-1", list.ID, lists.AddItemInput{ItemName: "Bananas", Quantity: 1, UnitID: uuid.New(), CategoryID: uuid.New()})
	require.NoError(t, err)
	unrelated, err := h.lists.AddItem(ctx, "user-1", list.ID, lists.AddItemInput{ItemName: "Soap", Quantity: 1, UnitID: uuid.New(), CategoryID: uuid.New()})
	require.NoError(t, err)

	scanned := cartRow("user-1", "Scanned thing")
	scanned.Barcode = &barcode
	require.NoError(t, h.cart.Add(ctx, scanned))
	require.NoError(t, h.cart.Add(ctx, cartRow("user-1", "bananas")))

	result, err := h.svc.CheckoutCart(ctx, "user-1", checkoutInput())
	require.NoError(t, err)
	require.Equal(t, 2, result.TickedCount)

	got, err := h.listRepo.FindItem(ctx, list.ID, listRow.ID)
	require.NoError(t, err)
	require.True(t, got.IsPurchased)
	got, err = h.listRepo.FindItem(ctx, list.ID, byName.ID)
	require.NoError(t, err)
	require.True(t, got.IsPurchased)
	got, err = h.listRepo.FindItem(ctx, list.ID, unrelated.ID)
	require.NoError(t, err)
	require.False(t, got.IsPurchased)
}

func TestCheckoutCartContributesUnrecognizedProducts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	barcode := "9999999999999"
	row := cartRow("user-1", "Mystery snack")
	row.Barcode = &barcode
	row.NeedsReview = true
	require.NoError(t, h.cart.Add(ctx, row))

	_, err := h.svc.CheckoutCart(ctx, "user-1", checkoutInput())
	require.NoError(t, err)
	require.Len(t, h.contributor.got, 1)
	require.Equal(t, barcode, h.contributor.got[0].Barcode)
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.CheckoutCart(context.Background(), "user-1", checkoutInput())
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestCheckoutListPromotesTickedSubsetOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	list, err := h.lists.CreateList(ctx, "user-1", "Weekly shop", nil)
	require.NoError(t, err)

	var tickedIDs []uuid.UUID
	for _, name := range []string{"Bananas", "Oats", "Milk", "Soap"} {
		row, err := h.lists.AddItem(ctx, "user-1", list.ID, lists.AddItemInput{ItemName: name, Quantity: 1, UnitID: uuid.New(), CategoryID: uuid.New()})
		require.NoError(t, err)
		if name == "Bananas" || name == "Milk" {
			_, err = h.lists.SetPurchased(ctx, "user-1", list.ID, row.ID, true)
			require.NoError(t, err)
			tickedIDs = append(tickedIDs, row.ID)
		}
	}

	result, err := h.svc.CheckoutList(ctx, "user-1", list.ID, checkoutInput())
	require.NoError(t, err)
	require.Len(t, result.Created, 2)

	items, err := h.inventory.ListActive(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	// ticked rows stay marked and the list stays open
	for _, id := range tickedIDs {
		row, err := h.listRepo.FindItem(ctx, list.ID, id)
		require.NoError(t, err)
		require.True(t, row.IsPurchased)
	}
	got, err := h.listRepo.FindList(ctx, "user-1", list.ID)
	require.NoError(t, err)
	require.False(t, got.IsCheckedOut)
}

func TestCheckoutFrozenListRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	list, err := h.lists.CreateList(ctx, "user-1", "Done", nil)
	require.NoError(t, err)
	_, err = h.lists.Complete(ctx, "user-1", list.ID)
	require.NoError(t, err)

	_, err = h.svc.CheckoutList(ctx, "user-1", list.ID, checkoutInput())
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}
