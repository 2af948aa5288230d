package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marisol-apps/pantrylog-backend/api/controllers"
	"github.com/marisol-apps/pantrylog-backend/api/middleware"
	"github.com/marisol-apps/pantrylog-backend/internal/cart"
	checkoutsvc "github.com/marisol-apps/pantrylog-backend/internal/checkout"
	"github.com/marisol-apps/pantrylog-backend/internal/inventory"
	"github.com/marisol-apps/pantrylog-backend/internal/lists"
	"github.com/marisol-apps/pantrylog-backend/internal/prices"
	"github.com/marisol-apps/pantrylog-backend/internal/products"
	"github.com/marisol-apps/pantrylog-backend/internal/registry"
	"github.com/marisol-apps/pantrylog-backend/internal/stores"
	syncsvc "github.com/marisol-apps/pantrylog-backend/internal/sync"
	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/db"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

// Deps collects everything the HTTP surface needs. All fields are required
// except SyncEngine and Lookup, whose routes are omitted when absent.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger
	DB     db.Pinger

	Registry  *registry.Service
	Inventory *inventory.Service
	InvRepo   *inventory.Repository
	Lists     *lists.Service
	Cart      *cart.Repository
	Checkout  *checkoutsvc.Service
	Stores    *stores.Repository
	Prices    *prices.Repository
	Lookup    *products.Lookup

	SyncEngine *syncsvc.Engine
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireUser(logg))

		r.Route("/registry", func(r chi.Router) {
			r.Get("/categories", controllers.ListCategories(d.Registry, logg))
			r.Delete("/categories/{categoryID}", controllers.DeleteCategory(d.Registry, logg))
			r.Get("/units", controllers.ListUnits(d.Registry, logg))
			r.Delete("/units/{unitID}", controllers.DeleteUnit(d.Registry, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.ListInventory(d.InvRepo, logg))
			r.Post("/", controllers.CreateInventoryItem(d.Inventory, logg))
			r.Get("/history", controllers.ListInventoryHistory(d.InvRepo, logg))
			if d.Lookup != nil {
				r.Post("/scan", controllers.ScanInventoryItem(d.Inventory, d.Lookup, logg))
			}
			r.Route("/{itemID}", func(r chi.Router) {
				r.Get("/", controllers.GetInventoryItem(d.InvRepo, logg))
				r.Delete("/", controllers.DeleteInventoryItem(d.Inventory, logg))
				r.Post("/consume", controllers.ConsumeInventoryItem(d.Inventory, logg))
				r.Post("/restore", controllers.RestoreInventoryItem(d.Inventory, logg))
				r.Post("/adjust", controllers.AdjustInventoryQuantity(d.Inventory, logg))
				r.Post("/move", controllers.MoveInventoryItem(d.Inventory, logg))
				r.Put("/expiry", controllers.SetInventoryExpiry(d.Inventory, logg))
				r.Post("/important", controllers.ToggleInventoryImportant(d.Inventory, logg))
				r.Put("/threshold", controllers.SetInventoryThreshold(d.Inventory, logg))
				r.Post("/review", controllers.ReviewInventoryItem(d.Inventory, logg))
			})
		})

		r.Get("/restock", controllers.RestockSummary(d.InvRepo, logg))

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", controllers.ListShoppingLists(d.Lists, logg))
			r.Post("/", controllers.CreateList(d.Lists, logg))
			r.Route("/{listID}", func(r chi.Router) {
				r.Get("/", controllers.GetList(d.Lists, logg))
				r.Put("/", controllers.RenameList(d.Lists, logg))
				r.Delete("/", controllers.DeleteList(d.Lists, logg))
				r.Post("/complete", controllers.CompleteList(d.Lists, logg))
				r.Post("/checkout", controllers.CheckoutList(d.Checkout, logg))
				r.Post("/items", controllers.AddListItem(d.Lists, logg))
				r.Route("/items/{itemID}", func(r chi.Router) {
					r.Delete("/", controllers.RemoveListItem(d.Lists, logg))
					r.Put("/purchased", controllers.SetListItemPurchased(d.Lists, logg))
					r.Put("/overrides", controllers.SetListItemOverrides(d.Lists, logg))
				})
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.ListCart(d.Cart, logg))
			r.Post("/", controllers.AddCartItem(d.Cart, logg))
			r.Delete("/", controllers.ClearCart(d.Cart, logg))
			if d.Lookup != nil {
				r.Post("/scan", controllers.ScanCartItem(d.Cart, d.Lookup, logg))
			}
			r.Post("/checkout", controllers.CheckoutCart(d.Checkout, logg))
			r.Route("/items/{itemID}", func(r chi.Router) {
				r.Put("/", controllers.UpdateCartItem(d.Cart, logg))
				r.Delete("/", controllers.RemoveCartItem(d.Cart, logg))
			})
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.ListStores(d.Stores, logg))
			r.Post("/", controllers.CreateStore(d.Stores, logg))
			r.Route("/{storeID}", func(r chi.Router) {
				r.Get("/", controllers.GetStore(d.Stores, logg))
				r.Put("/", controllers.UpdateStore(d.Stores, logg))
				r.Delete("/", controllers.DeleteStore(d.Stores, logg))
			})
		})

		r.Route("/prices/{barcode}", func(r chi.Router) {
			r.Get("/", controllers.PriceHistory(d.Prices, logg))
			r.Get("/best", controllers.BestDeal(d.Prices, logg))
			r.Get("/trend/{storeID}", controllers.PriceTrend(d.Prices, logg))
		})

		if d.Lookup != nil {
			r.Get("/products/{barcode}", controllers.LookupProduct(d.Lookup, logg))
		}

		if d.SyncEngine != nil {
			r.Post("/sync", controllers.TriggerSync(d.SyncEngine, logg))
			r.Get("/sync/status", controllers.SyncStatus(d.SyncEngine, logg))
		}
	})

	return r
}
