package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marisol-apps/pantrylog-backend/internal/inventory"
	"github.com/marisol-apps/pantrylog-backend/internal/notifications"
	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	"github.com/marisol-apps/pantrylog-backend/pkg/observe"
)

func newInventoryService(t *testing.T) (*inventory.Service, *inventory.Repository) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.InventoryItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := inventory.NewRepository(gdb, observe.NewBus())
	svc, err := inventory.NewService(repo, notifications.NewLogScheduler(config.NotifyConfig{}, nil), nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo
}

func withItemID(req *http.Request, id uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("itemID", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seedItem(t *testing.T, svc *inventory.Service, userID string) *models.InventoryItem {
	t.Helper()
	item, err := svc.Create(context.Background(), userID, inventory.CreateInput{
		Name:            "Milk",
		CategoryID:      uuid.New(),
		Quantity:        1,
		UnitID:          uuid.New(),
		StorageLocation: "Fridge",
	})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func TestConsumeInventoryItemTransitions(t *testing.T) {
	svc, _ := newInventoryService(t)
	item := seedItem(t, svc, "user-1")
	handler := ConsumeInventoryItem(svc, nil)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/inventory/"+item.ID.String()+"/consume",
		strings.NewReader(`{"outcome":"used_up"}`)), "user-1")
	req.Header.Set("Content-Type", "application/json")
	req = withItemID(req, item.ID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data models.InventoryItem `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.ItemStatusConsumed {
		t.Fatalf("expected consumed status, got %s", envelope.Data.Status)
	}
}

func TestConsumeInventoryItemTerminalConflict(t *testing.T) {
	svc, _ := newInventoryService(t)
	item := seedItem(t, svc, "user-1")
	if _, err := svc.MarkConsumed(context.Background(), "user-1", item.ID, enums.ConsumptionOutcomeUsedUp, nil); err != nil {
		t.Fatalf("consume: %v", err)
	}
	handler := ConsumeInventoryItem(svc, nil)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/inventory/"+item.ID.String()+"/consume",
		strings.NewReader(`{"outcome":"discarded"}`)), "user-1")
	req.Header.Set("Content-Type", "application/json")
	req = withItemID(req, item.ID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestConsumeInventoryItemRejectsUnknownOutcome(t *testing.T) {
	svc, _ := newInventoryService(t)
	item := seedItem(t, svc, "user-1")
	handler := ConsumeInventoryItem(svc, nil)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/inventory/"+item.ID.String()+"/consume",
		strings.NewReader(`{"outcome":"vanished"}`)), "user-1")
	req.Header.Set("Content-Type", "application/json")
	req = withItemID(req, item.ID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetInventoryItemHiddenFromOtherUsers(t *testing.T) {
	svc, repo := newInventoryService(t)
	item := seedItem(t, svc, "user-1")
	handler := GetInventoryItem(repo, nil)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/inventory/"+item.ID.String(), nil), "user-2")
	req = withItemID(req, item.ID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
