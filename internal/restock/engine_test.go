package restock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
)

func active(name string, quantity float64, important bool, threshold int) models.InventoryItem {
	return models.InventoryItem{
		Name:             name,
		Quantity:         quantity,
		IsImportant:      important,
		RestockThreshold: threshold,
		Status:           enums.ItemStatusActive,
	}
}

func TestBuildCountsAndOrders(t *testing.T) {
	now := time.Now()
	soon := now.Add(48 * time.Hour)

	flour := active("Flour", 1, true, 2) // tracked, needs restock
	rice := active("Rice", 10, true, 2)  // tracked only
	salt := active("Salt", 1, false, 0)
	apples := active("Apples", 3, false, 0)
	apples.ExpiryDate = &soon

	summary := Build([]models.InventoryItem{salt, rice, apples, flour}, now)

	require.Equal(t, 2, summary.TrackedCount)
	require.Equal(t, 1, summary.RestockNeededCount)
	require.Equal(t, 1, summary.ExpiringSoonCount)

	var names []string
	for _, item := range summary.Items {
		names = append(names, item.Name)
	}
	require.Equal(t, []string{"Flour", "Rice", "Apples", "Salt"}, names)
}

func TestBuildThresholdBoundary(t *testing.T) {
	atThreshold := active("Flour", 5, true, 5)
	aboveThreshold := active("Rice", 6, true, 5)

	summary := Build([]models.InventoryItem{atThreshold, aboveThreshold}, time.Now())
	require.Equal(t, 1, summary.RestockNeededCount)
}

func TestBuildUntrackedNeverNeedsRestock(t *testing.T) {
	item := active("Flour", 0, false, 5)
	summary := Build([]models.InventoryItem{item}, time.Now())
	require.Zero(t, summary.RestockNeededCount)
	require.Zero(t, summary.TrackedCount)
}

func TestBuildEmptySet(t *testing.T) {
	summary := Build(nil, time.Now())
	require.Zero(t, summary.TrackedCount)
	require.Empty(t, summary.Items)
}
