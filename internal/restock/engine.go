package restock

import (
	"sort"
	"strings"
	"time"

	"github.com/marisol-apps/pantrylog-backend/pkg/db/models"
)

// Summary is derived from the active inventory set on every call; nothing
// here is persisted.
type Summary struct {
	TrackedCount       int                    `json:"trackedCount"`
	RestockNeededCount int                    `json:"restockNeededCount"`
	ReviewCount        int                    `json:"reviewCount"`
	ExpiringSoonCount  int                    `json:"expiringSoonCount"`
	Items              []models.InventoryItem `json:"items"`
}

// Build computes the restock summary over the active set at the given
// moment. Items are ordered important-and-needing-restock first, then
// important, then alphabetical.
func Build(active []models.InventoryItem, now time.Time) Summary {
	summary := Summary{Items: make([]models.InventoryItem, len(active))}
	copy(summary.Items, active)

	for _, item := range active {
		if item.IsImportant {
			summary.TrackedCount++
		}
		if item.NeedsRestock() {
			summary.RestockNeededCount++
		}
		if item.NeedsReview {
			summary.ReviewCount++
		}
		if item.IsExpiringSoon(now) {
			summary.ExpiringSoonCount++
		}
	}

	sort.SliceStable(summary.Items, func(i, j int) bool {
		a, b := summary.Items[i], summary.Items[j]
		aRank, bRank := rank(a), rank(b)
		if aRank != bRank {
			return aRank < bRank
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return summary
}

func rank(item models.InventoryItem) int {
	switch {
	case item.IsImportant && item.NeedsRestock():
		return 0
	case item.IsImportant:
		return 1
	default:
		return 2
	}
}
