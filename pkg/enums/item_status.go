package enums

import "fmt"

// ItemStatus describes the lifecycle state of an inventory item.
type ItemStatus string

const (
	ItemStatusActive    ItemStatus = "active"
	ItemStatusConsumed  ItemStatus = "consumed"
	ItemStatusExpired   ItemStatus = "expired"
	ItemStatusDiscarded ItemStatus = "discarded"
)

var validItemStatuses = []ItemStatus{
	ItemStatusActive,
	ItemStatusConsumed,
	ItemStatusExpired,
	ItemStatusDiscarded,
}

// IsValid reports whether the value matches the canonical item status enum.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status is one of the post-consumption states.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusConsumed || s == ItemStatusExpired || s == ItemStatusDiscarded
}

// ParseItemStatus converts the raw string to ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
