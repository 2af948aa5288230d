package enums

import "fmt"

// ConsumptionOutcome is the reason an item left active stock. The variant
// determines the resulting item status, so an inconsistent (status, reason)
// pair cannot be constructed.
type ConsumptionOutcome string

const (
	ConsumptionOutcomeUsedUp    ConsumptionOutcome = "used_up"
	ConsumptionOutcomeExpired   ConsumptionOutcome = "expired"
	ConsumptionOutcomeDiscarded ConsumptionOutcome = "discarded"
)

var validConsumptionOutcomes = []ConsumptionOutcome{
	ConsumptionOutcomeUsedUp,
	ConsumptionOutcomeExpired,
	ConsumptionOutcomeDiscarded,
}

// IsValid reports whether the value matches the canonical outcome enum.
func (o ConsumptionOutcome) IsValid() bool {
	for _, candidate := range validConsumptionOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// Status returns the item status the outcome transitions into.
func (o ConsumptionOutcome) Status() ItemStatus {
	switch o {
	case ConsumptionOutcomeUsedUp:
		return ItemStatusConsumed
	case ConsumptionOutcomeExpired:
		return ItemStatusExpired
	case ConsumptionOutcomeDiscarded:
		return ItemStatusDiscarded
	}
	return ItemStatusActive
}

// ParseConsumptionOutcome converts the raw string to ConsumptionOutcome.
func ParseConsumptionOutcome(value string) (ConsumptionOutcome, error) {
	for _, candidate := range validConsumptionOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid consumption outcome %q", value)
}
