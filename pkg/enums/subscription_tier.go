package enums

import "fmt"

// SubscriptionTier gates cloud sync. Free-tier users operate purely locally.
type SubscriptionTier string

const (
	SubscriptionTierFree SubscriptionTier = "free"
	SubscriptionTierPlus SubscriptionTier = "plus"
)

var validSubscriptionTiers = []SubscriptionTier{
	SubscriptionTierFree,
	SubscriptionTierPlus,
}

// IsValid reports whether the value matches the canonical tier enum.
func (t SubscriptionTier) IsValid() bool {
	for _, candidate := range validSubscriptionTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// CanSync reports whether the tier is allowed to push to the cloud.
func (t SubscriptionTier) CanSync() bool {
	return t == SubscriptionTierPlus
}

// ParseSubscriptionTier converts the raw string to SubscriptionTier.
func ParseSubscriptionTier(value string) (SubscriptionTier, error) {
	for _, candidate := range validSubscriptionTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription tier %q", value)
}
