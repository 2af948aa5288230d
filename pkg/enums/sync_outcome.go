package enums

import "fmt"

// SyncOutcome summarizes a single SyncNow run.
type SyncOutcome string

const (
	SyncOutcomeSynced    SyncOutcome = "synced"
	SyncOutcomePartial   SyncOutcome = "partial"
	SyncOutcomeFailed    SyncOutcome = "failed"
	SyncOutcomeOffline   SyncOutcome = "offline"
	SyncOutcomeLocalOnly SyncOutcome = "local_only"
	SyncOutcomeNoop      SyncOutcome = "noop"
)

var validSyncOutcomes = []SyncOutcome{
	SyncOutcomeSynced,
	SyncOutcomePartial,
	SyncOutcomeFailed,
	SyncOutcomeOffline,
	SyncOutcomeLocalOnly,
	SyncOutcomeNoop,
}

// IsValid reports whether the value matches the canonical sync outcome enum.
func (o SyncOutcome) IsValid() bool {
	for _, candidate := range validSyncOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseSyncOutcome converts the raw string to SyncOutcome.
func ParseSyncOutcome(value string) (SyncOutcome, error) {
	for _, candidate := range validSyncOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync outcome %q", value)
}
