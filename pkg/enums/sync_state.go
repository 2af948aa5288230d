package enums

import "fmt"

// SyncState marks a record's position in the push-to-cloud pipeline. Dirty
// means local changes not yet pushed; Syncing means included in an in-flight
// batch and must not be resubmitted.
type SyncState string

const (
	SyncStateClean   SyncState = "clean"
	SyncStateDirty   SyncState = "dirty"
	SyncStateSyncing SyncState = "syncing"
)

var validSyncStates = []SyncState{
	SyncStateClean,
	SyncStateDirty,
	SyncStateSyncing,
}

// IsValid reports whether the value matches the canonical sync state enum.
func (s SyncState) IsValid() bool {
	for _, candidate := range validSyncStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncState converts the raw string to SyncState.
func ParseSyncState(value string) (SyncState, error) {
	for _, candidate := range validSyncStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync state %q", value)
}
