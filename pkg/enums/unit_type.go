package enums

import "fmt"

// UnitType groups measurement units for the unit registry.
type UnitType string

const (
	UnitTypeCount  UnitType = "count"
	UnitTypeWeight UnitType = "weight"
	UnitTypeVolume UnitType = "volume"
)

var validUnitTypes = []UnitType{
	UnitTypeCount,
	UnitTypeWeight,
	UnitTypeVolume,
}

// IsValid reports whether the value matches the canonical unit type enum.
func (u UnitType) IsValid() bool {
	for _, candidate := range validUnitTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitType converts the raw string to UnitType.
func ParseUnitType(value string) (UnitType, error) {
	for _, candidate := range validUnitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit type %q", value)
}
