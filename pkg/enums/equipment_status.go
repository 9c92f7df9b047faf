package enums

import "fmt"

// EquipmentStatus tracks where a unit sits in the rental pool.
type EquipmentStatus string

const (
	EquipmentStatusAvailable   EquipmentStatus = "available"
	EquipmentStatusOccupied    EquipmentStatus = "occupied"
	EquipmentStatusMaintenance EquipmentStatus = "maintenance"
)

var validEquipmentStatuses = []EquipmentStatus{
	EquipmentStatusAvailable,
	EquipmentStatusOccupied,
	EquipmentStatusMaintenance,
}

// String implements fmt.Stringer.
func (s EquipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EquipmentStatus.
func (s EquipmentStatus) IsValid() bool {
	for _, candidate := range validEquipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEquipmentStatus converts raw input into an EquipmentStatus.
func ParseEquipmentStatus(value string) (EquipmentStatus, error) {
	for _, candidate := range validEquipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid equipment status %q", value)
}
