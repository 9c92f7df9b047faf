package enums

import "fmt"

// RentalType distinguishes monthly from annual rental contracts.
type RentalType string

const (
	RentalTypeMonthly RentalType = "mensal"
	RentalTypeAnnual  RentalType = "anual"
)

var validRentalTypes = []RentalType{
	RentalTypeMonthly,
	RentalTypeAnnual,
}

// String implements fmt.Stringer.
func (r RentalType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RentalType.
func (r RentalType) IsValid() bool {
	for _, candidate := range validRentalTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRentalType converts raw input into a RentalType.
func ParseRentalType(value string) (RentalType, error) {
	for _, candidate := range validRentalTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental type %q", value)
}
