package enums

import "fmt"

// ReturnCondition is how the submitter grades a unit at check-in time.
// Defective units branch into the maintenance workflow.
type ReturnCondition string

const (
	ReturnConditionOK        ReturnCondition = "ok"
	ReturnConditionDefective ReturnCondition = "defective"
)

var validReturnConditions = []ReturnCondition{
	ReturnConditionOK,
	ReturnConditionDefective,
}

// String implements fmt.Stringer.
func (c ReturnCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ReturnCondition.
func (c ReturnCondition) IsValid() bool {
	for _, candidate := range validReturnConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseReturnCondition converts raw input into a ReturnCondition.
func ParseReturnCondition(value string) (ReturnCondition, error) {
	for _, candidate := range validReturnConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return condition %q", value)
}
