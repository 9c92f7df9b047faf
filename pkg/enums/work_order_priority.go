package enums

import "fmt"

// WorkOrderPriority ranks how urgently a maintenance request should be handled.
type WorkOrderPriority string

const (
	WorkOrderPriorityLow    WorkOrderPriority = "baixa"
	WorkOrderPriorityMedium WorkOrderPriority = "media"
	WorkOrderPriorityHigh   WorkOrderPriority = "alta"
	WorkOrderPriorityUrgent WorkOrderPriority = "urgente"
)

var validWorkOrderPriorities = []WorkOrderPriority{
	WorkOrderPriorityLow,
	WorkOrderPriorityMedium,
	WorkOrderPriorityHigh,
	WorkOrderPriorityUrgent,
}

// String implements fmt.Stringer.
func (p WorkOrderPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known WorkOrderPriority.
func (p WorkOrderPriority) IsValid() bool {
	for _, candidate := range validWorkOrderPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseWorkOrderPriority converts raw input into a WorkOrderPriority.
func ParseWorkOrderPriority(value string) (WorkOrderPriority, error) {
	for _, candidate := range validWorkOrderPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order priority %q", value)
}
