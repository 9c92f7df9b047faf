package enums

import "fmt"

// WorkOrderStatus tracks the maintenance work-order lifecycle. Transitions
// are strictly forward: open, aguardando_manutencao, em_manutencao,
// finalizado. Cancelado is reserved and reached by no transition today.
type WorkOrderStatus string

const (
	WorkOrderStatusOpen       WorkOrderStatus = "open"
	WorkOrderStatusAwaiting   WorkOrderStatus = "aguardando_manutencao"
	WorkOrderStatusInProgress WorkOrderStatus = "em_manutencao"
	WorkOrderStatusFinalized  WorkOrderStatus = "finalizado"
	WorkOrderStatusCanceled   WorkOrderStatus = "cancelado"
)

var validWorkOrderStatuses = []WorkOrderStatus{
	WorkOrderStatusOpen,
	WorkOrderStatusAwaiting,
	WorkOrderStatusInProgress,
	WorkOrderStatusFinalized,
	WorkOrderStatusCanceled,
}

// String implements fmt.Stringer.
func (s WorkOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WorkOrderStatus.
func (s WorkOrderStatus) IsValid() bool {
	for _, candidate := range validWorkOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsFinal reports whether the status terminates the work order.
func (s WorkOrderStatus) IsFinal() bool {
	return s == WorkOrderStatusFinalized || s == WorkOrderStatusCanceled
}

// ParseWorkOrderStatus converts raw input into a WorkOrderStatus.
func ParseWorkOrderStatus(value string) (WorkOrderStatus, error) {
	for _, candidate := range validWorkOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order status %q", value)
}
