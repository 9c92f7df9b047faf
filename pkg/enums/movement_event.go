package enums

import "fmt"

// MovementEvent classifies an entry in the append-only movement log. Every
// equipment status transition records exactly one event.
type MovementEvent string

const (
	MovementInvoiceCreated        MovementEvent = "nf_created"
	MovementRadioAdded            MovementEvent = "radio_added"
	MovementReturnedOK            MovementEvent = "returned_ok"
	MovementSentToMaintenance     MovementEvent = "sent_to_maintenance"
	MovementReturnToInvoice       MovementEvent = "maintenance_return_to_invoice"
	MovementRemovedPostMaintenance MovementEvent = "removed_from_stock_post_maintenance"
	MovementCondemned             MovementEvent = "condemned"
	MovementReturnedToStock       MovementEvent = "returned_to_stock"
)

var validMovementEvents = []MovementEvent{
	MovementInvoiceCreated,
	MovementRadioAdded,
	MovementReturnedOK,
	MovementSentToMaintenance,
	MovementReturnToInvoice,
	MovementRemovedPostMaintenance,
	MovementCondemned,
	MovementReturnedToStock,
}

// String implements fmt.Stringer.
func (e MovementEvent) String() string {
	return string(e)
}

// IsValid reports whether the value is a known MovementEvent.
func (e MovementEvent) IsValid() bool {
	for _, candidate := range validMovementEvents {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseMovementEvent converts raw input into a MovementEvent.
func ParseMovementEvent(value string) (MovementEvent, error) {
	for _, candidate := range validMovementEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement event %q", value)
}
