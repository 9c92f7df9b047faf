package maintenance

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// RequestRadioInput is one unit named on a maintenance request.
type RequestRadioInput struct {
	Serial  string
	Problem string
}

// CreateRequestInput captures an explicit maintenance request. Priority
// defaults to media when empty.
type CreateRequestInput struct {
	Priority enums.WorkOrderPriority
	Radios   []RequestRadioInput
	Notes    string
}

// CompleteInput closes a work order. Serials listed in CondemnedSerials are
// retired permanently; everything else returns to circulation.
type CompleteInput struct {
	TechnicalNotes   string
	CondemnedSerials []string
}

// RadioDTO is one unit on a work order with its registry snapshot.
type RadioDTO struct {
	Serial    string `json:"serial"`
	ModelName string `json:"model_name"`
	AssetTag  string `json:"asset_tag,omitempty"`
	Problem   string `json:"problem"`
}

// WorkOrderDTO is the transport shape of a maintenance work order.
type WorkOrderDTO struct {
	ID             uuid.UUID               `json:"id"`
	Code           string                  `json:"code"`
	RequestedBy    string                  `json:"requested_by"`
	RequesterName  string                  `json:"requester_name,omitempty"`
	Priority       enums.WorkOrderPriority `json:"priority"`
	Status         enums.WorkOrderStatus   `json:"status"`
	Technician     *string                 `json:"technician,omitempty"`
	StartedAt      *time.Time              `json:"started_at,omitempty"`
	FinishedAt     *time.Time              `json:"finished_at,omitempty"`
	RequesterNotes *string                 `json:"requester_notes,omitempty"`
	TechnicalNotes *string                 `json:"technical_notes,omitempty"`
	OriginInvoice  *string                 `json:"origin_invoice,omitempty"`
	OriginClient   *string                 `json:"origin_client,omitempty"`
	Radios         []RadioDTO              `json:"radios"`
	CreatedAt      time.Time               `json:"created_at"`
}

// InMaintenanceUnit joins a unit in maintenance status with the work order
// currently holding it.
type InMaintenanceUnit struct {
	Serial          string                   `json:"serial"`
	ModelName       string                   `json:"model_name"`
	AssetTag        string                   `json:"asset_tag,omitempty"`
	CurrentInvoice  *string                  `json:"current_invoice,omitempty"`
	WorkOrderCode   *string                  `json:"work_order_code,omitempty"`
	WorkOrderStatus *enums.WorkOrderStatus   `json:"work_order_status,omitempty"`
	Priority        *enums.WorkOrderPriority `json:"priority,omitempty"`
}

func workOrderToDTO(order *models.WorkOrder) WorkOrderDTO {
	dto := WorkOrderDTO{
		ID:             order.ID,
		Code:           order.Code,
		RequestedBy:    order.RequestedBy,
		RequesterName:  order.RequesterName,
		Priority:       order.Priority,
		Status:         order.Status,
		Technician:     order.Technician,
		StartedAt:      order.StartedAt,
		FinishedAt:     order.FinishedAt,
		RequesterNotes: order.RequesterNotes,
		TechnicalNotes: order.TechnicalNotes,
		OriginInvoice:  order.OriginInvoice,
		OriginClient:   order.OriginClient,
		CreatedAt:      order.CreatedAt,
	}
	for _, radio := range order.Radios {
		dto.Radios = append(dto.Radios, RadioDTO{
			Serial:    radio.Serial,
			ModelName: radio.ModelName,
			AssetTag:  radio.AssetTag,
			Problem:   radio.Problem,
		})
	}
	return dto
}
