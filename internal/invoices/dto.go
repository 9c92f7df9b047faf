package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// CreateOutboundInput captures a rental checkout (NF-Saída).
type CreateOutboundInput struct {
	Number             string
	Client             string
	CheckoutDate       time.Time
	ExpectedReturnDate *time.Time
	RentalType         enums.RentalType
	RentalValue        decimal.Decimal
	Serials            []string
	Observation        string
}

// InboundItemInput is one serial graded by the submitter at check-in.
type InboundItemInput struct {
	Serial    string
	Condition enums.ReturnCondition
	Problem   string
}

// CreateInboundInput captures a check-in event (NF-Entrada). When Number is
// empty the ledger assigns the next automatic number.
type CreateInboundInput struct {
	Number         string
	OutboundNumber string
	Items          []InboundItemInput
	Observation    string
}

// AmendOutboundInput carries the two supported amendments. At least one must
// be present.
type AmendOutboundInput struct {
	AddSerial   string
	Observation string
}

// RadioState is the per-serial return state shown on an outbound invoice.
type RadioState struct {
	Serial        string     `json:"serial"`
	ModelName     string     `json:"model_name,omitempty"`
	AssetTag      string     `json:"asset_tag,omitempty"`
	Returned      bool       `json:"returned"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	InboundNumber *string    `json:"inbound_number,omitempty"`
	WorkOrderCode *string    `json:"work_order_code,omitempty"`
}

// OutboundDTO is the transport shape of an outbound invoice with its derived
// status. Removed radios are not listed.
type OutboundDTO struct {
	ID                 uuid.UUID            `json:"id"`
	Number             string               `json:"number"`
	Type               enums.InvoiceType    `json:"type"`
	Client             string               `json:"client"`
	CheckoutDate       time.Time            `json:"checkout_date"`
	ExpectedReturnDate *time.Time           `json:"expected_return_date,omitempty"`
	RentalType         enums.RentalType     `json:"rental_type"`
	RentalValue        decimal.Decimal      `json:"rental_value"`
	Status             enums.InvoiceStatus  `json:"status"`
	Radios             []RadioState         `json:"radios"`
	Observations       []models.Observation `json:"observations"`
	RegisteredBy       string               `json:"registered_by"`
	CreatedAt          time.Time            `json:"created_at"`
}

// InboundItemDTO is one returned serial on an inbound invoice.
type InboundItemDTO struct {
	Serial    string                `json:"serial"`
	Condition enums.ReturnCondition `json:"condition"`
	Problem   *string               `json:"problem,omitempty"`
}

// InboundDTO is the transport shape of an inbound invoice.
type InboundDTO struct {
	ID             uuid.UUID            `json:"id"`
	Number         string               `json:"number"`
	Type           enums.InvoiceType    `json:"type"`
	OutboundNumber string               `json:"outbound_number"`
	AutoNumbered   bool                 `json:"auto_numbered"`
	Items          []InboundItemDTO     `json:"items"`
	Observations   []models.Observation `json:"observations"`
	RegisteredBy   string               `json:"registered_by"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Summary is the list-view shape shared by both invoice types.
type Summary struct {
	ID        uuid.UUID           `json:"id"`
	Number    string              `json:"number"`
	Type      enums.InvoiceType   `json:"type"`
	Client    string              `json:"client,omitempty"`
	Status    enums.InvoiceStatus `json:"status,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// OutboundHistory pairs an outbound invoice with its check-in events.
type OutboundHistory struct {
	Invoice  OutboundDTO  `json:"invoice"`
	Inbounds []InboundDTO `json:"inbounds"`
}

func outboundToDTO(invoice *models.OutboundInvoice) OutboundDTO {
	dto := OutboundDTO{
		ID:                 invoice.ID,
		Number:             invoice.Number,
		Type:               enums.InvoiceTypeOutbound,
		Client:             invoice.Client,
		CheckoutDate:       invoice.CheckoutDate,
		ExpectedReturnDate: invoice.ExpectedReturnDate,
		RentalType:         invoice.RentalType,
		RentalValue:        invoice.RentalValue,
		Status:             invoice.Status(),
		Observations:       invoice.Observations,
		RegisteredBy:       invoice.RegisteredBy,
		CreatedAt:          invoice.CreatedAt,
	}
	for _, radio := range invoice.Radios {
		if radio.Removed {
			continue
		}
		dto.Radios = append(dto.Radios, RadioState{
			Serial:        radio.Serial,
			Returned:      radio.Returned,
			ReturnedAt:    radio.ReturnedAt,
			InboundNumber: radio.InboundNumber,
			WorkOrderCode: radio.WorkOrderCode,
		})
	}
	return dto
}

func inboundToDTO(invoice *models.InboundInvoice) InboundDTO {
	dto := InboundDTO{
		ID:             invoice.ID,
		Number:         invoice.Number,
		Type:           enums.InvoiceTypeInbound,
		OutboundNumber: invoice.OutboundNumber,
		AutoNumbered:   invoice.AutoNumbered,
		Observations:   invoice.Observations,
		RegisteredBy:   invoice.RegisteredBy,
		CreatedAt:      invoice.CreatedAt,
	}
	for _, item := range invoice.Items {
		dto.Items = append(dto.Items, InboundItemDTO{
			Serial:    item.Serial,
			Condition: item.Condition,
			Problem:   item.Problem,
		})
	}
	return dto
}
