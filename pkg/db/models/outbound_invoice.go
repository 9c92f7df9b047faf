package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// Observation is one append-only free-text note on an outbound invoice.
type Observation struct {
	Text   string    `json:"text"`
	Author string    `json:"author"`
	At     time.Time `json:"at"`
}

// OutboundInvoice (NF-Saída) records a rental checkout. It is never deleted;
// its lifecycle status is derived from the radios' returned/removed flags.
type OutboundInvoice struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Number             string                 `gorm:"column:number;not null;uniqueIndex"`
	Client             string                 `gorm:"column:client;not null"`
	CheckoutDate       time.Time              `gorm:"column:checkout_date;not null"`
	ExpectedReturnDate *time.Time             `gorm:"column:expected_return_date"`
	RentalType         enums.RentalType       `gorm:"column:rental_type;not null"`
	RentalValue        decimal.Decimal        `gorm:"column:rental_value;type:numeric"`
	Observations       []Observation          `gorm:"column:observations;type:jsonb;serializer:json"`
	RegisteredBy       string                 `gorm:"column:registered_by;not null"`
	Radios             []OutboundInvoiceRadio `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (i *OutboundInvoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Status derives the invoice lifecycle state: finalized once every radio is
// either returned or administratively removed.
func (i *OutboundInvoice) Status() enums.InvoiceStatus {
	settled := 0
	for _, radio := range i.Radios {
		if radio.Returned || radio.Removed {
			settled++
		}
	}
	if len(i.Radios) > 0 && settled == len(i.Radios) {
		return enums.InvoiceStatusFinalized
	}
	return enums.InvoiceStatusOpen
}

// OutstandingSerials lists the radios still checked out on the invoice.
func (i *OutboundInvoice) OutstandingSerials() []string {
	var out []string
	for _, radio := range i.Radios {
		if !radio.Returned && !radio.Removed {
			out = append(out, radio.Serial)
		}
	}
	return out
}

// OutboundInvoiceRadio is one serial listed on an outbound invoice together
// with its per-unit return state. (invoice, serial) pairs are unique, which
// keeps the returned/removed sets de-duplicated by construction.
type OutboundInvoiceRadio struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID     uuid.UUID  `gorm:"column:invoice_id;type:uuid;not null;uniqueIndex:idx_outbound_radio_serial"`
	Serial        string     `gorm:"column:serial;not null;uniqueIndex:idx_outbound_radio_serial"`
	Returned      bool       `gorm:"column:returned;not null;default:false"`
	ReturnedAt    *time.Time `gorm:"column:returned_at"`
	InboundNumber *string    `gorm:"column:inbound_number"`
	WorkOrderCode *string    `gorm:"column:work_order_code"`
	Removed       bool       `gorm:"column:removed;not null;default:false"`
	RemovedAt     *time.Time `gorm:"column:removed_at"`
	AddedAt       time.Time  `gorm:"column:added_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (r *OutboundInvoiceRadio) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
