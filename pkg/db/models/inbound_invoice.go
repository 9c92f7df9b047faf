package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// InboundInvoice (NF-Entrada) records one check-in event against an outbound
// invoice. It is immutable after creation.
type InboundInvoice struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Number         string               `gorm:"column:number;not null;uniqueIndex"`
	OutboundNumber string               `gorm:"column:outbound_number;not null;index"`
	AutoNumbered   bool                 `gorm:"column:auto_numbered;not null;default:false"`
	Observations   []Observation        `gorm:"column:observations;type:jsonb;serializer:json"`
	RegisteredBy   string               `gorm:"column:registered_by;not null"`
	Items          []InboundInvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (i *InboundInvoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InboundInvoiceItem is one serial returned in a check-in event, graded by
// the submitter as ok or defective.
type InboundInvoiceItem struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID uuid.UUID             `gorm:"column:invoice_id;type:uuid;not null;index"`
	Serial    string                `gorm:"column:serial;not null"`
	Condition enums.ReturnCondition `gorm:"column:condition;not null"`
	Problem   *string               `gorm:"column:problem"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (it *InboundInvoiceItem) BeforeCreate(*gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}
