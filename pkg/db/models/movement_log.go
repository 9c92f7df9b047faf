package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// MovementLogEntry is one write-once record in the audit trail. Entries are
// never updated or deleted; at least one of InvoiceNumber/WorkOrderCode is
// always set.
type MovementLogEntry struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceNumber *string             `gorm:"column:invoice_number;index"`
	WorkOrderCode *string             `gorm:"column:work_order_code;index"`
	Serial        string              `gorm:"column:serial;not null;index"`
	Event         enums.MovementEvent `gorm:"column:event;not null"`
	Description   string              `gorm:"column:description;not null"`
	Actor         string              `gorm:"column:actor;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (e *MovementLogEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
