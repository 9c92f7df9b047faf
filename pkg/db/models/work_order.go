package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// WorkOrder is a maintenance ticket moving through the forward-only
// open → aguardando_manutencao → em_manutencao → finalizado lifecycle.
// Work orders are never deleted.
type WorkOrder struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Code           string                  `gorm:"column:code;not null;uniqueIndex"`
	RequestedBy    string                  `gorm:"column:requested_by;not null;index"`
	RequesterName  string                  `gorm:"column:requester_name"`
	Priority       enums.WorkOrderPriority `gorm:"column:priority;not null;default:'media'"`
	Status         enums.WorkOrderStatus   `gorm:"column:status;not null;default:'open'"`
	Technician     *string                 `gorm:"column:technician"`
	StartedAt      *time.Time              `gorm:"column:started_at"`
	FinishedAt     *time.Time              `gorm:"column:finished_at"`
	RequesterNotes *string                 `gorm:"column:requester_notes"`
	TechnicalNotes *string                 `gorm:"column:technical_notes"`
	OriginInvoice  *string                 `gorm:"column:origin_invoice"`
	OriginClient   *string                 `gorm:"column:origin_client"`
	Radios         []WorkOrderRadio        `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (w *WorkOrder) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// WorkOrderRadio is one unit under maintenance, with the model/asset-tag
// snapshot taken from the registry at request time.
type WorkOrderRadio struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	WorkOrderID uuid.UUID `gorm:"column:work_order_id;type:uuid;not null;index"`
	Serial      string    `gorm:"column:serial;not null;index"`
	ModelName   string    `gorm:"column:model_name"`
	AssetTag    string    `gorm:"column:asset_tag"`
	Problem     string    `gorm:"column:problem;not null"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (r *WorkOrderRadio) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
