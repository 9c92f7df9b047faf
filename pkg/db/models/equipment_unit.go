package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// EquipmentUnit is one physical radio tracked by the registry. Serial numbers
// are unique among active units only: a decommissioned record keeps its
// serial for history and may coexist with a re-registered active unit,
// unless it was condemned.
type EquipmentUnit struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Serial             string                `gorm:"column:serial;not null;index"`
	ModelName          string                `gorm:"column:model_name;not null"`
	AssetTag           string                `gorm:"column:asset_tag"`
	Frequency          string                `gorm:"column:frequency"`
	Status             enums.EquipmentStatus `gorm:"column:status;not null;default:'available'"`
	Active             bool                  `gorm:"column:active;not null;default:true"`
	Condemned          bool                  `gorm:"column:condemned;not null;default:false"`
	CurrentInvoice     *string               `gorm:"column:current_invoice"`
	RentalType         *enums.RentalType     `gorm:"column:rental_type"`
	RegisteredBy       string                `gorm:"column:registered_by;not null"`
	DecommissionReason *string               `gorm:"column:decommission_reason"`
	DecommissionedAt   *time.Time            `gorm:"column:decommissioned_at"`
	DecommissionedBy   *string               `gorm:"column:decommissioned_by"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (u *EquipmentUnit) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
