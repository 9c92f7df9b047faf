package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RadioModel is a catalog entry; equipment registration requires the model
// name to exist here. Names are stored uppercase and unique.
type RadioModel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedBy string    `gorm:"column:created_by;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (m *RadioModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
