package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
)

// Repository manages persistence for the radio model catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, model *models.RadioModel) error
	List(ctx context.Context) ([]models.RadioModel, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, model *models.RadioModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *repository) List(ctx context.Context) ([]models.RadioModel, error) {
	var entries []models.RadioModel
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RadioModel{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
