package maintenance

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// ListFilter narrows work-order listings.
type ListFilter struct {
	Status      *enums.WorkOrderStatus
	RequestedBy string
}

// Repository persists maintenance work orders. Lifecycle transitions are
// conditional writes keyed on the current status, so concurrent operators
// cannot move the same order twice.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.WorkOrder) error
	FindByCode(ctx context.Context, code string) (*models.WorkOrder, error)
	List(ctx context.Context, filter ListFilter) ([]models.WorkOrder, error)

	MarkAwaiting(ctx context.Context, code string) (bool, error)
	MarkStarted(ctx context.Context, code, technician string, at time.Time) (bool, error)
	MarkFinished(ctx context.Context, code, technicalNotes string, at time.Time) (bool, error)

	// LatestUnfinishedBySerial finds the newest non-final work order listing
	// the serial, for the in-maintenance stock view.
	LatestUnfinishedBySerial(ctx context.Context, serial string) (*models.WorkOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the gorm-backed work-order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.WorkOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Radios").
		Where("code = ?", code).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.WorkOrder, error) {
	query := r.db.WithContext(ctx).Preload("Radios").Order("created_at DESC")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RequestedBy != "" {
		query = query.Where("requested_by = ?", filter.RequestedBy)
	}
	var orders []models.WorkOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) MarkAwaiting(ctx context.Context, code string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("code = ? AND status = ?", code, enums.WorkOrderStatusOpen).
		Update("status", enums.WorkOrderStatusAwaiting)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkStarted(ctx context.Context, code, technician string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("code = ? AND status = ?", code, enums.WorkOrderStatusAwaiting).
		Updates(map[string]any{
			"status":     enums.WorkOrderStatusInProgress,
			"technician": technician,
			"started_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkFinished(ctx context.Context, code, technicalNotes string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("code = ? AND status = ?", code, enums.WorkOrderStatusInProgress).
		Updates(map[string]any{
			"status":          enums.WorkOrderStatusFinalized,
			"technical_notes": technicalNotes,
			"finished_at":     at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) LatestUnfinishedBySerial(ctx context.Context, serial string) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("Radios").
		Joins("JOIN work_order_radios ON work_order_radios.work_order_id = work_orders.id").
		Where("work_order_radios.serial = ?", serial).
		Where("work_orders.status NOT IN ?", []enums.WorkOrderStatus{
			enums.WorkOrderStatusFinalized,
			enums.WorkOrderStatusCanceled,
		}).
		Order("work_orders.created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
