package movements

import (
	"context"

	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
)

// Repository manages persistence for movement log entries. The log is
// append-only, so no update or delete methods exist.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.MovementLogEntry) error
	ListByInvoice(ctx context.Context, invoiceNumber string) ([]models.MovementLogEntry, error)
	ListBySerial(ctx context.Context, serial string) ([]models.MovementLogEntry, error)
	ListByWorkOrder(ctx context.Context, code string) ([]models.MovementLogEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a movement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.MovementLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceNumber string) ([]models.MovementLogEntry, error) {
	return r.list(ctx, "invoice_number = ?", invoiceNumber)
}

func (r *repository) ListBySerial(ctx context.Context, serial string) ([]models.MovementLogEntry, error) {
	return r.list(ctx, "serial = ?", serial)
}

func (r *repository) ListByWorkOrder(ctx context.Context, code string) ([]models.MovementLogEntry, error) {
	return r.list(ctx, "work_order_code = ?", code)
}

func (r *repository) list(ctx context.Context, query string, arg any) ([]models.MovementLogEntry, error) {
	var entries []models.MovementLogEntry
	if err := r.db.WithContext(ctx).
		Where(query, arg).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
