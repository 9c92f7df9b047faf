package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
)

// Repository manages persistence for outbound and inbound invoices.
// Invoices are never deleted; per-radio return state is flipped with
// conditional writes so duplicate check-ins cannot double-append.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOutbound(ctx context.Context, invoice *models.OutboundInvoice) error
	FindOutboundByID(ctx context.Context, id uuid.UUID) (*models.OutboundInvoice, error)
	FindOutboundByNumber(ctx context.Context, number string) (*models.OutboundInvoice, error)
	ExistsOutboundNumber(ctx context.Context, number string) (bool, error)
	ListOutbound(ctx context.Context) ([]models.OutboundInvoice, error)
	AddRadio(ctx context.Context, radio *models.OutboundInvoiceRadio) error
	MarkReturned(ctx context.Context, invoiceID uuid.UUID, serial string, at time.Time, inboundNumber, workOrderCode *string) (bool, error)
	MarkRemoved(ctx context.Context, invoiceID uuid.UUID, serial string, at time.Time) (bool, error)
	AppendObservation(ctx context.Context, id uuid.UUID, obs models.Observation) error

	CreateInbound(ctx context.Context, invoice *models.InboundInvoice) error
	FindInboundByID(ctx context.Context, id uuid.UUID) (*models.InboundInvoice, error)
	ExistsInboundNumber(ctx context.Context, number string) (bool, error)
	ListInbound(ctx context.Context) ([]models.InboundInvoice, error)
	ListInboundByOutbound(ctx context.Context, outboundNumber string) ([]models.InboundInvoice, error)
	MaxAutoInboundNumber(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOutbound(ctx context.Context, invoice *models.OutboundInvoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindOutboundByID(ctx context.Context, id uuid.UUID) (*models.OutboundInvoice, error) {
	var invoice models.OutboundInvoice
	if err := r.db.WithContext(ctx).
		Preload("Radios").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) FindOutboundByNumber(ctx context.Context, number string) (*models.OutboundInvoice, error) {
	var invoice models.OutboundInvoice
	if err := r.db.WithContext(ctx).
		Preload("Radios").
		First(&invoice, "number = ?", number).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) ExistsOutboundNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OutboundInvoice{}).
		Where("number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListOutbound(ctx context.Context) ([]models.OutboundInvoice, error) {
	var invoices []models.OutboundInvoice
	if err := r.db.WithContext(ctx).
		Preload("Radios").
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) AddRadio(ctx context.Context, radio *models.OutboundInvoiceRadio) error {
	return r.db.WithContext(ctx).Create(radio).Error
}

// MarkReturned settles one serial on an outbound invoice. The conditional
// predicate makes repeated check-ins of the same serial a no-op miss.
func (r *repository) MarkReturned(ctx context.Context, invoiceID uuid.UUID, serial string, at time.Time, inboundNumber, workOrderCode *string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OutboundInvoiceRadio{}).
		Where("invoice_id = ? AND serial = ? AND returned = ? AND removed = ?", invoiceID, serial, false, false).
		Updates(map[string]any{
			"returned":        true,
			"returned_at":     at,
			"inbound_number":  inboundNumber,
			"work_order_code": workOrderCode,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) MarkRemoved(ctx context.Context, invoiceID uuid.UUID, serial string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OutboundInvoiceRadio{}).
		Where("invoice_id = ? AND serial = ? AND returned = ? AND removed = ?", invoiceID, serial, false, false).
		Updates(map[string]any{
			"removed":    true,
			"removed_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) AppendObservation(ctx context.Context, id uuid.UUID, obs models.Observation) error {
	var invoice models.OutboundInvoice
	if err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		return err
	}
	invoice.Observations = append(invoice.Observations, obs)
	return r.db.WithContext(ctx).
		Model(&models.OutboundInvoice{}).
		Where("id = ?", id).
		Update("observations", invoice.Observations).Error
}

func (r *repository) CreateInbound(ctx context.Context, invoice *models.InboundInvoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindInboundByID(ctx context.Context, id uuid.UUID) (*models.InboundInvoice, error) {
	var invoice models.InboundInvoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) ExistsInboundNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InboundInvoice{}).
		Where("number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListInbound(ctx context.Context) ([]models.InboundInvoice, error) {
	var invoices []models.InboundInvoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) ListInboundByOutbound(ctx context.Context, outboundNumber string) ([]models.InboundInvoice, error) {
	var invoices []models.InboundInvoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("outbound_number = ?", outboundNumber).
		Order("created_at ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// MaxAutoInboundNumber returns the highest auto-assigned inbound number, or
// 999999 when none exist, so the first auto number is 1000000.
func (r *repository) MaxAutoInboundNumber(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&models.InboundInvoice{}).
		Where("auto_numbered = ?", true).
		Select("COALESCE(MAX(CAST(number AS INTEGER)), 999999)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}
