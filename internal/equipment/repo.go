package equipment

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// ListFilter narrows the active-unit listing.
type ListFilter struct {
	Status         *enums.EquipmentStatus
	CurrentInvoice string
	Search         string
}

// Repository manages persistence for equipment units. The Claim* methods are
// conditional writes: they report false when the unit was not in the expected
// state, and callers are expected to treat that as a conflict and roll back.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, unit *models.EquipmentUnit) error
	FindBySerial(ctx context.Context, serial string, includeInactive bool) (*models.EquipmentUnit, error)
	FindAnyBySerial(ctx context.Context, serial string) ([]models.EquipmentUnit, error)
	List(ctx context.Context, filter ListFilter) ([]models.EquipmentUnit, error)
	ListByStatus(ctx context.Context, status enums.EquipmentStatus) ([]models.EquipmentUnit, error)
	UpdateAssetTag(ctx context.Context, serial, assetTag string) (bool, error)
	Decommission(ctx context.Context, serial, reason, actor string, condemned bool, at time.Time) (bool, error)

	ClaimForCheckout(ctx context.Context, serial, invoiceNumber string, rentalType enums.RentalType) (bool, error)
	ReleaseToAvailable(ctx context.Context, serial string) (bool, error)
	ClaimForMaintenance(ctx context.Context, serial string, from enums.EquipmentStatus) (bool, error)
	ReturnToInvoice(ctx context.Context, serial string) (bool, error)
	ReturnToStock(ctx context.Context, serial string) (bool, error)
	CondemnInMaintenance(ctx context.Context, serial, actor string, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an equipment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, unit *models.EquipmentUnit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *repository) FindBySerial(ctx context.Context, serial string, includeInactive bool) (*models.EquipmentUnit, error) {
	query := r.db.WithContext(ctx).Where("serial = ?", serial)
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	var unit models.EquipmentUnit
	if err := query.Order("active DESC, created_at DESC").First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// FindAnyBySerial returns every record sharing the serial, newest first.
// Decommissioned history rows may coexist with one active unit.
func (r *repository) FindAnyBySerial(ctx context.Context, serial string) ([]models.EquipmentUnit, error) {
	var units []models.EquipmentUnit
	if err := r.db.WithContext(ctx).
		Where("serial = ?", serial).
		Order("created_at DESC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.EquipmentUnit, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if invoice := strings.TrimSpace(filter.CurrentInvoice); invoice != "" {
		query = query.Where("current_invoice = ?", invoice)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(serial) LIKE ? OR LOWER(model_name) LIKE ? OR LOWER(asset_tag) LIKE ?",
			like, like, like,
		)
	}

	var units []models.EquipmentUnit
	if err := query.Order("serial ASC").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.EquipmentStatus) ([]models.EquipmentUnit, error) {
	return r.List(ctx, ListFilter{Status: &status})
}

func (r *repository) UpdateAssetTag(ctx context.Context, serial, assetTag string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("serial = ? AND active = ?", serial, true).
		Update("asset_tag", assetTag)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) Decommission(ctx context.Context, serial, reason, actor string, condemned bool, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("serial = ? AND active = ? AND status = ?", serial, true, enums.EquipmentStatusAvailable).
		Updates(map[string]any{
			"active":              false,
			"condemned":           condemned,
			"decommission_reason": reason,
			"decommissioned_at":   at,
			"decommissioned_by":   actor,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ClaimForCheckout(ctx context.Context, serial, invoiceNumber string, rentalType enums.RentalType) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("serial = ? AND active = ? AND status = ?", serial, true, enums.EquipmentStatusAvailable).
		Updates(map[string]any{
			"status":          enums.EquipmentStatusOccupied,
			"current_invoice": invoiceNumber,
			"rental_type":     rentalType,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ReleaseToAvailable(ctx context.Context, serial string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("serial = ? AND active = ? AND status = ?", serial, true, enums.EquipmentStatusOccupied).
		Updates(map[string]any{
			"status":          enums.EquipmentStatusAvailable,
			"current_invoice": nil,
			"rental_type":     nil,
		})
	return res.RowsAffected > 0, res.Error
}

// ClaimForMaintenance keeps current_invoice untouched so a unit pulled out of
// an open rental can return to it on completion.
func (r *repository) ClaimForMaintenance(ctx context.Context, serial string, from enums.EquipmentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("serial = ? AND active = ? AND status = ?", serial, true, from).
		Update("status", enums.EquipmentStatusMaintenance)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ReturnToInvoice(ctx context.Context, serial string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("serial = ? AND active = ? AND status = ?", serial, true, enums.EquipmentStatusMaintenance).
		Update("status", enums.EquipmentStatusOccupied)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ReturnToStock(ctx context.Context, serial string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("serial = ? AND active = ? AND status = ?", serial, true, enums.EquipmentStatusMaintenance).
		Updates(map[string]any{
			"status":          enums.EquipmentStatusAvailable,
			"current_invoice": nil,
			"rental_type":     nil,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) CondemnInMaintenance(ctx context.Context, serial, actor string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.EquipmentUnit{}).
		Where("serial = ? AND active = ? AND status = ?", serial, true, enums.EquipmentStatusMaintenance).
		Updates(map[string]any{
			"active":              false,
			"condemned":           true,
			"decommission_reason": "condenado",
			"decommissioned_at":   at,
			"decommissioned_by":   actor,
		})
	return res.RowsAffected > 0, res.Error
}
