package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/internal/equipment"
	"github.com/dfcarvalho/radiostock-backend/internal/invoices"
	"github.com/dfcarvalho/radiostock-backend/internal/movements"
	"github.com/dfcarvalho/radiostock-backend/internal/sequence"
	"github.com/dfcarvalho/radiostock-backend/pkg/auth"
	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
)

const (
	defaultCodePrefix    = "MN"
	defaultTechnicalNote = "Sem observações técnicas"
)

// Service drives work orders through the forward-only maintenance
// lifecycle, keeping the equipment registry and the movement log in step
// with every transition.
type Service interface {
	CreateRequest(ctx context.Context, input CreateRequestInput, actor auth.Identity) (*WorkOrderDTO, error)
	Advance(ctx context.Context, code string, actor auth.Identity) (*WorkOrderDTO, error)
	Start(ctx context.Context, code, technician string, actor auth.Identity) (*WorkOrderDTO, error)
	Complete(ctx context.Context, code string, input CompleteInput, actor auth.Identity) (*WorkOrderDTO, error)

	// OpenForDefect is the check-in branch: it creates the work order inside
	// the caller's transaction for a unit already claimed into maintenance.
	OpenForDefect(ctx context.Context, tx *gorm.DB, input invoices.DefectInput) (*models.WorkOrder, error)

	GetByCode(ctx context.Context, code string, actor auth.Identity) (*WorkOrderDTO, error)
	List(ctx context.Context, status *enums.WorkOrderStatus, actor auth.Identity) ([]WorkOrderDTO, error)
	InMaintenanceStock(ctx context.Context) ([]InMaintenanceUnit, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx         txRunner
	repo       Repository
	equipment  equipment.Repository
	invoices   invoices.Repository
	movements  movements.Service
	codePrefix string
}

// ServiceParams bundles the dependencies required to build the maintenance
// service. CodePrefix defaults to "MN" when empty.
type ServiceParams struct {
	Tx         txRunner
	Repo       Repository
	Equipment  equipment.Repository
	Invoices   invoices.Repository
	Movements  movements.Service
	CodePrefix string
}

// NewService constructs the maintenance workflow service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("work order repository is required")
	}
	if params.Equipment == nil {
		return nil, fmt.Errorf("equipment repository is required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice repository is required")
	}
	if params.Movements == nil {
		return nil, fmt.Errorf("movements service is required")
	}
	prefix := strings.TrimSpace(params.CodePrefix)
	if prefix == "" {
		prefix = defaultCodePrefix
	}
	return &service{
		tx:         params.Tx,
		repo:       params.Repo,
		equipment:  params.Equipment,
		invoices:   params.Invoices,
		movements:  params.Movements,
		codePrefix: prefix,
	}, nil
}

// CreateRequest opens a work order for units an operator reports as faulty.
// Units may still be checked out to a client; the claim happens on Advance,
// not here.
func (s *service) CreateRequest(ctx context.Context, input CreateRequestInput, actor auth.Identity) (*WorkOrderDTO, error) {
	priority := input.Priority
	if priority == "" {
		priority = enums.WorkOrderPriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority").
			WithDetails(map[string]any{"priority": string(priority)})
	}

	radios := dedupeRadios(input.Radios)
	if len(radios) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one serial is required")
	}

	var combined error
	violations := map[string]string{}
	snapshots := make([]models.WorkOrderRadio, 0, len(radios))
	for _, radio := range radios {
		unit, err := s.equipment.FindBySerial(ctx, radio.Serial, false)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				violations[radio.Serial] = "not registered"
				combined = multierr.Append(combined, fmt.Errorf("serial %s: not registered", radio.Serial))
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup serial")
		}
		if unit.Status == enums.EquipmentStatusMaintenance {
			violations[radio.Serial] = "already in maintenance"
			combined = multierr.Append(combined, fmt.Errorf("serial %s: already in maintenance", radio.Serial))
			continue
		}
		snapshots = append(snapshots, models.WorkOrderRadio{
			Serial:    unit.Serial,
			ModelName: unit.ModelName,
			AssetTag:  unit.AssetTag,
			Problem:   radio.Problem,
		})
	}
	if len(violations) > 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "serials cannot be sent to maintenance").
			WithDetails(map[string]any{"serials": violations})
	}

	order := &models.WorkOrder{
		RequestedBy:   actor.Email,
		RequesterName: actor.DisplayName,
		Priority:      priority,
		Status:        enums.WorkOrderStatusOpen,
		Radios:        snapshots,
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		order.RequesterNotes = &notes
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		value, err := sequence.Next(ctx, tx, sequence.CounterWorkOrders)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "next work order code")
		}
		order.Code = sequence.FormatWorkOrderCode(s.codePrefix, value)
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create work order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := workOrderToDTO(order)
	return &dto, nil
}

// Advance moves an open order to aguardando_manutencao, pulling every listed
// unit out of circulation. Units already in maintenance status (the defect
// check-in path puts them there before the order advances) are left alone.
func (s *service) Advance(ctx context.Context, code string, actor auth.Identity) (*WorkOrderDTO, error) {
	order, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.WorkOrderStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "work order is not open").
			WithDetails(map[string]any{"code": order.Code, "status": string(order.Status)})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.WithTx(tx).MarkAwaiting(ctx, order.Code)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance work order")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "work order is no longer open").
				WithDetails(map[string]any{"code": order.Code})
		}

		equipmentRepo := s.equipment.WithTx(tx)
		for _, radio := range order.Radios {
			unit, err := equipmentRepo.FindBySerial(ctx, radio.Serial, false)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeConflict, "unit was decommissioned").
						WithDetails(map[string]any{"serial": radio.Serial})
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup unit")
			}
			if unit.Status == enums.EquipmentStatusMaintenance {
				continue
			}

			claimed, err := equipmentRepo.ClaimForMaintenance(ctx, radio.Serial, unit.Status)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim unit")
			}
			if !claimed {
				return pkgerrors.New(pkgerrors.CodeConflict, "unit changed state during the claim").
					WithDetails(map[string]any{"serial": radio.Serial})
			}

			if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
				WorkOrderCode: &order.Code,
				InvoiceNumber: unit.CurrentInvoice,
				Serial:        radio.Serial,
				Event:         enums.MovementSentToMaintenance,
				Description:   fmt.Sprintf("Enviado para manutenção na OS %s", order.Code),
				Actor:         actor.Email,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record movement")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, order.Code)
}

// Start assigns a technician and moves the order to em_manutencao.
func (s *service) Start(ctx context.Context, code, technician string, actor auth.Identity) (*WorkOrderDTO, error) {
	technician = strings.TrimSpace(technician)
	if technician == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician is required")
	}

	order, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.WorkOrderStatusAwaiting {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "work order is not awaiting maintenance").
			WithDetails(map[string]any{"code": order.Code, "status": string(order.Status)})
	}

	moved, err := s.repo.MarkStarted(ctx, order.Code, technician, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start work order")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "work order is no longer awaiting maintenance").
			WithDetails(map[string]any{"code": order.Code})
	}

	return s.reload(ctx, order.Code)
}

// Complete finalizes the order and settles every listed unit: condemned
// serials are retired for good, units still wanted by an open invoice go
// back to the client, everything else returns to stock.
func (s *service) Complete(ctx context.Context, code string, input CompleteInput, actor auth.Identity) (*WorkOrderDTO, error) {
	order, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.WorkOrderStatusInProgress {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "work order is not in maintenance").
			WithDetails(map[string]any{"code": order.Code, "status": string(order.Status)})
	}

	listed := map[string]bool{}
	for _, radio := range order.Radios {
		listed[radio.Serial] = true
	}
	condemned := map[string]bool{}
	for _, serial := range input.CondemnedSerials {
		serial = strings.TrimSpace(serial)
		if serial == "" {
			continue
		}
		if !listed[serial] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "condemned serial is not listed on this work order").
				WithDetails(map[string]any{"serial": serial})
		}
		condemned[serial] = true
	}

	notes := strings.TrimSpace(input.TechnicalNotes)
	if notes == "" {
		notes = defaultTechnicalNote
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := time.Now().UTC()

		moved, err := s.repo.WithTx(tx).MarkFinished(ctx, order.Code, notes, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finish work order")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "work order is no longer in maintenance").
				WithDetails(map[string]any{"code": order.Code})
		}

		for _, radio := range order.Radios {
			if err := s.settleUnit(ctx, tx, order, radio.Serial, condemned[radio.Serial], now, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, order.Code)
}

// settleUnit reconciles one unit when its work order closes.
func (s *service) settleUnit(ctx context.Context, tx *gorm.DB, order *models.WorkOrder, serial string, condemn bool, now time.Time, actor auth.Identity) error {
	equipmentRepo := s.equipment.WithTx(tx)

	unit, err := equipmentRepo.FindBySerial(ctx, serial, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeConflict, "unit was decommissioned").
				WithDetails(map[string]any{"serial": serial})
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup unit")
	}

	// An outstanding link means an open outbound invoice still expects the
	// unit back.
	var outbound *models.OutboundInvoice
	if unit.CurrentInvoice != nil {
		invoice, err := s.invoices.WithTx(tx).FindOutboundByNumber(ctx, *unit.CurrentInvoice)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup linked invoice")
		}
		if err == nil {
			for _, linked := range invoice.OutstandingSerials() {
				if linked == serial {
					outbound = invoice
					break
				}
			}
		}
	}

	if condemn {
		retired, err := equipmentRepo.CondemnInMaintenance(ctx, serial, actor.Email, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "condemn unit")
		}
		if !retired {
			return pkgerrors.New(pkgerrors.CodeConflict, "unit is not in maintenance").
				WithDetails(map[string]any{"serial": serial})
		}
		if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
			WorkOrderCode: &order.Code,
			InvoiceNumber: unit.CurrentInvoice,
			Serial:        serial,
			Event:         enums.MovementCondemned,
			Description:   fmt.Sprintf("Condenado na OS %s", order.Code),
			Actor:         actor.Email,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record movement")
		}

		if outbound != nil {
			removed, err := s.invoices.WithTx(tx).MarkRemoved(ctx, outbound.ID, serial, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove serial from invoice")
			}
			if removed {
				if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
					WorkOrderCode: &order.Code,
					InvoiceNumber: &outbound.Number,
					Serial:        serial,
					Event:         enums.MovementRemovedPostMaintenance,
					Description:   fmt.Sprintf("Removido da NF %s após condenação na OS %s", outbound.Number, order.Code),
					Actor:         actor.Email,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record movement")
				}
			}
		}
		return nil
	}

	if outbound != nil {
		returned, err := equipmentRepo.ReturnToInvoice(ctx, serial)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "return unit to invoice")
		}
		if !returned {
			return pkgerrors.New(pkgerrors.CodeConflict, "unit is not in maintenance").
				WithDetails(map[string]any{"serial": serial})
		}
		if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
			WorkOrderCode: &order.Code,
			InvoiceNumber: &outbound.Number,
			Serial:        serial,
			Event:         enums.MovementReturnToInvoice,
			Description:   fmt.Sprintf("Retornado à NF %s após manutenção na OS %s", outbound.Number, order.Code),
			Actor:         actor.Email,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record movement")
		}
		return nil
	}

	returned, err := equipmentRepo.ReturnToStock(ctx, serial)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "return unit to stock")
	}
	if !returned {
		return pkgerrors.New(pkgerrors.CodeConflict, "unit is not in maintenance").
			WithDetails(map[string]any{"serial": serial})
	}
	if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
		WorkOrderCode: &order.Code,
		Serial:        serial,
		Event:         enums.MovementReturnedToStock,
		Description:   fmt.Sprintf("Devolvido ao estoque após manutenção na OS %s", order.Code),
		Actor:         actor.Email,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record movement")
	}
	return nil
}

func (s *service) OpenForDefect(ctx context.Context, tx *gorm.DB, input invoices.DefectInput) (*models.WorkOrder, error) {
	equipmentRepo := s.equipment.WithTx(tx)

	radio := models.WorkOrderRadio{Serial: input.Serial, Problem: input.Problem}
	unit, err := equipmentRepo.FindBySerial(ctx, input.Serial, false)
	if err == nil {
		radio.ModelName = unit.ModelName
		radio.AssetTag = unit.AssetTag
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup unit")
	}

	value, err := sequence.Next(ctx, tx, sequence.CounterWorkOrders)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "next work order code")
	}

	originInvoice := input.OriginInvoice
	originClient := input.OriginClient
	order := &models.WorkOrder{
		Code:          sequence.FormatWorkOrderCode(s.codePrefix, value),
		RequestedBy:   input.Actor.Email,
		RequesterName: input.Actor.DisplayName,
		Priority:      enums.WorkOrderPriorityMedium,
		Status:        enums.WorkOrderStatusOpen,
		OriginInvoice: &originInvoice,
		OriginClient:  &originClient,
		Radios:        []models.WorkOrderRadio{radio},
	}
	if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create work order")
	}
	return order, nil
}

// GetByCode fetches one work order. Requesters without the management
// permission only see their own orders.
func (s *service) GetByCode(ctx context.Context, code string, actor auth.Identity) (*WorkOrderDTO, error) {
	order, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !canManage(actor) && order.RequestedBy != actor.Email {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "work order not found").
			WithDetails(map[string]any{"code": code})
	}
	dto := workOrderToDTO(order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, status *enums.WorkOrderStatus, actor auth.Identity) ([]WorkOrderDTO, error) {
	filter := ListFilter{Status: status}
	if !canManage(actor) {
		filter.RequestedBy = actor.Email
	}
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list work orders")
	}
	dtos := make([]WorkOrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, workOrderToDTO(&orders[i]))
	}
	return dtos, nil
}

// InMaintenanceStock lists every unit currently in maintenance together with
// the order holding it.
func (s *service) InMaintenanceStock(ctx context.Context) ([]InMaintenanceUnit, error) {
	units, err := s.equipment.ListByStatus(ctx, enums.EquipmentStatusMaintenance)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list units in maintenance")
	}

	view := make([]InMaintenanceUnit, 0, len(units))
	for i := range units {
		entry := InMaintenanceUnit{
			Serial:         units[i].Serial,
			ModelName:      units[i].ModelName,
			AssetTag:       units[i].AssetTag,
			CurrentInvoice: units[i].CurrentInvoice,
		}
		order, err := s.repo.LatestUnfinishedBySerial(ctx, units[i].Serial)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup work order")
		}
		if err == nil {
			entry.WorkOrderCode = &order.Code
			entry.WorkOrderStatus = &order.Status
			entry.Priority = &order.Priority
		}
		view = append(view, entry)
	}
	return view, nil
}

func (s *service) findByCode(ctx context.Context, code string) (*models.WorkOrder, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order code is required")
	}
	order, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "work order not found").
				WithDetails(map[string]any{"code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup work order")
	}
	return order, nil
}

func (s *service) reload(ctx context.Context, code string) (*WorkOrderDTO, error) {
	order, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload work order")
	}
	dto := workOrderToDTO(order)
	return &dto, nil
}

func canManage(actor auth.Identity) bool {
	return enums.Satisfies(actor.Permissions, enums.PermissionManageMaintenance)
}

func dedupeRadios(radios []RequestRadioInput) []RequestRadioInput {
	seen := map[string]bool{}
	var out []RequestRadioInput
	for _, radio := range radios {
		radio.Serial = strings.TrimSpace(radio.Serial)
		if radio.Serial == "" || seen[radio.Serial] {
			continue
		}
		seen[radio.Serial] = true
		out = append(out, radio)
	}
	return out
}
