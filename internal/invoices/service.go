package invoices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/internal/equipment"
	"github.com/dfcarvalho/radiostock-backend/internal/movements"
	"github.com/dfcarvalho/radiostock-backend/pkg/auth"
	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
	"github.com/dfcarvalho/radiostock-backend/pkg/pagination"
)

// Service owns the invoice ledger: rental checkouts, check-ins and the
// amendments allowed on an open outbound invoice.
type Service interface {
	CreateOutbound(ctx context.Context, input CreateOutboundInput, actor auth.Identity) (*OutboundDTO, error)
	CreateInbound(ctx context.Context, input CreateInboundInput, actor auth.Identity) (*InboundDTO, error)
	AmendOutbound(ctx context.Context, id uuid.UUID, input AmendOutboundInput, actor auth.Identity) (*OutboundDTO, error)
	GetOutboundByNumber(ctx context.Context, number string) (*OutboundHistory, error)
	GetByID(ctx context.Context, id uuid.UUID) (any, error)
	List(ctx context.Context, invoiceType *enums.InvoiceType) ([]Summary, error)
	Recent(ctx context.Context, limit int) ([]Summary, error)
	MovementsByID(ctx context.Context, id uuid.UUID) ([]models.MovementLogEntry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// WorkOrderOpener creates the maintenance ticket for a serial returned
// defective, inside the check-in transaction.
type WorkOrderOpener interface {
	OpenForDefect(ctx context.Context, tx *gorm.DB, input DefectInput) (*models.WorkOrder, error)
}

// DefectInput describes the defective unit handed to maintenance at check-in.
type DefectInput struct {
	Serial        string
	Problem       string
	OriginInvoice string
	OriginClient  string
	Actor         auth.Identity
}

type service struct {
	tx         txRunner
	repo       Repository
	equipment  equipment.Repository
	movements  movements.Service
	workOrders WorkOrderOpener
}

// ServiceParams bundles the dependencies required to build an invoice service.
type ServiceParams struct {
	Tx         txRunner
	Repo       Repository
	Equipment  equipment.Repository
	Movements  movements.Service
	WorkOrders WorkOrderOpener
}

// NewService constructs the invoice ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("invoice repository is required")
	}
	if params.Equipment == nil {
		return nil, fmt.Errorf("equipment repository is required")
	}
	if params.Movements == nil {
		return nil, fmt.Errorf("movements service is required")
	}
	if params.WorkOrders == nil {
		return nil, fmt.Errorf("work order opener is required")
	}
	return &service{
		tx:         params.Tx,
		repo:       params.Repo,
		equipment:  params.Equipment,
		movements:  params.Movements,
		workOrders: params.WorkOrders,
	}, nil
}

// CreateOutbound validates every serial before any write, then claims all
// units and persists the invoice in one transaction. A single unclaimable
// serial aborts the whole checkout.
func (s *service) CreateOutbound(ctx context.Context, input CreateOutboundInput, actor auth.Identity) (*OutboundDTO, error) {
	number := strings.TrimSpace(input.Number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number is required")
	}
	if strings.TrimSpace(input.Client) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client is required")
	}
	if !input.RentalType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rental type").
			WithDetails(map[string]any{"rental_type": string(input.RentalType)})
	}
	serials := dedupeSerials(input.Serials)
	if len(serials) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one serial is required")
	}

	exists, err := s.repo.ExistsOutboundNumber(ctx, number)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check invoice number")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "invoice number already used").
			WithDetails(map[string]any{"number": number})
	}

	// Exhaustive validation before any write: report every bad serial, not
	// just the first.
	var combined error
	violations := map[string]string{}
	for _, serial := range serials {
		unit, err := s.equipment.FindBySerial(ctx, serial, false)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				violations[serial] = "not registered"
				combined = multierr.Append(combined, fmt.Errorf("serial %s: not registered", serial))
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup serial")
		}
		if unit.Status != enums.EquipmentStatusAvailable {
			violations[serial] = "not available (" + string(unit.Status) + ")"
			combined = multierr.Append(combined, fmt.Errorf("serial %s: %s", serial, unit.Status))
		}
	}
	if len(violations) > 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "serials cannot be checked out").
			WithDetails(map[string]any{"serials": violations})
	}

	checkoutDate := input.CheckoutDate
	if checkoutDate.IsZero() {
		checkoutDate = time.Now().UTC()
	}

	invoice := &models.OutboundInvoice{
		Number:             number,
		Client:             strings.TrimSpace(input.Client),
		CheckoutDate:       checkoutDate,
		ExpectedReturnDate: input.ExpectedReturnDate,
		RentalType:         input.RentalType,
		RentalValue:        input.RentalValue,
		RegisteredBy:       actor.Email,
	}
	if obs := strings.TrimSpace(input.Observation); obs != "" {
		invoice.Observations = []models.Observation{{Text: obs, Author: actor.Email, At: time.Now().UTC()}}
	}
	for _, serial := range serials {
		invoice.Radios = append(invoice.Radios, models.OutboundInvoiceRadio{Serial: serial})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		equipmentRepo := s.equipment.WithTx(tx)

		var unclaimed []string
		for _, serial := range serials {
			ok, err := equipmentRepo.ClaimForCheckout(ctx, serial, number, input.RentalType)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim unit")
			}
			if !ok {
				unclaimed = append(unclaimed, serial)
			}
		}
		if len(unclaimed) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "serials are no longer available").
				WithDetails(map[string]any{"serials": unclaimed})
		}

		if err := s.repo.WithTx(tx).CreateOutbound(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoice")
		}

		for _, serial := range serials {
			if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
				InvoiceNumber: &invoice.Number,
				Serial:        serial,
				Event:         enums.MovementInvoiceCreated,
				Description:   fmt.Sprintf("Saída para %s na NF %s", invoice.Client, invoice.Number),
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

	dto := outboundToDTO(invoice)
	return &dto, nil
}

// CreateInbound records a check-in event against an outbound invoice,
// settling each returned serial and branching defective units into
// maintenance, all in one transaction.
func (s *service) CreateInbound(ctx context.Context, input CreateInboundInput, actor auth.Identity) (*InboundDTO, error) {
	outboundNumber := strings.TrimSpace(input.OutboundNumber)
	if outboundNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbound invoice number is required")
	}

	items := dedupeItems(input.Items)
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one returned serial is required")
	}
	for _, item := range items {
		if !item.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid return condition").
				WithDetails(map[string]any{"serial": item.Serial, "condition": string(item.Condition)})
		}
	}

	outbound, err := s.repo.FindOutboundByNumber(ctx, outboundNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "outbound invoice not found").
				WithDetails(map[string]any{"number": outboundNumber})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup outbound invoice")
	}

	outstanding := map[string]bool{}
	for _, serial := range outbound.OutstandingSerials() {
		outstanding[serial] = true
	}
	var combined error
	violations := map[string]string{}
	for _, item := range items {
		if !outstanding[item.Serial] {
			violations[item.Serial] = "not an outstanding radio of this invoice"
			combined = multierr.Append(combined, fmt.Errorf("serial %s: not outstanding", item.Serial))
		}
	}
	if len(violations) > 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "serials cannot be checked in").
			WithDetails(map[string]any{"serials": violations})
	}

	manualNumber := strings.TrimSpace(input.Number)
	if manualNumber != "" {
		used, err := s.repo.ExistsInboundNumber(ctx, manualNumber)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check inbound number")
		}
		if used {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "inbound number already used").
				WithDetails(map[string]any{"number": manualNumber})
		}
	}

	invoice := &models.InboundInvoice{
		OutboundNumber: outboundNumber,
		RegisteredBy:   actor.Email,
	}
	if obs := strings.TrimSpace(input.Observation); obs != "" {
		invoice.Observations = []models.Observation{{Text: obs, Author: actor.Email, At: time.Now().UTC()}}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		equipmentRepo := s.equipment.WithTx(tx)

		if manualNumber != "" {
			invoice.Number = manualNumber
		} else {
			max, err := repo.MaxAutoInboundNumber(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "next inbound number")
			}
			invoice.Number = strconv.FormatInt(max+1, 10)
			invoice.AutoNumbered = true
		}

		now := time.Now().UTC()
		for _, item := range items {
			switch item.Condition {
			case enums.ReturnConditionDefective:
				claimed, err := equipmentRepo.ClaimForMaintenance(ctx, item.Serial, enums.EquipmentStatusOccupied)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim unit for maintenance")
				}
				if !claimed {
					return pkgerrors.New(pkgerrors.CodeConflict, "unit is no longer checked out").
						WithDetails(map[string]any{"serial": item.Serial})
				}

				workOrder, err := s.workOrders.OpenForDefect(ctx, tx, DefectInput{
					Serial:        item.Serial,
					Problem:       item.Problem,
					OriginInvoice: outbound.Number,
					OriginClient:  outbound.Client,
					Actor:         actor,
				})
				if err != nil {
					return err
				}

				settled, err := repo.MarkReturned(ctx, outbound.ID, item.Serial, now, &invoice.Number, &workOrder.Code)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle serial")
				}
				if !settled {
					return pkgerrors.New(pkgerrors.CodeConflict, "serial already settled on this invoice").
						WithDetails(map[string]any{"serial": item.Serial})
				}

				if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
					InvoiceNumber: &outbound.Number,
					WorkOrderCode: &workOrder.Code,
					Serial:        item.Serial,
					Event:         enums.MovementSentToMaintenance,
					Description:   fmt.Sprintf("Devolvido com defeito na NF %s: %s", invoice.Number, item.Problem),
					Actor:         actor.Email,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record movement")
				}

			default: // ok
				released, err := equipmentRepo.ReleaseToAvailable(ctx, item.Serial)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release unit")
				}
				if !released {
					return pkgerrors.New(pkgerrors.CodeConflict, "unit is no longer checked out").
						WithDetails(map[string]any{"serial": item.Serial})
				}

				settled, err := repo.MarkReturned(ctx, outbound.ID, item.Serial, now, &invoice.Number, nil)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle serial")
				}
				if !settled {
					return pkgerrors.New(pkgerrors.CodeConflict, "serial already settled on this invoice").
						WithDetails(map[string]any{"serial": item.Serial})
				}

				if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
					InvoiceNumber: &outbound.Number,
					Serial:        item.Serial,
					Event:         enums.MovementReturnedOK,
					Description:   fmt.Sprintf("Devolvido em bom estado na NF %s", invoice.Number),
					Actor:         actor.Email,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record movement")
				}
			}

			problem := strings.TrimSpace(item.Problem)
			entryItem := models.InboundInvoiceItem{
				Serial:    item.Serial,
				Condition: item.Condition,
			}
			if problem != "" {
				entryItem.Problem = &problem
			}
			invoice.Items = append(invoice.Items, entryItem)
		}

		if err := repo.CreateInbound(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create inbound invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := inboundToDTO(invoice)
	return &dto, nil
}

// AmendOutbound adds a serial to an open invoice and/or appends a note.
func (s *service) AmendOutbound(ctx context.Context, id uuid.UUID, input AmendOutboundInput, actor auth.Identity) (*OutboundDTO, error) {
	addSerial := strings.TrimSpace(input.AddSerial)
	observation := strings.TrimSpace(input.Observation)
	if addSerial == "" && observation == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to amend")
	}

	invoice, err := s.repo.FindOutboundByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "outbound invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invoice")
	}

	if addSerial != "" {
		for _, radio := range invoice.Radios {
			if radio.Serial == addSerial {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "serial already listed on this invoice").
					WithDetails(map[string]any{"serial": addSerial})
			}
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if addSerial != "" {
			claimed, err := s.equipment.WithTx(tx).ClaimForCheckout(ctx, addSerial, invoice.Number, invoice.RentalType)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim unit")
			}
			if !claimed {
				return pkgerrors.New(pkgerrors.CodeConflict, "unit is not available").
					WithDetails(map[string]any{"serial": addSerial})
			}
			if err := repo.AddRadio(ctx, &models.OutboundInvoiceRadio{
				InvoiceID: invoice.ID,
				Serial:    addSerial,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add radio")
			}
			if _, err := s.movements.Record(ctx, tx, movements.RecordInput{
				InvoiceNumber: &invoice.Number,
				Serial:        addSerial,
				Event:         enums.MovementRadioAdded,
				Description:   fmt.Sprintf("Rádio adicionado à NF %s", invoice.Number),
				Actor:         actor.Email,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record movement")
			}
		}

		if observation != "" {
			if err := repo.AppendObservation(ctx, invoice.ID, models.Observation{
				Text:   observation,
				Author: actor.Email,
				At:     time.Now().UTC(),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append observation")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindOutboundByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload invoice")
	}
	dto := outboundToDTO(updated)
	return &dto, nil
}

// GetOutboundByNumber returns the invoice together with every check-in
// recorded against it and the unit details of its listed radios.
func (s *service) GetOutboundByNumber(ctx context.Context, number string) (*OutboundHistory, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number is required")
	}

	invoice, err := s.repo.FindOutboundByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "outbound invoice not found").
				WithDetails(map[string]any{"number": number})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invoice")
	}

	dto := outboundToDTO(invoice)
	for i := range dto.Radios {
		unit, err := s.equipment.FindBySerial(ctx, dto.Radios[i].Serial, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup unit")
		}
		dto.Radios[i].ModelName = unit.ModelName
		dto.Radios[i].AssetTag = unit.AssetTag
	}

	inbounds, err := s.repo.ListInboundByOutbound(ctx, number)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list check-ins")
	}
	history := &OutboundHistory{Invoice: dto}
	for i := range inbounds {
		history.Inbounds = append(history.Inbounds, inboundToDTO(&inbounds[i]))
	}
	return history, nil
}

// GetByID resolves either invoice type.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (any, error) {
	outbound, err := s.repo.FindOutboundByID(ctx, id)
	if err == nil {
		dto := outboundToDTO(outbound)
		return &dto, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invoice")
	}

	inbound, err := s.repo.FindInboundByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invoice")
	}
	dto := inboundToDTO(inbound)
	return &dto, nil
}

func (s *service) List(ctx context.Context, invoiceType *enums.InvoiceType) ([]Summary, error) {
	summaries := []Summary{}

	if invoiceType == nil || *invoiceType == enums.InvoiceTypeOutbound {
		outbound, err := s.repo.ListOutbound(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list outbound invoices")
		}
		for i := range outbound {
			summaries = append(summaries, Summary{
				ID:        outbound[i].ID,
				Number:    outbound[i].Number,
				Type:      enums.InvoiceTypeOutbound,
				Client:    outbound[i].Client,
				Status:    outbound[i].Status(),
				CreatedAt: outbound[i].CreatedAt,
			})
		}
	}

	if invoiceType == nil || *invoiceType == enums.InvoiceTypeInbound {
		inbound, err := s.repo.ListInbound(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inbound invoices")
		}
		for i := range inbound {
			summaries = append(summaries, Summary{
				ID:        inbound[i].ID,
				Number:    inbound[i].Number,
				Type:      enums.InvoiceTypeInbound,
				CreatedAt: inbound[i].CreatedAt,
			})
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Recent returns the newest invoices of both types.
func (s *service) Recent(ctx context.Context, limit int) ([]Summary, error) {
	summaries, err := s.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	limit = pagination.NormalizeLimit(limit)
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// MovementsByID lists the audit trail of either invoice type.
func (s *service) MovementsByID(ctx context.Context, id uuid.UUID) ([]models.MovementLogEntry, error) {
	number := ""
	if outbound, err := s.repo.FindOutboundByID(ctx, id); err == nil {
		number = outbound.Number
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invoice")
	} else if inbound, err := s.repo.FindInboundByID(ctx, id); err == nil {
		number = inbound.OutboundNumber
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	} else {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invoice")
	}

	return s.movements.ListByInvoice(ctx, number)
}

func dedupeSerials(serials []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, serial := range serials {
		serial = strings.TrimSpace(serial)
		if serial == "" || seen[serial] {
			continue
		}
		seen[serial] = true
		out = append(out, serial)
	}
	return out
}

func dedupeItems(items []InboundItemInput) []InboundItemInput {
	seen := map[string]bool{}
	var out []InboundItemInput
	for _, item := range items {
		item.Serial = strings.TrimSpace(item.Serial)
		if item.Serial == "" || seen[item.Serial] {
			continue
		}
		seen[item.Serial] = true
		out = append(out, item)
	}
	return out
}
