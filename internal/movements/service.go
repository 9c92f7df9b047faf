package movements

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

// Service records and reads movement log entries.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.MovementLogEntry, error)
	ListByInvoice(ctx context.Context, invoiceNumber string) ([]models.MovementLogEntry, error)
	ListBySerial(ctx context.Context, serial string) ([]models.MovementLogEntry, error)
	ListByWorkOrder(ctx context.Context, code string) ([]models.MovementLogEntry, error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data one log entry requires.
type RecordInput struct {
	InvoiceNumber *string
	WorkOrderCode *string
	Serial        string
	Event         enums.MovementEvent
	Description   string
	Actor         string
}

// NewService wires a movement service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movements repository required")
	}
	return &service{repo: repo}, nil
}

// Record appends one entry. It participates in the caller's transaction so a
// status change and its log entry commit or roll back together. Every entry
// carries an owning invoice or work order, except condemnation: a unit retired
// straight from stock has neither, so the serial stands alone.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.MovementLogEntry, error) {
	if strings.TrimSpace(input.Serial) == "" {
		return nil, fmt.Errorf("serial is required")
	}
	if strings.TrimSpace(input.Actor) == "" {
		return nil, fmt.Errorf("actor is required")
	}
	if !input.Event.IsValid() {
		return nil, fmt.Errorf("invalid movement event %q", input.Event)
	}
	if emptyRef(input.InvoiceNumber) && emptyRef(input.WorkOrderCode) && input.Event != enums.MovementCondemned {
		return nil, fmt.Errorf("movement requires an invoice number or work order code")
	}

	entry := &models.MovementLogEntry{
		InvoiceNumber: input.InvoiceNumber,
		WorkOrderCode: input.WorkOrderCode,
		Serial:        input.Serial,
		Event:         input.Event,
		Description:   input.Description,
		Actor:         input.Actor,
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListByInvoice(ctx context.Context, invoiceNumber string) ([]models.MovementLogEntry, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, fmt.Errorf("invoice number is required")
	}
	return s.repo.ListByInvoice(ctx, invoiceNumber)
}

func (s *service) ListBySerial(ctx context.Context, serial string) ([]models.MovementLogEntry, error) {
	if strings.TrimSpace(serial) == "" {
		return nil, fmt.Errorf("serial is required")
	}
	return s.repo.ListBySerial(ctx, serial)
}

func (s *service) ListByWorkOrder(ctx context.Context, code string) ([]models.MovementLogEntry, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("work order code is required")
	}
	return s.repo.ListByWorkOrder(ctx, code)
}

func emptyRef(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}
