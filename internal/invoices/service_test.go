package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/internal/equipment"
	"github.com/dfcarvalho/radiostock-backend/internal/movements"
	"github.com/dfcarvalho/radiostock-backend/pkg/auth"
	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
)

var testActor = auth.Identity{Email: "op@dfradiocom.com.br", DisplayName: "Operador"}

type gormRunner struct{ db *gorm.DB }

func (g gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type stubWorkOrders struct {
	opened []DefectInput
}

func (s *stubWorkOrders) OpenForDefect(_ context.Context, _ *gorm.DB, input DefectInput) (*models.WorkOrder, error) {
	s.opened = append(s.opened, input)
	return &models.WorkOrder{Code: fmt.Sprintf("MN%06d", len(s.opened))}, nil
}

type fixture struct {
	db         *gorm.DB
	svc        Service
	equipment  equipment.Repository
	movements  movements.Service
	workOrders *stubWorkOrders
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:invoices_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.EquipmentUnit{},
		&models.OutboundInvoice{},
		&models.OutboundInvoiceRadio{},
		&models.InboundInvoice{},
		&models.InboundInvoiceItem{},
		&models.MovementLogEntry{},
	))

	movementsSvc, err := movements.NewService(movements.NewRepository(db))
	require.NoError(t, err)

	workOrders := &stubWorkOrders{}
	equipmentRepo := equipment.NewRepository(db)
	svc, err := NewService(ServiceParams{
		Tx:         gormRunner{db: db},
		Repo:       NewRepository(db),
		Equipment:  equipmentRepo,
		Movements:  movementsSvc,
		WorkOrders: workOrders,
	})
	require.NoError(t, err)

	return &fixture{
		db:         db,
		svc:        svc,
		equipment:  equipmentRepo,
		movements:  movementsSvc,
		workOrders: workOrders,
	}
}

func (f *fixture) seedUnit(t *testing.T, serial string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.EquipmentUnit{
		Serial:       serial,
		ModelName:    "EP450",
		AssetTag:     "PAT-" + serial,
		Status:       enums.EquipmentStatusAvailable,
		Active:       true,
		RegisteredBy: testActor.Email,
	}).Error)
}

func (f *fixture) mustCheckout(t *testing.T, number string, serials ...string) *OutboundDTO {
	t.Helper()
	for _, serial := range serials {
		f.seedUnit(t, serial)
	}
	dto, err := f.svc.CreateOutbound(context.Background(), CreateOutboundInput{
		Number:      number,
		Client:      "Construtora Alfa",
		RentalType:  enums.RentalTypeMonthly,
		RentalValue: decimal.NewFromInt(350),
		Serials:     serials,
	}, testActor)
	require.NoError(t, err)
	return dto
}

func (f *fixture) unit(t *testing.T, serial string) *models.EquipmentUnit {
	t.Helper()
	unit, err := f.equipment.FindBySerial(context.Background(), serial, true)
	require.NoError(t, err)
	return unit
}

func TestCreateOutboundClaimsUnits(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dto := f.mustCheckout(t, "45001", "SR-100", "SR-101")

	assert.Equal(t, enums.InvoiceStatusOpen, dto.Status)
	assert.Len(t, dto.Radios, 2)

	unit := f.unit(t, "SR-100")
	assert.Equal(t, enums.EquipmentStatusOccupied, unit.Status)
	require.NotNil(t, unit.CurrentInvoice)
	assert.Equal(t, "45001", *unit.CurrentInvoice)
	require.NotNil(t, unit.RentalType)
	assert.Equal(t, enums.RentalTypeMonthly, *unit.RentalType)

	entries, err := f.movements.ListByInvoice(context.Background(), "45001")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.MovementInvoiceCreated, entries[0].Event)
	assert.Equal(t, testActor.Email, entries[0].Actor)
}

func TestCreateOutboundRejectsDuplicateNumber(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustCheckout(t, "45001", "SR-100")
	f.seedUnit(t, "SR-200")

	_, err := f.svc.CreateOutbound(context.Background(), CreateOutboundInput{
		Number:      "45001",
		Client:      "Construtora Beta",
		RentalType:  enums.RentalTypeMonthly,
		RentalValue: decimal.NewFromInt(350),
		Serials:     []string{"SR-200"},
	}, testActor)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestCreateOutboundReportsEveryBadSerial(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustCheckout(t, "45001", "SR-100")
	f.seedUnit(t, "SR-200")

	_, err := f.svc.CreateOutbound(context.Background(), CreateOutboundInput{
		Number:      "45002",
		Client:      "Construtora Beta",
		RentalType:  enums.RentalTypeMonthly,
		RentalValue: decimal.NewFromInt(350),
		Serials:     []string{"SR-200", "SR-100", "SR-999"},
	}, testActor)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	details, ok := appErr.Details().(map[string]any)
	require.True(t, ok)
	serials, ok := details["serials"].(map[string]string)
	require.True(t, ok)
	assert.Len(t, serials, 2)
	assert.Contains(t, serials, "SR-100")
	assert.Contains(t, serials, "SR-999")

	// Nothing was claimed: the good serial stays available.
	assert.Equal(t, enums.EquipmentStatusAvailable, f.unit(t, "SR-200").Status)
}

func TestCreateInboundReturnOK(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	outbound := f.mustCheckout(t, "45001", "SR-100", "SR-101")

	inbound, err := f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "45001",
		Items:          []InboundItemInput{{Serial: "SR-100", Condition: enums.ReturnConditionOK}},
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, "1000000", inbound.Number)
	assert.True(t, inbound.AutoNumbered)

	unit := f.unit(t, "SR-100")
	assert.Equal(t, enums.EquipmentStatusAvailable, unit.Status)
	assert.Nil(t, unit.CurrentInvoice)

	history, err := f.svc.GetOutboundByNumber(context.Background(), "45001")
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusOpen, history.Invoice.Status)
	require.Len(t, history.Inbounds, 1)

	var returned RadioState
	for _, radio := range history.Invoice.Radios {
		if radio.Serial == "SR-100" {
			returned = radio
		}
	}
	assert.True(t, returned.Returned)
	require.NotNil(t, returned.InboundNumber)
	assert.Equal(t, "1000000", *returned.InboundNumber)
	assert.Nil(t, returned.WorkOrderCode)

	// Second check-in settles the invoice and takes the next auto number.
	second, err := f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "45001",
		Items:          []InboundItemInput{{Serial: "SR-101", Condition: enums.ReturnConditionOK}},
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "1000001", second.Number)

	history, err = f.svc.GetOutboundByNumber(context.Background(), "45001")
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusFinalized, history.Invoice.Status)

	_ = outbound
}

func TestCreateInboundDefectiveOpensWorkOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustCheckout(t, "45001", "SR-100")

	_, err := f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "45001",
		Items: []InboundItemInput{{
			Serial:    "SR-100",
			Condition: enums.ReturnConditionDefective,
			Problem:   "não liga",
		}},
	}, testActor)
	require.NoError(t, err)

	require.Len(t, f.workOrders.opened, 1)
	assert.Equal(t, "SR-100", f.workOrders.opened[0].Serial)
	assert.Equal(t, "não liga", f.workOrders.opened[0].Problem)
	assert.Equal(t, "45001", f.workOrders.opened[0].OriginInvoice)

	// The unit moves to maintenance without losing its invoice link.
	unit := f.unit(t, "SR-100")
	assert.Equal(t, enums.EquipmentStatusMaintenance, unit.Status)
	require.NotNil(t, unit.CurrentInvoice)
	assert.Equal(t, "45001", *unit.CurrentInvoice)

	history, err := f.svc.GetOutboundByNumber(context.Background(), "45001")
	require.NoError(t, err)
	radio := history.Invoice.Radios[0]
	assert.True(t, radio.Returned)
	require.NotNil(t, radio.WorkOrderCode)
	assert.Equal(t, "MN000001", *radio.WorkOrderCode)

	entries, err := f.movements.ListBySerial(context.Background(), "SR-100")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.MovementSentToMaintenance, entries[1].Event)
	require.NotNil(t, entries[1].WorkOrderCode)
	assert.Equal(t, "MN000001", *entries[1].WorkOrderCode)
}

func TestCreateInboundRejectsNonOutstandingSerial(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustCheckout(t, "45001", "SR-100")

	_, err := f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "45001",
		Items: []InboundItemInput{
			{Serial: "SR-100", Condition: enums.ReturnConditionOK},
			{Serial: "SR-999", Condition: enums.ReturnConditionOK},
		},
	}, testActor)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	// Already-returned serials are rejected the same way.
	_, err = f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "45001",
		Items:          []InboundItemInput{{Serial: "SR-100", Condition: enums.ReturnConditionOK}},
	}, testActor)
	require.NoError(t, err)

	_, err = f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "45001",
		Items:          []InboundItemInput{{Serial: "SR-100", Condition: enums.ReturnConditionOK}},
	}, testActor)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreateInboundManualNumberConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustCheckout(t, "45001", "SR-100", "SR-101")

	_, err := f.svc.CreateInbound(context.Background(), CreateInboundInput{
		Number:         "77001",
		OutboundNumber: "45001",
		Items:          []InboundItemInput{{Serial: "SR-100", Condition: enums.ReturnConditionOK}},
	}, testActor)
	require.NoError(t, err)

	_, err = f.svc.CreateInbound(context.Background(), CreateInboundInput{
		Number:         "77001",
		OutboundNumber: "45001",
		Items:          []InboundItemInput{{Serial: "SR-101", Condition: enums.ReturnConditionOK}},
	}, testActor)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestCreateInboundUnknownOutbound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "99999",
		Items:          []InboundItemInput{{Serial: "SR-100", Condition: enums.ReturnConditionOK}},
	}, testActor)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestAmendOutboundAddsRadioAndObservation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dto := f.mustCheckout(t, "45001", "SR-100")
	f.seedUnit(t, "SR-200")

	updated, err := f.svc.AmendOutbound(context.Background(), dto.ID, AmendOutboundInput{
		AddSerial:   "SR-200",
		Observation: "cliente pediu um rádio extra",
	}, testActor)
	require.NoError(t, err)

	assert.Len(t, updated.Radios, 2)
	require.Len(t, updated.Observations, 1)
	assert.Equal(t, testActor.Email, updated.Observations[0].Author)

	unit := f.unit(t, "SR-200")
	assert.Equal(t, enums.EquipmentStatusOccupied, unit.Status)
	require.NotNil(t, unit.CurrentInvoice)
	assert.Equal(t, "45001", *unit.CurrentInvoice)

	entries, err := f.movements.ListBySerial(context.Background(), "SR-200")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.MovementRadioAdded, entries[0].Event)
}

func TestAmendOutboundRejectsListedOrUnavailableSerial(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dto := f.mustCheckout(t, "45001", "SR-100")
	f.mustCheckout(t, "45002", "SR-200")

	var appErr *pkgerrors.Error

	_, err := f.svc.AmendOutbound(context.Background(), dto.ID, AmendOutboundInput{AddSerial: "SR-100"}, testActor)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	_, err = f.svc.AmendOutbound(context.Background(), dto.ID, AmendOutboundInput{AddSerial: "SR-200"}, testActor)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	_, err = f.svc.AmendOutbound(context.Background(), dto.ID, AmendOutboundInput{}, testActor)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestListAndRecent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustCheckout(t, "45001", "SR-100")
	time.Sleep(10 * time.Millisecond)
	f.mustCheckout(t, "45002", "SR-200")
	_, err := f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "45001",
		Items:          []InboundItemInput{{Serial: "SR-100", Condition: enums.ReturnConditionOK}},
	}, testActor)
	require.NoError(t, err)

	all, err := f.svc.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	outboundType := enums.InvoiceTypeOutbound
	outboundOnly, err := f.svc.List(context.Background(), &outboundType)
	require.NoError(t, err)
	require.Len(t, outboundOnly, 2)
	assert.Equal(t, "45002", outboundOnly[0].Number)

	recent, err := f.svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
}

func TestGetByIDResolvesBothTypes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	outbound := f.mustCheckout(t, "45001", "SR-100")
	inbound, err := f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "45001",
		Items:          []InboundItemInput{{Serial: "SR-100", Condition: enums.ReturnConditionOK}},
	}, testActor)
	require.NoError(t, err)

	got, err := f.svc.GetByID(context.Background(), outbound.ID)
	require.NoError(t, err)
	_, ok := got.(*OutboundDTO)
	assert.True(t, ok)

	got, err = f.svc.GetByID(context.Background(), inbound.ID)
	require.NoError(t, err)
	_, ok = got.(*InboundDTO)
	assert.True(t, ok)

	_, err = f.svc.GetByID(context.Background(), uuid.New())
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestMovementsByID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	outbound := f.mustCheckout(t, "45001", "SR-100")
	inbound, err := f.svc.CreateInbound(context.Background(), CreateInboundInput{
		OutboundNumber: "45001",
		Items:          []InboundItemInput{{Serial: "SR-100", Condition: enums.ReturnConditionOK}},
	}, testActor)
	require.NoError(t, err)

	entries, err := f.svc.MovementsByID(context.Background(), outbound.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// An inbound id resolves to the movements of its outbound invoice.
	entries, err = f.svc.MovementsByID(context.Background(), inbound.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
