package equipment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/internal/catalog"
	"github.com/dfcarvalho/radiostock-backend/internal/movements"
	"github.com/dfcarvalho/radiostock-backend/pkg/auth"
	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
)

var testActor = auth.Identity{Email: "op@dfradiocom.com.br", DisplayName: "Operador"}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:equipment_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.RadioModel{}, &models.EquipmentUnit{}, &models.MovementLogEntry{}))
	return db
}

type gormRunner struct{ db *gorm.DB }

func (g gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	catalogSvc, err := catalog.NewService(catalog.NewRepository(db))
	require.NoError(t, err)
	_, err = catalogSvc.Create(context.Background(), "EP450", testActor.Email)
	require.NoError(t, err)

	movementsSvc, err := movements.NewService(movements.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Tx:        gormRunner{db: db},
		Repo:      NewRepository(db),
		Models:    catalogSvc,
		Movements: movementsSvc,
	})
	require.NoError(t, err)
	return svc
}

func mustRegister(t *testing.T, svc Service, serial string) *models.EquipmentUnit {
	t.Helper()
	unit, err := svc.Register(context.Background(), RegisterInput{
		Serial:    serial,
		ModelName: "EP450",
		AssetTag:  "PAT-" + serial,
		Frequency: "460MHz",
	}, testActor)
	require.NoError(t, err)
	return unit
}

func TestRegisterCreatesAvailableUnit(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	unit := mustRegister(t, svc, "ABC123")

	assert.Equal(t, enums.EquipmentStatusAvailable, unit.Status)
	assert.True(t, unit.Active)
	assert.False(t, unit.Condemned)
	assert.Nil(t, unit.CurrentInvoice)
	assert.Equal(t, testActor.Email, unit.RegisteredBy)
}

func TestRegisterUnknownModelFailsValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))

	_, err := svc.Register(context.Background(), RegisterInput{
		Serial:    "ABC123",
		ModelName: "GHOST-9000",
	}, testActor)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRegisterDuplicateActiveSerialConflicts(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	mustRegister(t, svc, "ABC123")

	_, err := svc.Register(context.Background(), RegisterInput{
		Serial:    "ABC123",
		ModelName: "EP450",
	}, testActor)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestDecommissionedSerialMayBeReRegistered(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()
	mustRegister(t, svc, "ABC123")

	retired, err := svc.Decommission(ctx, "ABC123", "substituído por modelo novo", testActor)
	require.NoError(t, err)
	assert.False(t, retired.Active)
	assert.False(t, retired.Condemned)

	fresh := mustRegister(t, svc, "ABC123")
	assert.True(t, fresh.Active)
	assert.NotEqual(t, retired.ID, fresh.ID)
}

func TestCondemnedSerialNeverReRegisters(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()
	mustRegister(t, svc, "ABC123")

	retired, err := svc.Decommission(ctx, "ABC123", "condenado", testActor)
	require.NoError(t, err)
	assert.True(t, retired.Condemned)

	_, err = svc.Register(ctx, RegisterInput{Serial: "ABC123", ModelName: "EP450"}, testActor)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Contains(t, typed.Message(), "condemned")
}

func TestCondemnedDecommissionRecordsMovement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	mustRegister(t, svc, "COND-1")

	_, err := svc.Decommission(ctx, "COND-1", "condenado", testActor)
	require.NoError(t, err)

	movementsSvc, err := movements.NewService(movements.NewRepository(db))
	require.NoError(t, err)
	entries, err := movementsSvc.ListBySerial(ctx, "COND-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.MovementCondemned, entries[0].Event)
	assert.Nil(t, entries[0].InvoiceNumber)
	assert.Nil(t, entries[0].WorkOrderCode)
	assert.Equal(t, testActor.Email, entries[0].Actor)
}

func TestPlainDecommissionLeavesMovementLogUntouched(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	mustRegister(t, svc, "OLD-1")

	_, err := svc.Decommission(ctx, "OLD-1", "substituído por modelo novo", testActor)
	require.NoError(t, err)

	movementsSvc, err := movements.NewService(movements.NewRepository(db))
	require.NoError(t, err)
	entries, err := movementsSvc.ListBySerial(ctx, "OLD-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecommissionRequiresAvailableStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	mustRegister(t, svc, "ABC123")

	claimed, err := NewRepository(db).ClaimForCheckout(ctx, "ABC123", "12345", enums.RentalTypeMonthly)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = svc.Decommission(ctx, "ABC123", "desgaste", testActor)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestFindBySerialHonorsIncludeInactive(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()
	mustRegister(t, svc, "ABC123")

	_, err := svc.Decommission(ctx, "ABC123", "aposentado", testActor)
	require.NoError(t, err)

	_, err = svc.FindBySerial(ctx, "ABC123", false)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	unit, err := svc.FindBySerial(ctx, "ABC123", true)
	require.NoError(t, err)
	assert.False(t, unit.Active)
}

func TestListFiltersAndSearch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	mustRegister(t, svc, "ABC123")
	mustRegister(t, svc, "XYZ789")

	claimed, err := NewRepository(db).ClaimForCheckout(ctx, "XYZ789", "12345", enums.RentalTypeMonthly)
	require.NoError(t, err)
	require.True(t, claimed)

	occupied := enums.EquipmentStatusOccupied
	units, err := svc.List(ctx, ListFilter{Status: &occupied})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "XYZ789", units[0].Serial)

	units, err = svc.List(ctx, ListFilter{CurrentInvoice: "12345"})
	require.NoError(t, err)
	require.Len(t, units, 1)

	units, err = svc.List(ctx, ListFilter{Search: "abc"})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "ABC123", units[0].Serial)
}

func TestUpdateAssetTag(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()
	mustRegister(t, svc, "ABC123")

	unit, err := svc.UpdateAssetTag(ctx, "ABC123", "PAT-NOVO", testActor)
	require.NoError(t, err)
	assert.Equal(t, "PAT-NOVO", unit.AssetTag)

	_, err = svc.UpdateAssetTag(ctx, "GHOST", "PAT", testActor)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestClaimTransitions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	repo := NewRepository(db)
	ctx := context.Background()
	mustRegister(t, svc, "ABC123")

	// available -> occupied
	ok, err := repo.ClaimForCheckout(ctx, "ABC123", "12345", enums.RentalTypeMonthly)
	require.NoError(t, err)
	require.True(t, ok)

	// second claim must miss
	ok, err = repo.ClaimForCheckout(ctx, "ABC123", "99999", enums.RentalTypeMonthly)
	require.NoError(t, err)
	assert.False(t, ok)

	unit, err := svc.FindBySerial(ctx, "ABC123", false)
	require.NoError(t, err)
	require.NotNil(t, unit.CurrentInvoice)
	assert.Equal(t, "12345", *unit.CurrentInvoice)

	// occupied -> maintenance keeps the invoice link
	ok, err = repo.ClaimForMaintenance(ctx, "ABC123", enums.EquipmentStatusOccupied)
	require.NoError(t, err)
	require.True(t, ok)

	unit, err = svc.FindBySerial(ctx, "ABC123", false)
	require.NoError(t, err)
	assert.Equal(t, enums.EquipmentStatusMaintenance, unit.Status)
	require.NotNil(t, unit.CurrentInvoice)

	// maintenance -> occupied (back to its invoice)
	ok, err = repo.ReturnToInvoice(ctx, "ABC123")
	require.NoError(t, err)
	require.True(t, ok)

	// occupied -> available clears the link
	ok, err = repo.ReleaseToAvailable(ctx, "ABC123")
	require.NoError(t, err)
	require.True(t, ok)

	unit, err = svc.FindBySerial(ctx, "ABC123", false)
	require.NoError(t, err)
	assert.Equal(t, enums.EquipmentStatusAvailable, unit.Status)
	assert.Nil(t, unit.CurrentInvoice)
	assert.Nil(t, unit.RentalType)
}

func TestCondemnInMaintenanceRetiresUnit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	repo := NewRepository(db)
	ctx := context.Background()
	mustRegister(t, svc, "ABC123")

	ok, err := repo.ClaimForMaintenance(ctx, "ABC123", enums.EquipmentStatusAvailable)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.CondemnInMaintenance(ctx, "ABC123", testActor.Email, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	unit, err := svc.FindBySerial(ctx, "ABC123", true)
	require.NoError(t, err)
	assert.False(t, unit.Active)
	assert.True(t, unit.Condemned)
}
