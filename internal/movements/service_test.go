package movements

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:movements_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.MovementLogEntry{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func strPtr(v string) *string { return &v }

func TestRecordAndListByInvoice(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	for _, serial := range []string{"SR-100", "SR-101"} {
		_, err := svc.Record(ctx, db, RecordInput{
			InvoiceNumber: strPtr("12345"),
			Serial:        serial,
			Event:         enums.MovementInvoiceCreated,
			Description:   "Saída para locação",
			Actor:         "op@dfradiocom.com.br",
		})
		require.NoError(t, err)
	}

	entries, err := svc.ListByInvoice(ctx, "12345")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "SR-100", entries[0].Serial)
	assert.Equal(t, enums.MovementInvoiceCreated, entries[0].Event)
}

func TestRecordRequiresOwningReference(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Record(context.Background(), db, RecordInput{
		Serial:      "SR-100",
		Event:       enums.MovementReturnedOK,
		Description: "sem origem",
		Actor:       "op@dfradiocom.com.br",
	})
	require.Error(t, err)

	empty := ""
	_, err = svc.Record(context.Background(), db, RecordInput{
		InvoiceNumber: &empty,
		Serial:        "SR-100",
		Event:         enums.MovementReturnedOK,
		Description:   "sem origem",
		Actor:         "op@dfradiocom.com.br",
	})
	require.Error(t, err)
}

func TestRecordCondemnedAllowsSerialOnlyEntry(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	entry, err := svc.Record(ctx, db, RecordInput{
		Serial:      "SR-100",
		Event:       enums.MovementCondemned,
		Description: "Condenado na baixa de estoque",
		Actor:       "op@dfradiocom.com.br",
	})
	require.NoError(t, err)
	assert.Nil(t, entry.InvoiceNumber)
	assert.Nil(t, entry.WorkOrderCode)

	entries, err := svc.ListBySerial(ctx, "SR-100")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.MovementCondemned, entries[0].Event)
}

func TestRecordRejectsUnknownEvent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Record(context.Background(), db, RecordInput{
		InvoiceNumber: strPtr("12345"),
		Serial:        "SR-100",
		Event:         enums.MovementEvent("telepathy"),
		Description:   "x",
		Actor:         "op@dfradiocom.com.br",
	})
	require.Error(t, err)
}

func TestRecordRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Record(ctx, tx, RecordInput{
			WorkOrderCode: strPtr("MN000001"),
			Serial:        "SR-200",
			Event:         enums.MovementSentToMaintenance,
			Description:   "defeito no painel",
			Actor:         "op@dfradiocom.com.br",
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	entries, err := svc.ListByWorkOrder(ctx, "MN000001")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListBySerialOrdersByCreation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	events := []enums.MovementEvent{
		enums.MovementInvoiceCreated,
		enums.MovementSentToMaintenance,
		enums.MovementReturnToInvoice,
	}
	for _, event := range events {
		_, err := svc.Record(ctx, db, RecordInput{
			InvoiceNumber: strPtr("777"),
			WorkOrderCode: strPtr("MN000002"),
			Serial:        "SR-300",
			Event:         event,
			Description:   string(event),
			Actor:         "op@dfradiocom.com.br",
		})
		require.NoError(t, err)
	}

	entries, err := svc.ListBySerial(ctx, "SR-300")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, event := range events {
		assert.Equal(t, event, entries[i].Event)
	}
}
