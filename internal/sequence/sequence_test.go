package sequence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:sequence_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Counter{}))
	return db
}

func TestNextIncrementsFromZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	var values []int64
	for i := 0; i < 3; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			v, err := Next(ctx, tx, CounterWorkOrders)
			if err != nil {
				return err
			}
			values = append(values, v)
			return nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, []int64{1, 2, 3}, values)
}

func TestNextIndependentCounters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := Next(ctx, tx, "alpha"); err != nil {
			return err
		}
		v, err := Next(ctx, tx, "beta")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), v)
		return nil
	})
	require.NoError(t, err)
}

func TestNextRequiresNameAndTx(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	_, err := Next(ctx, nil, CounterWorkOrders)
	require.Error(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := Next(ctx, tx, "  ")
		return err
	})
	require.Error(t, err)
}

func TestFormatWorkOrderCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MN000007", FormatWorkOrderCode("MN", 7))
	assert.Equal(t, "MN001234", FormatWorkOrderCode("MN", 1234))
	assert.Equal(t, "MN1000000", FormatWorkOrderCode("MN", 1000000))
}
