package sequence

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
)

// CounterWorkOrders is the named sequence behind work-order codes.
const CounterWorkOrders = "work_orders"

// Next atomically increments the named counter inside the caller's
// transaction and returns the new value. The row is created on first use.
func Next(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("counter name is required")
	}

	db := tx.WithContext(ctx)

	if err := db.Exec(
		"INSERT INTO counters (name, value) VALUES (?, 0) ON CONFLICT (name) DO NOTHING", name,
	).Error; err != nil {
		return 0, fmt.Errorf("seed counter %q: %w", name, err)
	}

	if err := db.Exec(
		"UPDATE counters SET value = value + 1 WHERE name = ?", name,
	).Error; err != nil {
		return 0, fmt.Errorf("increment counter %q: %w", name, err)
	}

	var counter models.Counter
	if err := db.First(&counter, "name = ?", name).Error; err != nil {
		return 0, fmt.Errorf("read counter %q: %w", name, err)
	}
	return counter.Value, nil
}

// FormatWorkOrderCode renders a sequence value as a work-order code,
// e.g. prefix "MN" and value 7 become "MN000007".
func FormatWorkOrderCode(prefix string, value int64) string {
	return fmt.Sprintf("%s%06d", prefix, value)
}
