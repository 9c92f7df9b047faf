package models

// Counter is an atomically incremented named sequence. Work-order codes are
// formatted from the "work_orders" counter.
type Counter struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}
