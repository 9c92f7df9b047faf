package pagination

const (
	// DefaultLimit is the page size used when a caller does not send one.
	DefaultLimit = 25
	// MaxLimit caps how many rows a single listing may request.
	MaxLimit = 100
)

// NormalizeLimit clamps a requested page size into [1, MaxLimit], falling
// back to DefaultLimit for zero or negative values.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
