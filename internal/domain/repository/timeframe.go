package repository

// HistoryRange is the lookback window requested from the price history backend.
type HistoryRange string

const (
	Range1d  HistoryRange = "1d"
	Range7d  HistoryRange = "7d"
	Range30d HistoryRange = "30d"
)

// IsValidHistoryRange returns true if r is a supported range.
func IsValidHistoryRange(r HistoryRange) bool {
	switch r {
	case Range1d, Range7d, Range30d:
		return true
	default:
		return false
	}
}

// DefaultHistoryRange returns the default range.
func DefaultHistoryRange() HistoryRange { return Range7d }

// NormalizeHistoryRange converts a raw string to a valid range (or default).
func NormalizeHistoryRange(s string) HistoryRange {
	if s == "" {
		return DefaultHistoryRange()
	}
	r := HistoryRange(s)
	if IsValidHistoryRange(r) {
		return r
	}
	return DefaultHistoryRange()
}
