package rebuild

import (
	"time"
)

// Bucket is one calendar-month slice of ledger time, [From, To).
type Bucket struct {
	From time.Time
	To   time.Time
}

// MonthBuckets splits [start, end] into calendar-month buckets. The first
// bucket starts exactly at start (not at the month boundary) so rows before
// the configured start date are never indexed; the last bucket ends at the
// beginning of the day after end so the end day is fully covered.
func MonthBuckets(start, end time.Time) []Bucket {
	start = start.UTC()
	end = end.UTC()
	if end.Before(start) {
		return nil
	}

	limit := end.Truncate(24 * time.Hour).AddDate(0, 0, 1)

	var buckets []Bucket
	from := start
	for from.Before(limit) {
		monthEnd := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		to := monthEnd
		if to.After(limit) {
			to = limit
		}
		buckets = append(buckets, Bucket{From: from, To: to})
		from = to
	}
	return buckets
}
