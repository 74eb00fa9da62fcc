package controller

import (
	"net/http"
	"time"

	"github.com/utxolens/soprx/pkg/sopr"
)

// defaultRangeDays bounds the window returned when the caller omits both dates.
const defaultRangeDays = 90

type dateRange struct {
	Start time.Time
	End   time.Time
}

func parseDateRange(r *http.Request) (dateRange, error) {
	qs := r.URL.Query()

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if v := qs.Get("end"); v != "" {
		parsed, err := time.Parse(sopr.DateLayout, v)
		if err != nil {
			return dateRange{}, errInvalidEnd
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -defaultRangeDays)
	if v := qs.Get("start"); v != "" {
		parsed, err := time.Parse(sopr.DateLayout, v)
		if err != nil {
			return dateRange{}, errInvalidStart
		}
		start = parsed
	}

	if start.After(end) {
		return dateRange{}, errInvertedRange
	}

	return dateRange{Start: start, End: end}, nil
}

func (d dateRange) key(prefix string) string {
	return prefix + ":" + sopr.DateKey(d.Start) + ":" + sopr.DateKey(d.End)
}

var (
	errInvalidStart  = &parseError{msg: "invalid start, must be YYYY-MM-DD"}
	errInvalidEnd    = &parseError{msg: "invalid end, must be YYYY-MM-DD"}
	errInvertedRange = &parseError{msg: "start must not be after end"}
)

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
