package types

import (
	"fmt"
	"time"

	"github.com/utxolens/soprx/pkg/sopr"
)

// Error types carried on Temporal application errors.
const (
	// ErrTypeStageOrder marks an out-of-order stage execution: a fatal
	// precondition violation, never retried.
	ErrTypeStageOrder = "stage_order_violation"

	// ErrTypeBadInput marks an unparseable stage input.
	ErrTypeBadInput = "bad_input"
)

// StageInput is the input to the daily pipeline workflow and each of its
// activities: the logical date the stages operate on, as a calendar-date
// string so it serializes cleanly through Temporal.
type StageInput struct {
	Date string `json:"date"`
}

// Time parses the target date.
func (in StageInput) Time() (time.Time, error) {
	t, err := time.ParseInLocation(sopr.DateLayout, in.Date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid target date %q: %w", in.Date, err)
	}
	return t, nil
}

// StageOutput reports what a stage committed, for workflow logging.
type StageOutput struct {
	Date       string `json:"date"`
	Stage      string `json:"stage"`
	EventCount uint64 `json:"event_count,omitempty"`
	RatioNull  bool   `json:"ratio_null,omitempty"`
}
