package models

import (
	"fmt"
	"time"
)

const StageRunTableName = "stage_runs"

// Pipeline stages, in the only order they may run for a given date.
const (
	StagePrice  = "price"
	StageSpend  = "spend"
	StageMetric = "metric"
)

// StageRunColumns defines the schema for the stage_runs table.
var StageRunColumns = []ColumnDef{
	{Name: "run_date", Type: "Date"},
	{Name: "stage", Type: "String"},
	{Name: "completed_at", Type: "DateTime64(3)"},
	{Name: "detail", Type: "String"},
}

// StageRun records the successful commit of one pipeline stage for one
// logical date. A stage may only run after its predecessor has a row here.
type StageRun struct {
	RunDate     time.Time `ch:"run_date" json:"run_date"`
	Stage       string    `ch:"stage" json:"stage"`
	CompletedAt time.Time `ch:"completed_at" json:"completed_at"`
	Detail      string    `ch:"detail" json:"detail"`
}

// StagePredecessor returns the stage that must be committed before the given
// stage may run, or "" for the first stage.
func StagePredecessor(stage string) (string, error) {
	switch stage {
	case StagePrice:
		return "", nil
	case StageSpend:
		return StagePrice, nil
	case StageMetric:
		return StageSpend, nil
	default:
		return "", fmt.Errorf("unknown pipeline stage %q", stage)
	}
}
