package models

import (
	"time"
)

const SpendTableName = "spend_index"
const SpendRebuildTableName = "spend_index__rebuild"

// SpendEventColumns defines the schema for the spend_index table.
var SpendEventColumns = []ColumnDef{
	{Name: "unit_id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "spend_date", Type: "Date"},
	{Name: "spend_timestamp", Type: "DateTime64(3)"},
}

// SpendEvent is the consumption of a previously created unit: one transaction
// input reference. Append-only, one day of ledger activity per incremental
// run, keyed by spend_date for idempotent re-runs.
type SpendEvent struct {
	// UnitID references a CreationEvent. Not enforced by a constraint;
	// validated only at join time.
	UnitID string `ch:"unit_id" json:"unit_id"`

	SpendDate      time.Time `ch:"spend_date" json:"spend_date"`
	SpendTimestamp time.Time `ch:"spend_timestamp" json:"spend_timestamp"`
}

// DoubleSpend reports a unit that appears more than once in the spend index.
// A unit can be spent at most once, so this is a ledger-integrity anomaly
// (double-spend-index bug or ledger reorganization). It is surfaced, never
// silently deduplicated.
type DoubleSpend struct {
	UnitID     string    `ch:"unit_id" json:"unit_id"`
	SpendCount uint64    `ch:"spend_count" json:"spend_count"`
	FirstSpend time.Time `ch:"first_spend" json:"first_spend"`
	LastSpend  time.Time `ch:"last_spend" json:"last_spend"`
}
