package models

import (
	"time"
)

const MetricTableName = "sopr_daily"

// DailyMetricColumns defines the schema for the sopr_daily table.
var DailyMetricColumns = []ColumnDef{
	{Name: "date", Type: "Date"},
	{Name: "ratio", Type: "Nullable(Float64)"},
	{Name: "total_value_moved", Type: "Float64"},
	{Name: "event_count", Type: "UInt64"},
	{Name: "version", Type: "UInt64"},
}

// DailyMetric is one aSOPR aggregate row per calendar date.
// Ratio is nil when no matched spend produced a valid denominator for the
// date. ReplacingMergeTree(version) keyed by date means a recompute replaces
// the row; readers always use FINAL.
type DailyMetric struct {
	Date time.Time `ch:"date" json:"date"`

	// Ratio is Σ(amount×sold) / Σ(amount×bought) over matched spends held
	// at least the minimum holding period.
	Ratio *float64 `ch:"ratio" json:"ratio"`

	// TotalValueMoved is Σ amount over the surviving rows, in display coins.
	TotalValueMoved float64 `ch:"total_value_moved" json:"total_value_moved"`

	EventCount uint64 `ch:"event_count" json:"event_count"`
	Version    uint64 `ch:"version" json:"-"`
}

// JoinedSpend is one spend matched back to its creation event through the
// bounded-lookback join, before pricing and the holding-period filter.
type JoinedSpend struct {
	UnitID         string    `ch:"unit_id"`
	Amount         uint64    `ch:"amount"`
	CreatedAt      time.Time `ch:"created_at"`
	CreationDate   time.Time `ch:"creation_date"`
	SpendTimestamp time.Time `ch:"spend_timestamp"`
	SpendDate      time.Time `ch:"spend_date"`
}
