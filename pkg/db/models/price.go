package models

import (
	"time"
)

const PriceTableName = "daily_prices"

// PriceObservationColumns defines the schema for the daily_prices table.
var PriceObservationColumns = []ColumnDef{
	{Name: "date", Type: "Date"},
	{Name: "open", Type: "Float64"},
	{Name: "high", Type: "Float64"},
	{Name: "low", Type: "Float64"},
	{Name: "close", Type: "Float64"},
	{Name: "volume", Type: "Float64"},
}

// PriceObservation is one market observation per calendar date, populated by
// the external price ingester and consumed read-only by the aggregator.
// Only Close participates in the metric; the OHLCV extras are carried for
// completeness. ReplacingMergeTree keyed by date keeps at most one row per
// date across re-ingestion.
type PriceObservation struct {
	Date   time.Time `ch:"date" json:"date"`
	Open   float64   `ch:"open" json:"open"`
	High   float64   `ch:"high" json:"high"`
	Low    float64   `ch:"low" json:"low"`
	Close  float64   `ch:"close" json:"close"`
	Volume float64   `ch:"volume" json:"volume"`
}
