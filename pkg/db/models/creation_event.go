package models

import (
	"time"
)

const CreationTableName = "utxo_index"
const CreationRebuildTableName = "utxo_index__rebuild"

// CreationEventColumns defines the schema for the utxo_index table.
var CreationEventColumns = []ColumnDef{
	{Name: "unit_id", Type: "String", Codec: "ZSTD(1)"},
	{Name: "bucket_date", Type: "Date"},
	{Name: "created_at", Type: "DateTime64(3)"},
	{Name: "amount", Type: "UInt64", Codec: "T64, ZSTD(1)"},
}

// CreationEvent is the birth of one spendable unit of value: one ledger
// transaction output above the dust threshold. Immutable once written; the
// table is only ever produced by a full bulk rebuild, never appended to.
type CreationEvent struct {
	// UnitID is "<origin tx hash>:<output index>", unique across the table.
	UnitID string `ch:"unit_id" json:"unit_id"`

	// BucketDate is the calendar date of creation, the partitioning column.
	BucketDate time.Time `ch:"bucket_date" json:"bucket_date"`

	CreatedAt time.Time `ch:"created_at" json:"created_at"`

	// Amount in base ledger increments (UnitsPerCoin per display coin).
	Amount uint64 `ch:"amount" json:"amount"`
}
