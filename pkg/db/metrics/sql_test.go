package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreationBuildSQLFiltersDust(t *testing.T) {
	query := creationBuildSQL("soprx", "utxo_index__rebuild", "ledger")

	assert.Contains(t, query, `INSERT INTO "soprx"."utxo_index__rebuild"`)
	assert.Contains(t, query, `FROM "ledger"."transactions"`)
	assert.Contains(t, query, "ARRAY JOIN outputs")

	// Strictly greater than: an output exactly at the threshold is dust.
	assert.Contains(t, query, "outputs.value > ?")
	assert.NotContains(t, query, "outputs.value >= ?")
}

func TestSpendBuildSQLSkipsCoinbaseInputs(t *testing.T) {
	query := spendBuildSQL("soprx", "spend_index", "ledger", "toDate(block_time) = toDate(?)")

	assert.Contains(t, query, `FROM "ledger"."transactions"`)
	assert.Contains(t, query, "ARRAY JOIN inputs")
	assert.Contains(t, query, "inputs.spent_hash != ''")

	// The daily append scans exactly one ledger day, never ahead.
	assert.Contains(t, query, "toDate(block_time) = toDate(?)")
}

func TestSpendDeleteDaySQLIsDateScoped(t *testing.T) {
	query := spendDeleteDaySQL("soprx")
	assert.Equal(t, `DELETE FROM "soprx"."spend_index" WHERE spend_date = toDate(?)`, query)
}

func TestJoinedSpendsSQLWindow(t *testing.T) {
	query := joinedSpendsSQL("soprx", 730)

	assert.Contains(t, query, `INNER JOIN "soprx"."utxo_index"`)
	assert.Contains(t, query, "s.spend_date = toDate(?)")

	// Lookback bound on the creation side.
	assert.Contains(t, query, "c.bucket_date >= toDate(?) - INTERVAL 730 DAY")

	// Upper bound: a unit created after the spend date can never match.
	assert.Contains(t, query, "c.bucket_date <= toDate(?)")
}

func TestTableDDLLayout(t *testing.T) {
	creation := creationTableDDL("soprx", "utxo_index")
	assert.Contains(t, creation, "PARTITION BY toYYYYMM(bucket_date)")
	assert.Contains(t, creation, "ORDER BY (bucket_date, unit_id)")

	spend := spendTableDDL("soprx", "spend_index")
	assert.Contains(t, spend, "PARTITION BY toYYYYMM(spend_date)")
	assert.Contains(t, spend, "ORDER BY (spend_date, unit_id)")
}
