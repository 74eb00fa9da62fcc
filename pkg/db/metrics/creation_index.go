package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/utxolens/soprx/pkg/db/models"
)

// initCreationIndex creates the utxo_index table.
// Partitioned by creation month and ordered by (bucket_date, unit_id): the
// windowed join prunes whole months through the partition key and then seeks
// the unit_id inside each date range. Unbounded scans of this table are the
// dominant cost driver of the metric, so the layout is part of the contract,
// not an implementation detail.
func (db *DB) initCreationIndex(ctx context.Context) error {
	return db.Exec(ctx, creationTableDDL(db.Name, models.CreationTableName))
}

func creationTableDDL(database, table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(bucket_date)
		ORDER BY (bucket_date, unit_id)
	`, database, table, models.ColumnsToSchemaSQL(models.CreationEventColumns))
}

// RecreateCreationRebuild drops any leftover rebuild table and creates a
// fresh empty one with the production DDL.
func (db *DB) RecreateCreationRebuild(ctx context.Context) error {
	if err := db.DropTableIfExists(ctx, db.Name, models.CreationRebuildTableName); err != nil {
		return err
	}
	return db.Exec(ctx, creationTableDDL(db.Name, models.CreationRebuildTableName))
}

// BuildCreationBucket fills one month bucket of the rebuild table from the
// ledger: one row per transaction output above the dust threshold, within
// [from, to). Buckets are disjoint, so they can run in parallel.
func (db *DB) BuildCreationBucket(ctx context.Context, from, to time.Time, dustThreshold uint64) error {
	query := creationBuildSQL(db.Name, models.CreationRebuildTableName, db.LedgerDB)
	if err := db.Exec(ctx, query, from, to, dustThreshold); err != nil {
		return fmt.Errorf("build creation bucket %s: %w", from.Format("2006-01"), err)
	}
	return nil
}

// creationBuildSQL emits one CreationEvent per qualifying output in the
// ledger time range. The dust filter (amount strictly greater than the
// threshold) is applied here at build time, so dust never enters the index.
func creationBuildSQL(database, table, ledgerDB string) string {
	return fmt.Sprintf(`
		INSERT INTO "%s"."%s" (unit_id, bucket_date, created_at, amount)
		SELECT
			concat(hash, ':', toString(outputs.index)) AS unit_id,
			toDate(block_time)                         AS bucket_date,
			block_time                                 AS created_at,
			outputs.value                              AS amount
		FROM "%s"."transactions"
		ARRAY JOIN outputs
		WHERE block_time >= ?
		  AND block_time < ?
		  AND outputs.value > ?
	`, database, table, ledgerDB)
}

// SwapCreationIndex atomically publishes the rebuild table and drops the
// retired contents. Before this point the published table is untouched.
func (db *DB) SwapCreationIndex(ctx context.Context) error {
	if err := db.ExchangeTables(ctx, db.Name, models.CreationTableName, models.CreationRebuildTableName); err != nil {
		return err
	}
	return db.DropTableIfExists(ctx, db.Name, models.CreationRebuildTableName)
}

// DropCreationRebuild discards a partial rebuild after a failure or cancel.
func (db *DB) DropCreationRebuild(ctx context.Context) error {
	return db.DropTableIfExists(ctx, db.Name, models.CreationRebuildTableName)
}
