package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/utxolens/soprx/pkg/db/models"
)

// initSpendIndex creates the spend_index table, laid out like utxo_index:
// month partitions on the spend date, unit_id as the secondary sort key for
// the join.
func (db *DB) initSpendIndex(ctx context.Context) error {
	return db.Exec(ctx, spendTableDDL(db.Name, models.SpendTableName))
}

func spendTableDDL(database, table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(spend_date)
		ORDER BY (spend_date, unit_id)
	`, database, table, models.ColumnsToSchemaSQL(models.SpendEventColumns))
}

// RecreateSpendRebuild drops any leftover rebuild table and creates a fresh
// empty one with the production DDL.
func (db *DB) RecreateSpendRebuild(ctx context.Context) error {
	if err := db.DropTableIfExists(ctx, db.Name, models.SpendRebuildTableName); err != nil {
		return err
	}
	return db.Exec(ctx, spendTableDDL(db.Name, models.SpendRebuildTableName))
}

// BuildSpendBucket fills one month bucket of the rebuild table: one
// SpendEvent per input reference in the ledger time range [from, to).
func (db *DB) BuildSpendBucket(ctx context.Context, from, to time.Time) error {
	query := spendBuildSQL(db.Name, models.SpendRebuildTableName, db.LedgerDB, "block_time >= ? AND block_time < ?")
	if err := db.Exec(ctx, query, from, to); err != nil {
		return fmt.Errorf("build spend bucket %s: %w", from.Format("2006-01"), err)
	}
	return nil
}

// spendBuildSQL extracts spend references from ledger inputs. Coinbase-style
// inputs carry no spent reference and are skipped.
func spendBuildSQL(database, table, ledgerDB, timeFilter string) string {
	return fmt.Sprintf(`
		INSERT INTO "%s"."%s" (unit_id, spend_date, spend_timestamp)
		SELECT
			concat(inputs.spent_hash, ':', toString(inputs.spent_index)) AS unit_id,
			toDate(block_time)                                           AS spend_date,
			block_time                                                   AS spend_timestamp
		FROM "%s"."transactions"
		ARRAY JOIN inputs
		WHERE %s
		  AND inputs.spent_hash != ''
	`, database, table, ledgerDB, timeFilter)
}

// SwapSpendIndex atomically publishes the rebuild table and drops the
// retired contents.
func (db *DB) SwapSpendIndex(ctx context.Context) error {
	if err := db.ExchangeTables(ctx, db.Name, models.SpendTableName, models.SpendRebuildTableName); err != nil {
		return err
	}
	return db.DropTableIfExists(ctx, db.Name, models.SpendRebuildTableName)
}

// DropSpendRebuild discards a partial rebuild after a failure or cancel.
func (db *DB) DropSpendRebuild(ctx context.Context) error {
	return db.DropTableIfExists(ctx, db.Name, models.SpendRebuildTableName)
}

// AppendSpendDay appends one day of spend events from the ledger.
// Idempotency guard: any rows already present for the target date are
// deleted first, so a re-run for the same date yields exactly the same set.
// The delete is scoped to the date key, the insert scans only the single
// ledger day, never ahead of it.
func (db *DB) AppendSpendDay(ctx context.Context, target time.Time) error {
	target = target.UTC().Truncate(24 * time.Hour)

	if err := db.Exec(ctx, spendDeleteDaySQL(db.Name), target); err != nil {
		return fmt.Errorf("clear spend rows for %s: %w", target.Format("2006-01-02"), err)
	}

	query := spendBuildSQL(db.Name, models.SpendTableName, db.LedgerDB, "toDate(block_time) = toDate(?)")
	if err := db.Exec(ctx, query, target); err != nil {
		return fmt.Errorf("append spend rows for %s: %w", target.Format("2006-01-02"), err)
	}
	return nil
}

// spendDeleteDaySQL is a lightweight delete keyed by the partition-pruned
// spend_date; it only ever touches the target day.
func spendDeleteDaySQL(database string) string {
	return fmt.Sprintf(`DELETE FROM "%s"."%s" WHERE spend_date = toDate(?)`, database, models.SpendTableName)
}

// FindDoubleSpends reports units spent on the target date that appear more
// than once in the whole index. These are ledger anomalies: surfaced to the
// caller for logging, never deduplicated away.
func (db *DB) FindDoubleSpends(ctx context.Context, target time.Time) ([]models.DoubleSpend, error) {
	query := fmt.Sprintf(`
		SELECT
			unit_id,
			count()         AS spend_count,
			min(spend_date) AS first_spend,
			max(spend_date) AS last_spend
		FROM "%s"."%s"
		WHERE unit_id IN (
			SELECT unit_id FROM "%s"."%s" WHERE spend_date = toDate(?)
		)
		GROUP BY unit_id
		HAVING spend_count > 1
		ORDER BY unit_id
	`, db.Name, models.SpendTableName, db.Name, models.SpendTableName)

	var anomalies []models.DoubleSpend
	if err := db.Select(ctx, &anomalies, query, target); err != nil {
		return nil, fmt.Errorf("scan for double spends on %s: %w", target.Format("2006-01-02"), err)
	}
	return anomalies, nil
}
