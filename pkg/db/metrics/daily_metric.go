package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/utxolens/soprx/pkg/db/models"
	"github.com/utxolens/soprx/pkg/sopr"
)

// initDailyMetrics creates the sopr_daily table. ReplacingMergeTree on the
// version column keyed by date: a recompute for a date replaces the row
// instead of revising it in place, and re-running an append is safe.
func (db *DB) initDailyMetrics(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = ReplacingMergeTree(version)
		ORDER BY date
	`, db.Name, models.MetricTableName, models.ColumnsToSchemaSQL(models.DailyMetricColumns))
	return db.Exec(ctx, query)
}

// FetchJoinedSpends runs the windowed join for one spend date: spends matched
// back to their creation events on unit_id, with the creation side restricted
// to the lookback window ending at the spend date. Units created before the
// window are excluded from the metric entirely; that is a deliberate trade
// of completeness for bounded scan cost. The upper bucket_date bound is the
// no-look-ahead guarantee: nothing created after the spend date can match.
func (db *DB) FetchJoinedSpends(ctx context.Context, spendDate time.Time, lookbackDays int) ([]models.JoinedSpend, error) {
	query := joinedSpendsSQL(db.Name, lookbackDays)

	var rows []models.JoinedSpend
	if err := db.Select(ctx, &rows, query, spendDate, spendDate, spendDate); err != nil {
		return nil, fmt.Errorf("join spends for %s: %w", spendDate.Format("2006-01-02"), err)
	}
	return rows, nil
}

func joinedSpendsSQL(database string, lookbackDays int) string {
	return fmt.Sprintf(`
		SELECT
			s.unit_id         AS unit_id,
			c.amount          AS amount,
			c.created_at      AS created_at,
			c.bucket_date     AS creation_date,
			s.spend_timestamp AS spend_timestamp,
			s.spend_date      AS spend_date
		FROM "%s"."%s" AS s
		INNER JOIN "%s"."%s" AS c ON c.unit_id = s.unit_id
		WHERE s.spend_date = toDate(?)
		  AND c.bucket_date >= toDate(?) - INTERVAL %d DAY
		  AND c.bucket_date <= toDate(?)
	`, database, models.SpendTableName, database, models.CreationTableName, lookbackDays)
}

// ComputeDailyMetric joins, prices and aggregates one day.
func (db *DB) ComputeDailyMetric(ctx context.Context, date time.Time, lookbackDays int) (*models.DailyMetric, error) {
	rows, err := db.FetchJoinedSpends(ctx, date, lookbackDays)
	if err != nil {
		return nil, err
	}

	closes, err := db.GetCloses(ctx, sopr.PriceDates(rows))
	if err != nil {
		return nil, err
	}

	metric := sopr.Aggregate(date, rows, closes)
	return &metric, nil
}

// InsertDailyMetric writes one aggregate row for a date.
func (db *DB) InsertDailyMetric(ctx context.Context, m *models.DailyMetric) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."%s" (date, ratio, total_value_moved, event_count, version)
		VALUES (?, ?, ?, ?, ?)
	`, db.Name, models.MetricTableName)
	if err := db.Exec(ctx, query, m.Date, m.Ratio, m.TotalValueMoved, m.EventCount, m.Version); err != nil {
		return fmt.Errorf("insert daily metric for %s: %w", m.Date.Format("2006-01-02"), err)
	}
	return nil
}

// GetDailyMetrics returns the metric rows in [from, to], oldest first.
// FINAL is required for correctness on the Replacing table.
func (db *DB) GetDailyMetrics(ctx context.Context, from, to time.Time) ([]*models.DailyMetric, error) {
	query := fmt.Sprintf(`
		SELECT date, ratio, total_value_moved, event_count, version
		FROM "%s"."%s" FINAL
		WHERE date BETWEEN toDate(?) AND toDate(?)
		ORDER BY date
	`, db.Name, models.MetricTableName)

	var rows []*models.DailyMetric
	if err := db.Select(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("query daily metrics: %w", err)
	}
	return rows, nil
}

// ListSpendDates returns every distinct spend date present in the spend
// index, oldest first. The bulk aggregator iterates these.
func (db *DB) ListSpendDates(ctx context.Context) ([]time.Time, error) {
	query := fmt.Sprintf(
		`SELECT DISTINCT spend_date FROM "%s"."%s" ORDER BY spend_date`,
		db.Name, models.SpendTableName,
	)

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list spend dates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
