package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/utxolens/soprx/pkg/db/models"
	"github.com/utxolens/soprx/pkg/sopr"
)

// initDailyPrices creates the daily_prices table. ReplacingMergeTree keyed
// by date keeps at most one observation per date across re-ingestion; the
// external ingester owns population, this pipeline only reads it (plus the
// backfill insert below).
func (db *DB) initDailyPrices(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = ReplacingMergeTree()
		ORDER BY date
	`, db.Name, models.PriceTableName, models.ColumnsToSchemaSQL(models.PriceObservationColumns))
	return db.Exec(ctx, query)
}

// HasPrice reports whether an observation exists for the given date.
func (db *DB) HasPrice(ctx context.Context, date time.Time) (bool, error) {
	query := fmt.Sprintf(
		`SELECT count() FROM "%s"."%s" FINAL WHERE date = toDate(?)`,
		db.Name, models.PriceTableName,
	)
	var count uint64
	if err := db.QueryRow(ctx, query, date).Scan(&count); err != nil {
		return false, fmt.Errorf("check price for %s: %w", date.Format("2006-01-02"), err)
	}
	return count > 0, nil
}

// GetCloses returns close prices keyed by calendar date (sopr.DateKey) for
// the requested dates. Dates with no observation are simply absent from the
// map; missing prices are a per-row aggregation condition, not an error.
func (db *DB) GetCloses(ctx context.Context, dates []time.Time) (map[string]float64, error) {
	if len(dates) == 0 {
		return map[string]float64{}, nil
	}

	query := fmt.Sprintf(
		`SELECT date, close FROM "%s"."%s" FINAL WHERE date IN (?)`,
		db.Name, models.PriceTableName,
	)

	rows, err := db.Query(ctx, query, dates)
	if err != nil {
		return nil, fmt.Errorf("query closes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	closes := make(map[string]float64, len(dates))
	for rows.Next() {
		var date time.Time
		var closePrice float64
		if err := rows.Scan(&date, &closePrice); err != nil {
			return nil, err
		}
		closes[sopr.DateKey(date)] = closePrice
	}
	return closes, rows.Err()
}

// GetPrices returns the observations in [from, to], oldest first.
func (db *DB) GetPrices(ctx context.Context, from, to time.Time) ([]*models.PriceObservation, error) {
	query := fmt.Sprintf(`
		SELECT date, open, high, low, close, volume
		FROM "%s"."%s" FINAL
		WHERE date BETWEEN toDate(?) AND toDate(?)
		ORDER BY date
	`, db.Name, models.PriceTableName)

	var prices []*models.PriceObservation
	if err := db.Select(ctx, &prices, query, from, to); err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	return prices, nil
}

// InsertPrices batch-inserts observations. Used by tests and operator
// backfills; the routine market-data feed stays with the external ingester.
func (db *DB) InsertPrices(ctx context.Context, prices []*models.PriceObservation) error {
	if len(prices) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		`INSERT INTO "%s"."%s" (date, open, high, low, close, volume) VALUES`,
		db.Name, models.PriceTableName,
	)
	batch, err := db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	for _, p := range prices {
		if err = batch.Append(p.Date, p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			return err
		}
	}

	return batch.Send()
}
