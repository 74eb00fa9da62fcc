// Package sopr implements the adjusted Spent-Output Profit Ratio aggregation:
// a value-weighted ratio of realized price to cost-basis price over matched
// spend events, with a minimum holding-period filter. Large spends dominate
// the day's figure proportionally to the capital they represent, which is the
// definitional difference between plain SOPR and this adjusted variant.
package sopr

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/utxolens/soprx/pkg/db/models"
)

const (
	// UnitsPerCoin is the fixed divisor from base ledger increments to the
	// display/domain unit. The ledger records amounts in 1e-8 coins.
	UnitsPerCoin = 100_000_000

	// MinHoldingHours excludes same-block and same-hour churn that would
	// otherwise dominate the ratio. The boundary is inclusive: a spend held
	// exactly this long counts.
	MinHoldingHours = 1.0

	// DefaultLookbackDays bounds the creation side of the spend-to-creation
	// join. Units created earlier than the window are excluded from the
	// metric entirely; this is a deliberate cost/completeness trade-off,
	// configurable via LOOKBACK_DAYS.
	DefaultLookbackDays = 730

	// DefaultDustThreshold is 0.0001 coins in base increments. Outputs at or
	// below it never enter the creation index.
	DefaultDustThreshold = 10_000
)

// DateLayout is the wire format for calendar dates across the pipeline.
const DateLayout = "2006-01-02"

// DateKey formats a timestamp as its calendar-date key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Aggregate computes the DailyMetric for one date from the joined spend rows
// and a close-price map keyed by DateKey.
//
// Per row: rows held under MinHoldingHours are dropped; rows missing a close
// price on either the spend date or the creation date are dropped entirely
// (they contribute to neither numerator nor denominator). Surviving rows
// accumulate decimal sums of amount×sold and amount×bought.
//
// Ratio is nil when nothing survives or the denominator is zero; missing
// prices and empty days are conditions of the aggregate, not errors.
func Aggregate(date time.Time, rows []models.JoinedSpend, closes map[string]float64) models.DailyMetric {
	var (
		num        decimal.Decimal
		den        decimal.Decimal
		valueMoved decimal.Decimal
		count      uint64
	)

	for _, row := range rows {
		held := row.SpendTimestamp.Sub(row.CreatedAt).Hours()
		if held < MinHoldingHours {
			continue
		}

		sold, ok := closes[DateKey(row.SpendDate)]
		if !ok {
			continue
		}
		bought, ok := closes[DateKey(row.CreationDate)]
		if !ok {
			continue
		}

		amount := decimal.NewFromUint64(row.Amount)
		num = num.Add(amount.Mul(decimal.NewFromFloat(sold)))
		den = den.Add(amount.Mul(decimal.NewFromFloat(bought)))
		valueMoved = valueMoved.Add(amount)
		count++
	}

	metric := models.DailyMetric{
		Date:       date,
		EventCount: count,
		Version:    uint64(time.Now().UnixNano()),
	}
	metric.TotalValueMoved, _ = valueMoved.Div(decimal.NewFromInt(UnitsPerCoin)).Float64()

	if count > 0 && !den.IsZero() {
		ratio, _ := num.Div(den).Float64()
		metric.Ratio = &ratio
	}

	return metric
}

// PriceDates returns the distinct calendar dates whose close price the
// aggregation needs: every spend date and creation date present in rows.
func PriceDates(rows []models.JoinedSpend) []time.Time {
	seen := make(map[string]time.Time, len(rows)*2)
	for _, row := range rows {
		seen[DateKey(row.SpendDate)] = row.SpendDate
		seen[DateKey(row.CreationDate)] = row.CreationDate
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	return dates
}
