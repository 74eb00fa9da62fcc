package sopr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utxolens/soprx/pkg/db/models"
)

func day(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func spend(amount uint64, created, spent time.Time) models.JoinedSpend {
	return models.JoinedSpend{
		UnitID:         "unit",
		Amount:         amount,
		CreatedAt:      created,
		CreationDate:   time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC),
		SpendTimestamp: spent,
		SpendDate:      time.Date(spent.Year(), spent.Month(), spent.Day(), 0, 0, 0, 0, time.UTC),
	}
}

func TestAggregateRatioOneWhenPricesEqual(t *testing.T) {
	target := day("2024-03-10")
	created := day("2024-03-01").Add(12 * time.Hour)
	spent := target.Add(15 * time.Hour)

	rows := []models.JoinedSpend{
		spend(5*UnitsPerCoin, created, spent),
		spend(2*UnitsPerCoin, created, spent),
	}
	closes := map[string]float64{
		"2024-03-01": 50_000,
		"2024-03-10": 50_000,
	}

	metric := Aggregate(target, rows, closes)
	require.NotNil(t, metric.Ratio)
	assert.InDelta(t, 1.0, *metric.Ratio, 1e-12)
	assert.Equal(t, uint64(2), metric.EventCount)
	assert.InDelta(t, 7.0, metric.TotalValueMoved, 1e-9)
}

func TestAggregateValueWeighting(t *testing.T) {
	target := day("2024-03-10")
	spent := target.Add(6 * time.Hour)

	// A large spend bought cheap and a small spend bought dear. The ratio
	// must track capital, not event count.
	rows := []models.JoinedSpend{
		spend(9*UnitsPerCoin, day("2024-03-01").Add(time.Hour), spent),
		spend(1*UnitsPerCoin, day("2024-03-05").Add(time.Hour), spent),
	}
	closes := map[string]float64{
		"2024-03-01": 10_000,
		"2024-03-05": 40_000,
		"2024-03-10": 20_000,
	}

	metric := Aggregate(target, rows, closes)
	require.NotNil(t, metric.Ratio)

	// num = (9*20k + 1*20k), den = (9*10k + 1*40k) => 200k / 130k
	assert.InDelta(t, 200_000.0/130_000.0, *metric.Ratio, 1e-12)
}

func TestAggregateHoldingPeriodBoundary(t *testing.T) {
	target := day("2024-03-10")
	spent := target.Add(10 * time.Hour)
	closes := map[string]float64{
		"2024-03-10": 30_000,
	}

	halfHour := Aggregate(target, []models.JoinedSpend{
		spend(UnitsPerCoin, spent.Add(-30*time.Minute), spent),
	}, closes)
	assert.Equal(t, uint64(0), halfHour.EventCount)
	assert.Nil(t, halfHour.Ratio)

	// Held exactly one hour counts; the boundary is inclusive.
	exactHour := Aggregate(target, []models.JoinedSpend{
		spend(UnitsPerCoin, spent.Add(-time.Hour), spent),
	}, closes)
	assert.Equal(t, uint64(1), exactHour.EventCount)
	require.NotNil(t, exactHour.Ratio)
	assert.InDelta(t, 1.0, *exactHour.Ratio, 1e-12)
}

func TestAggregateMissingPriceDropsRow(t *testing.T) {
	target := day("2024-03-10")
	spent := target.Add(8 * time.Hour)

	rows := []models.JoinedSpend{
		spend(UnitsPerCoin, day("2024-03-01").Add(time.Hour), spent), // creation close missing
		spend(UnitsPerCoin, day("2024-03-05").Add(time.Hour), spent),
	}
	closes := map[string]float64{
		"2024-03-05": 25_000,
		"2024-03-10": 50_000,
	}

	metric := Aggregate(target, rows, closes)
	require.NotNil(t, metric.Ratio)
	assert.Equal(t, uint64(1), metric.EventCount)
	assert.InDelta(t, 2.0, *metric.Ratio, 1e-12)
	assert.InDelta(t, 1.0, metric.TotalValueMoved, 1e-9)
}

func TestAggregateNullRatio(t *testing.T) {
	target := day("2024-03-10")

	empty := Aggregate(target, nil, nil)
	assert.Nil(t, empty.Ratio)
	assert.Equal(t, uint64(0), empty.EventCount)
	assert.Equal(t, 0.0, empty.TotalValueMoved)

	// A zero cost basis must not divide.
	spent := target.Add(8 * time.Hour)
	zeroDen := Aggregate(target, []models.JoinedSpend{
		spend(UnitsPerCoin, day("2024-03-01").Add(time.Hour), spent),
	}, map[string]float64{
		"2024-03-01": 0,
		"2024-03-10": 50_000,
	})
	assert.Nil(t, zeroDen.Ratio)
	assert.Equal(t, uint64(1), zeroDen.EventCount)
}

func TestAggregateScenario(t *testing.T) {
	// Mixed day: one profitable spend, one at a loss, one filtered by the
	// holding period.
	target := day("2024-06-01")
	spent := target.Add(20 * time.Hour)

	rows := []models.JoinedSpend{
		spend(6*UnitsPerCoin, day("2024-05-01").Add(time.Hour), spent),
		spend(4*UnitsPerCoin, day("2024-05-20").Add(time.Hour), spent),
		spend(100*UnitsPerCoin, spent.Add(-10*time.Minute), spent),
	}
	closes := map[string]float64{
		"2024-05-01": 10_000,
		"2024-05-20": 30_000,
		"2024-06-01": 27_000,
	}

	metric := Aggregate(target, rows, closes)
	require.NotNil(t, metric.Ratio)

	// num = 10*27k, den = 6*10k + 4*30k => 270k / 180k
	assert.InDelta(t, 1.5, *metric.Ratio, 1e-12)
	assert.Equal(t, uint64(2), metric.EventCount)
	assert.InDelta(t, 10.0, metric.TotalValueMoved, 1e-9)
}

func TestPriceDates(t *testing.T) {
	spent := day("2024-03-10").Add(8 * time.Hour)
	rows := []models.JoinedSpend{
		spend(UnitsPerCoin, day("2024-03-01").Add(time.Hour), spent),
		spend(UnitsPerCoin, day("2024-03-01").Add(2*time.Hour), spent),
		spend(UnitsPerCoin, day("2024-03-05").Add(time.Hour), spent),
	}

	dates := PriceDates(rows)
	keys := make(map[string]bool, len(dates))
	for _, d := range dates {
		keys[DateKey(d)] = true
	}

	assert.Len(t, dates, 3)
	assert.True(t, keys["2024-03-01"])
	assert.True(t, keys["2024-03-05"])
	assert.True(t, keys["2024-03-10"])
}
