package rebuild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMonthBucketsSpansMonths(t *testing.T) {
	buckets := MonthBuckets(ts("2024-01-15"), ts("2024-03-10"))
	require.Len(t, buckets, 3)

	// First bucket starts at the configured start, not the month boundary.
	assert.Equal(t, ts("2024-01-15"), buckets[0].From)
	assert.Equal(t, ts("2024-02-01"), buckets[0].To)

	assert.Equal(t, ts("2024-02-01"), buckets[1].From)
	assert.Equal(t, ts("2024-03-01"), buckets[1].To)

	// Last bucket covers the whole end day.
	assert.Equal(t, ts("2024-03-01"), buckets[2].From)
	assert.Equal(t, ts("2024-03-11"), buckets[2].To)
}

func TestMonthBucketsContiguous(t *testing.T) {
	buckets := MonthBuckets(ts("2019-01-01"), ts("2024-12-31"))
	require.NotEmpty(t, buckets)

	for i := 1; i < len(buckets); i++ {
		assert.Equal(t, buckets[i-1].To, buckets[i].From)
	}
	assert.Equal(t, ts("2019-01-01"), buckets[0].From)
	assert.Equal(t, ts("2025-01-01"), buckets[len(buckets)-1].To)
}

func TestMonthBucketsSingleDay(t *testing.T) {
	buckets := MonthBuckets(ts("2024-05-07"), ts("2024-05-07"))
	require.Len(t, buckets, 1)
	assert.Equal(t, ts("2024-05-07"), buckets[0].From)
	assert.Equal(t, ts("2024-05-08"), buckets[0].To)
}

func TestMonthBucketsInvertedRange(t *testing.T) {
	assert.Nil(t, MonthBuckets(ts("2024-05-07"), ts("2024-05-06")))
}
