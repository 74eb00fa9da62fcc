package metrics

import (
	"context"
	"time"

	"github.com/utxolens/soprx/pkg/db/models"
)

// Store describes the metrics database operations consumed by the daily
// pipeline activities and the query API.
type Store interface {
	DatabaseName() string
	LedgerDatabase() string

	// --- Prices

	HasPrice(ctx context.Context, date time.Time) (bool, error)
	GetCloses(ctx context.Context, dates []time.Time) (map[string]float64, error)
	GetPrices(ctx context.Context, from, to time.Time) ([]*models.PriceObservation, error)
	InsertPrices(ctx context.Context, prices []*models.PriceObservation) error

	// --- Spend index (incremental)

	AppendSpendDay(ctx context.Context, target time.Time) error
	FindDoubleSpends(ctx context.Context, target time.Time) ([]models.DoubleSpend, error)

	// --- Daily metric

	ComputeDailyMetric(ctx context.Context, date time.Time, lookbackDays int) (*models.DailyMetric, error)
	InsertDailyMetric(ctx context.Context, m *models.DailyMetric) error
	GetDailyMetrics(ctx context.Context, from, to time.Time) ([]*models.DailyMetric, error)
	ListSpendDates(ctx context.Context) ([]time.Time, error)

	// --- Stage checkpoints

	MarkStage(ctx context.Context, date time.Time, stage, detail string) error
	StageCompleted(ctx context.Context, date time.Time, stage string) (bool, error)
}

// BulkStore describes the staged-rebuild operations consumed by the rebuild
// engine. Kept separate from Store: bulk rebuilds are explicitly triggered
// and never reachable from routine scheduling.
type BulkStore interface {
	Store

	RecreateCreationRebuild(ctx context.Context) error
	BuildCreationBucket(ctx context.Context, from, to time.Time, dustThreshold uint64) error
	SwapCreationIndex(ctx context.Context) error
	DropCreationRebuild(ctx context.Context) error

	RecreateSpendRebuild(ctx context.Context) error
	BuildSpendBucket(ctx context.Context, from, to time.Time) error
	SwapSpendIndex(ctx context.Context) error
	DropSpendRebuild(ctx context.Context) error
}

var _ BulkStore = (*DB)(nil)
