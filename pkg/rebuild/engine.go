// Package rebuild implements the explicitly-triggered bulk builds: full
// scans of the ledger that (re)produce the creation index, the spend index,
// or the whole daily metric history. These are the most expensive operations
// in the system and are never run by the routine scheduler.
package rebuild

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/db/metrics"
)

// Engine drives staged bulk rebuilds: build into a shadow table bucket by
// bucket, then atomically exchange it with the published table. A failure or
// cancellation before the exchange leaves the published table in its prior
// state.
type Engine struct {
	Logger *zap.Logger
	DB     metrics.BulkStore

	// Workers bounds how many month buckets build concurrently.
	Workers int

	// LookbackDays bounds the creation side of the metric join in bulk mode.
	LookbackDays int
}

// RebuildCreationIndex scans the full ledger from start and replaces the
// creation index. Dust outputs (amount <= dustThreshold) are filtered at
// build time and never enter the index.
func (e *Engine) RebuildCreationIndex(ctx context.Context, start time.Time, dustThreshold uint64) error {
	e.Logger.Info("Creation index rebuild starting",
		zap.Time("start", start),
		zap.Uint64("dust_threshold", dustThreshold))

	if err := e.DB.RecreateCreationRebuild(ctx); err != nil {
		return err
	}

	err := e.runBuckets(ctx, start, func(ctx context.Context, b Bucket) error {
		return e.DB.BuildCreationBucket(ctx, b.From, b.To, dustThreshold)
	})
	if err != nil {
		if dropErr := e.DB.DropCreationRebuild(context.WithoutCancel(ctx)); dropErr != nil {
			e.Logger.Warn("Failed to drop partial creation rebuild", zap.Error(dropErr))
		}
		return err
	}

	if err := e.DB.SwapCreationIndex(ctx); err != nil {
		return err
	}

	e.Logger.Info("Creation index rebuild complete")
	return nil
}

// RebuildSpendIndex scans the full ledger from start and replaces the spend
// index, with the same staged-build atomicity as the creation rebuild.
func (e *Engine) RebuildSpendIndex(ctx context.Context, start time.Time) error {
	e.Logger.Info("Spend index rebuild starting", zap.Time("start", start))

	if err := e.DB.RecreateSpendRebuild(ctx); err != nil {
		return err
	}

	err := e.runBuckets(ctx, start, func(ctx context.Context, b Bucket) error {
		return e.DB.BuildSpendBucket(ctx, b.From, b.To)
	})
	if err != nil {
		if dropErr := e.DB.DropSpendRebuild(context.WithoutCancel(ctx)); dropErr != nil {
			e.Logger.Warn("Failed to drop partial spend rebuild", zap.Error(dropErr))
		}
		return err
	}

	if err := e.DB.SwapSpendIndex(ctx); err != nil {
		return err
	}

	e.Logger.Info("Spend index rebuild complete")
	return nil
}

// runBuckets executes buildFn for every month bucket on a bounded pond pool.
// Any bucket failure fails the whole build; nothing is published.
func (e *Engine) runBuckets(ctx context.Context, start time.Time, buildFn func(context.Context, Bucket) error) error {
	buckets := MonthBuckets(start, time.Now().UTC())
	if len(buckets) == 0 {
		return fmt.Errorf("no ledger range to build: start %s is in the future", start.Format("2006-01-02"))
	}

	workers := e.Workers
	if workers <= 0 {
		workers = 4
	}

	pool := pond.NewPool(workers)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, b := range buckets {
		bucket := b
		group.SubmitErr(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			e.Logger.Debug("Building bucket",
				zap.Time("from", bucket.From),
				zap.Time("to", bucket.To))
			return buildFn(groupCtx, bucket)
		})
	}

	if err := group.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("bulk build cancelled: %w", err)
		}
		return fmt.Errorf("bulk build failed: %w", err)
	}
	return nil
}

// RebuildDailyMetrics recomputes the metric for every spend date present in
// the spend index. Each date's row replaces the previous one, so the bulk
// pass is safe over an already-populated table.
func (e *Engine) RebuildDailyMetrics(ctx context.Context) error {
	dates, err := e.DB.ListSpendDates(ctx)
	if err != nil {
		return err
	}

	e.Logger.Info("Daily metric rebuild starting", zap.Int("dates", len(dates)))

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("metric rebuild cancelled: %w", err)
		}

		metric, err := e.DB.ComputeDailyMetric(ctx, date, e.LookbackDays)
		if err != nil {
			return err
		}
		if err := e.DB.InsertDailyMetric(ctx, metric); err != nil {
			return err
		}
	}

	e.Logger.Info("Daily metric rebuild complete", zap.Int("dates", len(dates)))
	return nil
}
