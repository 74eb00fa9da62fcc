package activity

import (
	"context"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/db/metrics"
	"github.com/utxolens/soprx/pkg/db/models"
	"github.com/utxolens/soprx/pkg/pipeline/types"
	"github.com/utxolens/soprx/pkg/redis"
)

// Context carries the dependencies shared by all pipeline activities.
type Context struct {
	Logger *zap.Logger
	DB     metrics.Store

	// Events is the status sink; may be nil, in which case stage events are
	// only logged.
	Events *redis.Client

	// LookbackDays bounds the creation side of the metric join.
	LookbackDays int
}

// requirePredecessor enforces the stage ordering contract: the predecessor
// stage must have committed for the date before this stage may run. A
// violation is an operational error, aborted loudly and never retried,
// because running out of order would silently aggregate a stale spend set.
func (c *Context) requirePredecessor(ctx context.Context, date time.Time, stage string) error {
	pred, err := models.StagePredecessor(stage)
	if err != nil {
		return temporal.NewNonRetryableApplicationError(err.Error(), types.ErrTypeBadInput, err)
	}
	if pred == "" {
		return nil
	}

	ok, err := c.DB.StageCompleted(ctx, date, pred)
	if err != nil {
		return err
	}
	if !ok {
		return temporal.NewNonRetryableApplicationError(
			"stage "+pred+" has not committed for "+date.Format("2006-01-02"),
			types.ErrTypeStageOrder,
			nil,
		)
	}
	return nil
}

// publish sends a stage status event to the sink, logging on failure.
func (c *Context) publish(ctx context.Context, dateKey, stage, status, detail string) {
	if c.Events == nil {
		return
	}
	if err := c.Events.PublishStageEvent(ctx, dateKey, stage, status, detail); err != nil {
		c.Logger.Warn("Failed to publish stage event",
			zap.String("run_date", dateKey),
			zap.String("stage", stage),
			zap.Error(err))
	}
}
