package activity

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/db/models"
	"github.com/utxolens/soprx/pkg/pipeline/types"
)

// AppendMetric computes and writes the aSOPR aggregate for the target date.
// Requires the spend stage to have committed for the date; aggregating over
// an uncommitted spend set would silently under-count, so that violation is
// fatal. A re-run replaces the date's row with an identical value.
func (c *Context) AppendMetric(ctx context.Context, in types.StageInput) (types.StageOutput, error) {
	out := types.StageOutput{Date: in.Date, Stage: models.StageMetric}

	date, err := in.Time()
	if err != nil {
		return out, temporal.NewNonRetryableApplicationError(err.Error(), types.ErrTypeBadInput, err)
	}

	if err := c.requirePredecessor(ctx, date, models.StageMetric); err != nil {
		return out, err
	}

	metric, err := c.DB.ComputeDailyMetric(ctx, date, c.LookbackDays)
	if err != nil {
		c.publish(ctx, in.Date, models.StageMetric, "failed", err.Error())
		return out, err
	}

	if err := c.DB.InsertDailyMetric(ctx, metric); err != nil {
		c.publish(ctx, in.Date, models.StageMetric, "failed", err.Error())
		return out, err
	}

	if err := c.DB.MarkStage(ctx, date, models.StageMetric, fmt.Sprintf("events=%d", metric.EventCount)); err != nil {
		return out, err
	}

	out.EventCount = metric.EventCount
	out.RatioNull = metric.Ratio == nil

	fields := []zap.Field{
		zap.String("run_date", in.Date),
		zap.Uint64("event_count", metric.EventCount),
		zap.Float64("total_value_moved", metric.TotalValueMoved),
	}
	if metric.Ratio != nil {
		fields = append(fields, zap.Float64("ratio", *metric.Ratio))
	} else {
		fields = append(fields, zap.Bool("ratio_null", true))
	}
	c.Logger.Info("Metric stage committed", fields...)
	c.publish(ctx, in.Date, models.StageMetric, "completed", fmt.Sprintf("events=%d", metric.EventCount))
	return out, nil
}
