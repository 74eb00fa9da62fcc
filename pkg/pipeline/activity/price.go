package activity

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/db/models"
	"github.com/utxolens/soprx/pkg/pipeline/types"
)

// EnsurePrice gates the pipeline on the external price ingester: the stage
// commits once an observation exists for the target date. A missing price is
// an ordinary retryable failure: the ingester lands asynchronously and the
// activity retry policy keeps polling for it.
func (c *Context) EnsurePrice(ctx context.Context, in types.StageInput) (types.StageOutput, error) {
	out := types.StageOutput{Date: in.Date, Stage: models.StagePrice}

	date, err := in.Time()
	if err != nil {
		return out, temporal.NewNonRetryableApplicationError(err.Error(), types.ErrTypeBadInput, err)
	}

	ok, err := c.DB.HasPrice(ctx, date)
	if err != nil {
		c.publish(ctx, in.Date, models.StagePrice, "failed", err.Error())
		return out, err
	}
	if !ok {
		return out, fmt.Errorf("no price observation for %s yet", in.Date)
	}

	if err := c.DB.MarkStage(ctx, date, models.StagePrice, ""); err != nil {
		return out, err
	}

	c.Logger.Info("Price stage committed", zap.String("run_date", in.Date))
	c.publish(ctx, in.Date, models.StagePrice, "completed", "")
	return out, nil
}
