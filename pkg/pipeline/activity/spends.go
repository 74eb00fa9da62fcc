package activity

import (
	"context"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/db/models"
	"github.com/utxolens/soprx/pkg/pipeline/types"
)

// AppendSpends appends the target date's spend events from the ledger.
// Safe to re-run: the append is delete-then-insert keyed by spend_date.
// After the append, units spent more than once are surfaced as ledger
// anomalies; they never fail the stage and are never deduplicated.
func (c *Context) AppendSpends(ctx context.Context, in types.StageInput) (types.StageOutput, error) {
	out := types.StageOutput{Date: in.Date, Stage: models.StageSpend}

	date, err := in.Time()
	if err != nil {
		return out, temporal.NewNonRetryableApplicationError(err.Error(), types.ErrTypeBadInput, err)
	}

	if err := c.requirePredecessor(ctx, date, models.StageSpend); err != nil {
		return out, err
	}

	if err := c.DB.AppendSpendDay(ctx, date); err != nil {
		c.publish(ctx, in.Date, models.StageSpend, "failed", err.Error())
		return out, err
	}

	anomalies, err := c.DB.FindDoubleSpends(ctx, date)
	if err != nil {
		// The append itself committed; a failed anomaly scan is logged, not fatal.
		c.Logger.Warn("Double-spend scan failed", zap.String("run_date", in.Date), zap.Error(err))
	}
	for _, a := range anomalies {
		c.Logger.Warn("Ledger anomaly: unit spent more than once",
			zap.String("unit_id", a.UnitID),
			zap.Uint64("spend_count", a.SpendCount),
			zap.Time("first_spend", a.FirstSpend),
			zap.Time("last_spend", a.LastSpend))
		c.publish(ctx, in.Date, models.StageSpend, "anomaly", "double spend of "+a.UnitID)
	}

	if err := c.DB.MarkStage(ctx, date, models.StageSpend, ""); err != nil {
		return out, err
	}

	c.Logger.Info("Spend stage committed", zap.String("run_date", in.Date))
	c.publish(ctx, in.Date, models.StageSpend, "completed", "")
	return out, nil
}
