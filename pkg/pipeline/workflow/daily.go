package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/utxolens/soprx/pkg/pipeline/activity"
	"github.com/utxolens/soprx/pkg/pipeline/types"
	"github.com/utxolens/soprx/pkg/sopr"
)

// DailyPipelineWorkflowName is referenced by the schedule action.
const DailyPipelineWorkflowName = "DailyPipelineWorkflow"

// DailyPipelineWorkflow runs the three daily stages for one logical date in
// strict order: price gate, then spend append, then metric append. Each
// stage only starts after its predecessor committed; each is independently
// retried on its policy. A failed stage blocks its successors for this date
// only. Every date is its own workflow run, so resolved failures never hold
// up future dates.
//
// When the schedule triggers with an empty date, the target is yesterday
// relative to workflow time.
func (wc *Context) DailyPipelineWorkflow(ctx workflow.Context, in types.StageInput) error {
	if in.Date == "" {
		in.Date = workflow.Now(ctx).UTC().AddDate(0, 0, -1).Format(sopr.DateLayout)
	}

	logger := workflow.GetLogger(ctx)
	logger.Info("Daily pipeline starting", "run_date", in.Date)

	// The price gate polls for the external ingester, so it retries patiently
	// and for a long time.
	priceOpts := workflow.ActivityOptions{
		StartToCloseTimeout:    time.Minute,
		ScheduleToCloseTimeout: 12 * time.Hour,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Minute,
			MaximumAttempts:    0, // unlimited within the schedule-to-close window
		},
	}

	// The append stages fail fast on anything but transient source errors.
	appendOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Minute,
			MaximumAttempts:    8,
		},
	}

	var out types.StageOutput

	priceCtx := workflow.WithActivityOptions(ctx, priceOpts)
	if err := workflow.ExecuteActivity(priceCtx, (*activity.Context).EnsurePrice, in).Get(priceCtx, &out); err != nil {
		return err
	}

	appendCtx := workflow.WithActivityOptions(ctx, appendOpts)
	if err := workflow.ExecuteActivity(appendCtx, (*activity.Context).AppendSpends, in).Get(appendCtx, &out); err != nil {
		return err
	}

	if err := workflow.ExecuteActivity(appendCtx, (*activity.Context).AppendMetric, in).Get(appendCtx, &out); err != nil {
		return err
	}

	logger.Info("Daily pipeline complete",
		"run_date", in.Date,
		"event_count", out.EventCount,
		"ratio_null", out.RatioNull)
	return nil
}
