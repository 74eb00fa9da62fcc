package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap/zaptest"

	"github.com/utxolens/soprx/pkg/db/models"
	"github.com/utxolens/soprx/pkg/pipeline/activity"
	"github.com/utxolens/soprx/pkg/pipeline/types"
	"github.com/utxolens/soprx/pkg/pipeline/workflow"
)

func newWorkflowEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *activity.Context, *workflow.Context) {
	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	actx := &activity.Context{Logger: zaptest.NewLogger(t)}
	wctx := &workflow.Context{ActivityContext: actx}

	env.RegisterWorkflow(wctx.DailyPipelineWorkflow)
	env.RegisterActivity(actx.EnsurePrice)
	env.RegisterActivity(actx.AppendSpends)
	env.RegisterActivity(actx.AppendMetric)

	return env, actx, wctx
}

func TestDailyPipelineRunsStagesInOrder(t *testing.T) {
	env, actx, wctx := newWorkflowEnv(t)

	var order []string
	record := func(stage string) func(context.Context, types.StageInput) (types.StageOutput, error) {
		return func(_ context.Context, in types.StageInput) (types.StageOutput, error) {
			order = append(order, stage)
			return types.StageOutput{Date: in.Date, Stage: stage}, nil
		}
	}

	env.OnActivity(actx.EnsurePrice, mock.Anything, mock.Anything).Return(record(models.StagePrice))
	env.OnActivity(actx.AppendSpends, mock.Anything, mock.Anything).Return(record(models.StageSpend))
	env.OnActivity(actx.AppendMetric, mock.Anything, mock.Anything).Return(record(models.StageMetric))

	env.ExecuteWorkflow(wctx.DailyPipelineWorkflow, types.StageInput{Date: "2024-06-01"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, []string{models.StagePrice, models.StageSpend, models.StageMetric}, order)
}

func TestDailyPipelineDefaultsToYesterday(t *testing.T) {
	env, actx, wctx := newWorkflowEnv(t)

	var dates []string
	passthrough := func(_ context.Context, in types.StageInput) (types.StageOutput, error) {
		dates = append(dates, in.Date)
		return types.StageOutput{Date: in.Date}, nil
	}

	env.OnActivity(actx.EnsurePrice, mock.Anything, mock.Anything).Return(passthrough)
	env.OnActivity(actx.AppendSpends, mock.Anything, mock.Anything).Return(passthrough)
	env.OnActivity(actx.AppendMetric, mock.Anything, mock.Anything).Return(passthrough)

	env.ExecuteWorkflow(wctx.DailyPipelineWorkflow, types.StageInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	require.Len(t, dates, 3)
	expected := env.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	for _, d := range dates {
		assert.Equal(t, expected, d)
	}
}

func TestDailyPipelineStageFailureBlocksSuccessors(t *testing.T) {
	env, actx, wctx := newWorkflowEnv(t)

	env.OnActivity(actx.EnsurePrice, mock.Anything, mock.Anything).Return(
		types.StageOutput{Stage: models.StagePrice}, nil)
	env.OnActivity(actx.AppendSpends, mock.Anything, mock.Anything).Return(
		types.StageOutput{}, temporal.NewNonRetryableApplicationError(
			"ledger unreachable", "source_error", nil))

	env.ExecuteWorkflow(wctx.DailyPipelineWorkflow, types.StageInput{Date: "2024-06-01"})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())

	// The metric stage must never run for this date.
	env.AssertNotCalled(t, "AppendMetric", mock.Anything, mock.Anything)
}
