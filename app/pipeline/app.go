package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/db/metrics"
	"github.com/utxolens/soprx/pkg/logging"
	"github.com/utxolens/soprx/pkg/pipeline/activity"
	"github.com/utxolens/soprx/pkg/pipeline/types"
	"github.com/utxolens/soprx/pkg/pipeline/workflow"
	"github.com/utxolens/soprx/pkg/redis"
	"github.com/utxolens/soprx/pkg/sopr"
	"github.com/utxolens/soprx/pkg/temporal"
	"github.com/utxolens/soprx/pkg/utils"
)

type App struct {
	Worker         worker.Worker
	TemporalClient *temporal.Client
	Logger         *zap.Logger

	// Cron is the in-process trigger used when SCHEDULE_MODE=local; nil when
	// the Temporal schedule drives the pipeline.
	Cron *cron.Cron

	events *redis.Client
}

// Start starts the worker and blocks until the context is canceled.
func (a *App) Start(ctx context.Context) {
	if a.Cron != nil {
		a.Cron.Start()
	}
	err := a.Worker.Start()
	if err != nil {
		a.Logger.Fatal("Unable to start worker", zap.Error(err))
	}
	<-ctx.Done()
	a.Stop()
}

// Stop stops the worker.
func (a *App) Stop() {
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
	a.Worker.Stop()
	if a.events != nil {
		_ = a.events.Close()
	}
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	metricsDb, dbErr := metrics.New(ctx, logger)
	if dbErr != nil {
		logger.Fatal("Unable to initialize metrics database", zap.Error(dbErr))
	}

	if err := metricsDb.InitializeDB(ctx); err != nil {
		logger.Fatal("Unable to initialize metrics database tables", zap.Error(err))
	}

	// Stage events are optional; the pipeline is fully functional without
	// the stream.
	var events *redis.Client
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		events, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - stage events will be disabled", zap.Error(err))
			events = nil
		} else {
			logger.Info("Redis client initialized for stage events")
		}
	}

	temporalClient, err := temporal.NewClient(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to establish temporal connection", zap.Error(err))
	}

	activityContext := &activity.Context{
		Logger:       logger,
		DB:           metricsDb,
		Events:       events,
		LookbackDays: utils.EnvInt("LOOKBACK_DAYS", sopr.DefaultLookbackDays),
	}
	workflowContext := workflow.Context{
		ActivityContext: activityContext,
	}

	wkr := worker.New(
		temporalClient.TClient,
		temporalClient.PipelineQueue,
		worker.Options{},
	)

	// Register the workflow
	wkr.RegisterWorkflow(workflowContext.DailyPipelineWorkflow)
	// Register all the activities
	wkr.RegisterActivity(activityContext.EnsurePrice)
	wkr.RegisterActivity(activityContext.AppendSpends)
	wkr.RegisterActivity(activityContext.AppendMetric)

	app := &App{
		Worker:         wkr,
		TemporalClient: temporalClient,
		Logger:         logger,
		events:         events,
	}

	cronExpr := utils.Env("SCHEDULE_CRON", "30 0 * * *")
	switch mode := utils.Env("SCHEDULE_MODE", "temporal"); mode {
	case "temporal":
		if err := app.EnsureDailySchedule(ctx, cronExpr); err != nil {
			logger.Fatal("Unable to ensure daily schedule", zap.Error(err))
		}
	case "local":
		app.Cron = newLocalCron(logger, temporalClient, cronExpr)
	case "none":
		logger.Info("Scheduling disabled, pipeline runs only on manual triggers")
	default:
		logger.Fatal("Unknown SCHEDULE_MODE", zap.String("mode", mode))
	}

	return app
}

// EnsureDailySchedule creates the daily pipeline schedule if it does not
// already exist. The schedule action carries an empty input, so each firing
// targets the previous UTC day.
func (a *App) EnsureDailySchedule(ctx context.Context, cronExpr string) error {
	id := a.TemporalClient.DailyScheduleID
	h := a.TemporalClient.TSClient.GetHandle(ctx, id)
	_, err := h.Describe(ctx)
	if err == nil {
		a.Logger.Info("Daily pipeline schedule already exists",
			zap.String("id", id),
			zap.String("namespace", a.TemporalClient.Namespace))
		return nil
	}

	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		a.Logger.Info("Creating daily pipeline schedule",
			zap.String("id", id),
			zap.String("cron", cronExpr),
			zap.String("namespace", a.TemporalClient.Namespace))
		_, scheduleErr := a.TemporalClient.TSClient.Create(
			ctx, client.ScheduleOptions{
				ID: id,
				Spec: client.ScheduleSpec{
					CronExpressions: []string{cronExpr},
					TimeZoneName:    "UTC",
				},
				Action: &client.ScheduleWorkflowAction{
					Workflow:                 workflow.DailyPipelineWorkflowName,
					Args:                     []interface{}{types.StageInput{}},
					TaskQueue:                a.TemporalClient.PipelineQueue,
					WorkflowExecutionTimeout: 24 * time.Hour,
					WorkflowTaskTimeout:      2 * time.Minute,
				},
			},
		)
		return scheduleErr
	}
	return err
}

// newLocalCron wires an in-process trigger for deployments without schedule
// permissions on the Temporal namespace. The workflow ID is keyed by target
// date, so a duplicate firing for the same day is rejected by the server.
func newLocalCron(logger *zap.Logger, tc *temporal.Client, cronExpr string) *cron.Cron {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(cronExpr, func() {
		target := time.Now().UTC().AddDate(0, 0, -1).Format(sopr.DateLayout)
		runCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		_, execErr := tc.TClient.ExecuteWorkflow(
			runCtx,
			client.StartWorkflowOptions{
				ID:        tc.GetDailyWorkflowID(target),
				TaskQueue: tc.PipelineQueue,
			},
			workflow.DailyPipelineWorkflowName,
			types.StageInput{Date: target},
		)
		if execErr != nil {
			logger.Error("Failed to trigger daily pipeline", zap.String("date", target), zap.Error(execErr))
			return
		}
		logger.Info("Triggered daily pipeline", zap.String("date", target))
	})
	if err != nil {
		logger.Fatal("Invalid SCHEDULE_CRON expression", zap.String("cron", cronExpr), zap.Error(err))
	}
	return c
}
