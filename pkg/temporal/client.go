package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/utils"
)

type Client struct {
	TClient   client.Client
	TSClient  client.ScheduleClient
	Namespace string

	// PipelineQueue is the task queue for the daily pipeline workflow and
	// its activities.
	PipelineQueue string

	// DailyScheduleID identifies the daily pipeline schedule.
	DailyScheduleID string

	// DailyWorkflowID is the workflow ID pattern, keyed by target date, so a
	// re-trigger for an already-running date is rejected by Temporal.
	DailyWorkflowID string
}

func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("TEMPORAL_HOSTPORT", "localhost:7233")
	ns := utils.Env("TEMPORAL_NAMESPACE", "soprx")
	loggerWrapper := NewZapAdapter(logger)

	logger.Info("Connecting to Temporal", zap.String("host", host), zap.String("namespace", ns))
	tClient, err := Dial(ctx, host, ns, loggerWrapper)
	if err != nil {
		return nil, err
	}

	if _, err = tClient.CheckHealth(ctx, nil); err != nil {
		return nil, err
	}

	return &Client{
		TClient:         tClient,
		TSClient:        tClient.ScheduleClient(),
		Namespace:       ns,
		PipelineQueue:   "pipeline",
		DailyScheduleID: "sopr:daily",
		DailyWorkflowID: "sopr:daily:%s",
	}, nil
}

// Dial connects to Temporal using the provided hostPort and namespace.
func Dial(ctx context.Context, hostPort, namespace string, logger log.Logger) (client.Client, error) {
	return client.DialContext(
		ctx,
		client.Options{
			HostPort:  hostPort,
			Namespace: namespace,
			Logger:    logger,
		},
	)
}

// GetDailyWorkflowID returns the workflow ID for the pipeline run targeting
// the given date key.
func (c *Client) GetDailyWorkflowID(dateKey string) string {
	return fmt.Sprintf(c.DailyWorkflowID, dateKey)
}
