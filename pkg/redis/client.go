package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/utils"
)

// StageStream is the status sink: every pipeline stage completion or failure
// is appended here for external consumers (dashboards, alert glue).
const StageStream = "soprx:pipeline:events"

// Default max entries kept in the stream
const DefaultStreamMaxLen = 10000

// Client wraps the Redis client used as the pipeline status sink.
type Client struct {
	client       *redis.Client
	logger       *zap.Logger
	streamMaxLen int64
}

// NewClient creates a new Redis client using environment variables:
//   - REDIS_HOST (default "localhost"), REDIS_PORT (default "6379")
//   - REDIS_PASSWORD, REDIS_DB
//   - REDIS_STREAM_MAXLEN (default 10000, 0 = unlimited)
func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt("REDIS_DB", 0)
	streamMaxLen := utils.EnvInt64("REDIS_STREAM_MAXLEN", DefaultStreamMaxLen)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", addr),
		zap.Int("db", db))

	return &Client{
		client:       rdb,
		logger:       logger,
		streamMaxLen: streamMaxLen,
	}, nil
}

// PublishStageEvent appends a stage status event to the stream.
// Best-effort by contract: the pipeline logs a failure to publish but never
// fails a stage over it.
func (c *Client) PublishStageEvent(ctx context.Context, runDate, stage, status, detail string) error {
	args := &redis.XAddArgs{
		Stream: StageStream,
		MaxLen: c.streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"run_date": runDate,
			"stage":    stage,
			"status":   status,
			"detail":   detail,
			"at":       time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := c.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish stage event: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
