package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Client submits warm-up tasks to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueWarmup enqueues a one-off report warm-up. Requests within a minute
// of each other collapse into one task.
func (c *Client) EnqueueWarmup(ctx context.Context, refresh bool) (*asynq.TaskInfo, error) {
	task, err := NewReportWarmupTask(refresh)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.Unique(time.Minute), asynq.MaxRetry(3))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
