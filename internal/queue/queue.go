package queue

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Task types carried on the refresh stream.
const (
	TaskMetricsSweep = "metrics_sweep"
	TaskMetricsPost  = "metrics_post"
)

// Publisher enqueues refresh tasks for the worker.
type Publisher struct {
	client *redis.Client
	stream string
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// EnqueueSweep asks the worker for a full metrics sweep. Source labels who
// triggered it (cron, admin).
func (p *Publisher) EnqueueSweep(ctx context.Context, source string) (string, error) {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"type": TaskMetricsSweep, "source": source},
	}).Result()
}

// EnqueuePost asks for a targeted refresh of a single post.
func (p *Publisher) EnqueuePost(ctx context.Context, postID string) (string, error) {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"type": TaskMetricsPost, "post_id": postID},
	}).Result()
}

// EnsureGroup creates the consumer group reading from the stream start.
// Re-creation of an existing group is not an error.
func EnsureGroup(ctx context.Context, client *redis.Client, stream, group string) error {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}
