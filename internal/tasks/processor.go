package tasks

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/metrics"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/queue"
)

// MetricsRefresher is the worker-side surface of the metrics package.
type MetricsRefresher interface {
	RefreshAll(ctx context.Context) (metrics.Summary, error)
	RefreshPost(ctx context.Context, postID string) error
}

// Processor dispatches stream tasks to the refresher. Unknown task types
// are logged and acknowledged so a bad producer cannot wedge the stream.
type Processor struct {
	refresher MetricsRefresher
	log       zerolog.Logger
}

func NewProcessor(refresher MetricsRefresher, log zerolog.Logger) *Processor {
	return &Processor{refresher: refresher, log: log}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	taskType, _ := msg.Values["type"].(string)

	switch taskType {
	case queue.TaskMetricsSweep:
		source, _ := msg.Values["source"].(string)
		p.log.Info().Str("source", source).Str("message_id", msg.ID).Msg("metrics sweep task received")
		summary, err := p.refresher.RefreshAll(ctx)
		if err != nil {
			return fmt.Errorf("metrics sweep: %w", err)
		}
		p.log.Info().Int("updated", summary.Updated).Int("failed", summary.Failed).Msg("metrics sweep done")
		return nil

	case queue.TaskMetricsPost:
		postID, _ := msg.Values["post_id"].(string)
		if postID == "" {
			p.log.Warn().Str("message_id", msg.ID).Msg("metrics post task without post_id")
			return nil
		}
		if err := p.refresher.RefreshPost(ctx, postID); err != nil {
			return fmt.Errorf("refresh post %s: %w", postID, err)
		}
		return nil

	default:
		p.log.Warn().Str("type", taskType).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}
