package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SweepEnqueuer pushes a metrics sweep task onto the worker stream.
type SweepEnqueuer interface {
	EnqueueSweep(ctx context.Context, source string) (string, error)
}

// Scheduler enqueues the periodic metrics refresh. It only produces
// tasks; the worker does the scraping.
type Scheduler struct {
	cron     *cron.Cron
	queue    SweepEnqueuer
	interval time.Duration
	log      zerolog.Logger
}

func NewScheduler(queue SweepEnqueuer, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{
		cron:     cron.New(),
		queue:    queue,
		interval: interval,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("@every "+s.interval.String(), s.enqueueSweep); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Dur("interval", s.interval).Msg("metrics refresh scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := s.queue.EnqueueSweep(ctx, "cron")
	if err != nil {
		s.log.Error().Err(err).Msg("enqueue metrics sweep failed")
		return
	}
	s.log.Info().Str("message_id", id).Msg("metrics sweep enqueued")
}
