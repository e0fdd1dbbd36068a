package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/cemlevent54/FileMate/internal/metrics"
)

// Sweeper evicts lapsed revocation entries.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
	Len() int
}

type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	interval time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewScheduler(sweeper Sweeper, interval time.Duration, m *metrics.Metrics, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		interval: interval,
		metrics:  m,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() error {
	if s.sweeper == nil {
		return nil
	}

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.RunSweep); err != nil {
		return fmt.Errorf("schedule revocation sweep: %w", err)
	}

	s.cron.Start()
	s.log.Info().Dur("interval", s.interval).Msg("revocation sweep scheduled")
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("revocation sweep still running at shutdown")
	}
}

func (s *Scheduler) RunSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	evicted, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("revocation sweep failed")
		return
	}

	remaining := s.sweeper.Len()
	s.metrics.ObserveSweep(evicted, remaining)
	s.log.Debug().
		Int("evicted", evicted).
		Int("remaining", remaining).
		Msg("revocation sweep finished")
}
