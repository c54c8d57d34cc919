package sproutbank

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler fires the accrual batch on a coarse fixed interval, plus once
// immediately at start so downtime is covered. It keeps no bookkeeping of
// its own; re-running is always safe.
type Scheduler struct {
	eng      *Engine
	interval time.Duration
	log      *zerolog.Logger
}

func NewScheduler(eng *Engine, interval time.Duration, log *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		eng:      eng,
		interval: interval,
		log:      log,
	}
}

// Start launches the scheduling loop; it stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("interest scheduler started")
	s.tick(ctx)

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("interest scheduler stopped")
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	rep, err := s.eng.RunOnce(ctx)
	if err != nil {
		s.log.Err(err).Msg("accrual batch run failed")
		return
	}
	s.log.Info().
		Int("accounts", rep.Accounts).
		Int("applied", rep.Applied).
		Int("skipped", rep.Skipped).
		Int("failures", rep.Failures).
		Str("total", rep.Total.StringFixed(2)).
		Msg("accrual batch run complete")
}
