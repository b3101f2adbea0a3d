package usecase

import (
	"context"
	"time"

	"MarketPulse/pkg/logger"
	"MarketPulse/pkg/util"
)

// CycleRunner is one scheduled unit of work.
type CycleRunner interface {
	RunOnce(ctx context.Context) error
}

// Scheduler runs a cycle at start, then again after interval (success) or retryInterval (failure).
// Cycles never overlap: the next wait starts only after the previous cycle returns.
type Scheduler struct {
	cycle         CycleRunner
	interval      time.Duration
	retryInterval time.Duration
	log           *logger.Logger
	wait          func(ctx context.Context, d time.Duration) error
	now           func() time.Time
}

func NewScheduler(cycle CycleRunner, interval, retryInterval time.Duration, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if retryInterval <= 0 {
		retryInterval = 5 * time.Minute
	}
	return &Scheduler{
		cycle:         cycle,
		interval:      interval,
		retryInterval: retryInterval,
		log:           log,
		wait:          waitTimer,
		now:           time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started",
		logger.Duration("interval", s.interval),
		logger.Duration("retry_interval", s.retryInterval),
	)
	for {
		d := s.interval
		if err := s.cycle.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			d = s.retryInterval
			s.log.Error("cycle failed, retrying early", logger.Error(err))
		}

		s.log.Info("next cycle scheduled", logger.Time("at", util.NextRun(s.now(), d)))
		if err := s.wait(ctx, d); err != nil {
			break
		}
	}
	s.log.Info("scheduler stopped")
	return nil
}

func waitTimer(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
