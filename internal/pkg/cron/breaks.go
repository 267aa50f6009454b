package cron

import (
	"context"
	"log/slog"
	"time"
)

// StaleBreakFlagger marks breaks left open too long for review.
type StaleBreakFlagger interface {
	FlagStaleBreaks(ctx context.Context) (int64, error)
}

type BreakJobs struct {
	flagger  StaleBreakFlagger
	interval time.Duration
}

func NewBreakJobs(flagger StaleBreakFlagger, interval time.Duration) *BreakJobs {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &BreakJobs{flagger: flagger, interval: interval}
}

func (j *BreakJobs) RegisterJobs(scheduler *Scheduler) error {
	return scheduler.AddJob(Job{
		Name:     "flag_stale_breaks",
		Interval: j.interval,
		Fn:       j.FlagStaleBreaks,
	})
}

// FlagStaleBreaks never closes a break; it only flags it and lets the
// employee end it.
func (j *BreakJobs) FlagStaleBreaks(ctx context.Context) error {
	n, err := j.flagger.FlagStaleBreaks(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("cron: stale breaks flagged", "count", n)
	}
	return nil
}
