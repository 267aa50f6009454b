package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	require.NoError(t, s.AddJob(Job{
		Name:     "count",
		Interval: 20 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestScheduler_AddJob(t *testing.T) {
	s := NewScheduler()
	noop := func(ctx context.Context) error { return nil }

	assert.Error(t, s.AddJob(Job{Name: "bad", Fn: noop}))
	require.NoError(t, s.AddJob(Job{Name: "ok", Interval: time.Hour, Fn: noop}))

	s.Start()
	defer s.Stop()
	assert.ErrorIs(t, s.AddJob(Job{Name: "late", Interval: time.Hour, Fn: noop}), ErrSchedulerStarted)
}

func TestScheduler_RunOnceContinuesAfterFailure(t *testing.T) {
	s := NewScheduler()
	var order []string
	require.NoError(t, s.AddJob(Job{Name: "fails", Interval: time.Hour, Fn: func(ctx context.Context) error {
		order = append(order, "fails")
		return errors.New("boom")
	}}))
	require.NoError(t, s.AddJob(Job{Name: "after", Interval: time.Hour, Fn: func(ctx context.Context) error {
		order = append(order, "after")
		return nil
	}}))

	s.RunOnce(context.Background())
	assert.Equal(t, []string{"fails", "after"}, order)
}

type countingFlagger struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (c *countingFlagger) FlagStaleBreaks(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	return c.n, c.err
}

func TestBreakJobs(t *testing.T) {
	flagger := &countingFlagger{n: 2}
	jobs := NewBreakJobs(flagger, 0)
	assert.Equal(t, 15*time.Minute, jobs.interval)

	s := NewScheduler()
	require.NoError(t, jobs.RegisterJobs(s))
	s.RunOnce(context.Background())
	assert.Equal(t, int32(1), flagger.calls.Load())

	flagger.err = errors.New("db down")
	assert.Error(t, jobs.FlagStaleBreaks(context.Background()))
}
