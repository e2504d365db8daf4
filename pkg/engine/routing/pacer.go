package routing

import (
	"context"
	"time"
)

// TimerPacer sleeps for the requested delay or until ctx is done.
type TimerPacer struct{}

func NewTimerPacer() TimerPacer {
	return TimerPacer{}
}

func (TimerPacer) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoopPacer never waits, the whole search runs synchronously. cancellation is still honoured.
type NoopPacer struct{}

func NewNoopPacer() NoopPacer {
	return NoopPacer{}
}

func (NoopPacer) Pause(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// ManualPacer blocks every suspension point until Resume is called. the search announces
// each suspension on Paused().
type ManualPacer struct {
	paused chan time.Duration
	ticks  chan struct{}
}

func NewManualPacer() *ManualPacer {
	return &ManualPacer{
		paused: make(chan time.Duration),
		ticks:  make(chan struct{}),
	}
}

func (p *ManualPacer) Pause(ctx context.Context, d time.Duration) error {
	select {
	case p.paused <- d:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-p.ticks:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused receives the requested delay each time the search suspends.
func (p *ManualPacer) Paused() <-chan time.Duration {
	return p.paused
}

// Resume lets a suspended search continue. blocks until the search picks it up.
func (p *ManualPacer) Resume() {
	p.ticks <- struct{}{}
}
