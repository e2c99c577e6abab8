// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/metrics"
	"github.com/danielhkuo/quickly-vote/models"
)

// ErrLoopStarted is returned when Start is called twice or after Stop
var ErrLoopStarted = errors.New("sync loop already started")

// LoopState is the lifecycle of the sync loop
type LoopState int

const (
	LoopIdle LoopState = iota
	LoopPolling
	LoopStopped
)

func (s LoopState) String() string {
	switch s {
	case LoopIdle:
		return "idle"
	case LoopPolling:
		return "polling"
	default:
		return "stopped"
	}
}

type LoopConfig struct {
	// Interval between polls while healthy
	Interval time.Duration
	// MaxInterval caps the widened interval after repeated failures
	MaxInterval time.Duration
	// BackoffAfter is the number of consecutive failures before the
	// interval widens
	BackoffAfter int
	// RefreshClosedTally re-reads the tally on every tick once closed
	RefreshClosedTally bool
	// ProvisionalTally attaches a provisional tally to open snapshots
	ProvisionalTally bool
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Interval:     time.Second,
		MaxInterval:  30 * time.Second,
		BackoffAfter: 3,
	}
}

// Loop polls the tracker on a fixed interval and publishes snapshots
type Loop struct {
	tracker    *Tracker
	aggregator *Aggregator
	hub        *Hub
	clock      clockwork.Clock
	cfg        LoopConfig

	mu     sync.Mutex
	state  LoopState
	cancel context.CancelFunc
	done   chan struct{}

	// owned by the tick goroutine
	failures       int
	backoff        *backoff.ExponentialBackOff
	finalPublished bool
}

func NewLoop(tracker *Tracker, aggregator *Aggregator, hub *Hub, clock clockwork.Clock, cfg LoopConfig) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxInterval < cfg.Interval {
		cfg.MaxInterval = cfg.Interval
	}
	if cfg.BackoffAfter <= 0 {
		cfg.BackoffAfter = 3
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * cfg.Interval
	b.MaxInterval = cfg.MaxInterval
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	b.Reset()

	return &Loop{
		tracker:    tracker,
		aggregator: aggregator,
		hub:        hub,
		clock:      clock,
		cfg:        cfg,
		backoff:    b,
	}
}

// State returns the current lifecycle state
func (l *Loop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start refreshes immediately and then on every interval until Stop
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != LoopIdle {
		return ErrLoopStarted
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	l.state = LoopPolling

	go l.run(ctx)
	return nil
}

// Stop cancels the pending tick and waits for the loop to exit. No snapshot
// is published after Stop returns. Safe to call from any goroutine.
func (l *Loop) Stop() {
	l.mu.Lock()
	prev := l.state
	l.state = LoopStopped
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if prev == LoopPolling {
		cancel()
		<-done
	}
	l.hub.Close()
}

// Publish sends s to subscribers unless the loop is stopped
func (l *Loop) Publish(s models.Snapshot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == LoopStopped {
		return false
	}
	metrics.ObserveSnapshot(s)
	l.hub.Publish(s)
	return true
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	wait := l.tick(ctx)
	for {
		timer := l.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
		wait = l.tick(ctx)
	}
}

// tick performs one poll and returns how long to wait for the next one
func (l *Loop) tick(ctx context.Context) time.Duration {
	if l.tracker.Closed() && l.finalPublished && !l.cfg.RefreshClosedTally {
		return l.cfg.Interval
	}

	var snap models.Snapshot
	var err error
	if l.tracker.Closed() {
		snap, _ = l.tracker.Current()
	} else {
		snap, err = l.tracker.Refresh(ctx)
	}

	if err == nil {
		switch {
		case snap.Phase == models.PhaseClosed:
			if _, err = l.aggregator.ComputeTally(ctx); err == nil {
				if !l.finalPublished {
					slog.Info("election closed, final tally computed")
				}
				l.finalPublished = true
			}
		case snap.Phase == models.PhaseOpen && l.cfg.ProvisionalTally:
			_, err = l.aggregator.ComputeTally(ctx)
		}
		if err == nil {
			snap, _ = l.tracker.Current()
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			return l.cfg.Interval
		}
		l.failures++
		metrics.PollFailures.Inc()
		slog.Warn("election poll failed", "error", err, "consecutive_failures", l.failures)
		snap.Degraded = true
		snap.Error = err.Error()
		l.Publish(snap)
		return l.nextWait()
	}

	if l.failures > 0 {
		slog.Info("election poll recovered", "after_failures", l.failures)
	}
	l.failures = 0
	l.backoff.Reset()
	l.Publish(snap)
	return l.cfg.Interval
}

func (l *Loop) nextWait() time.Duration {
	if l.failures < l.cfg.BackoffAfter {
		return l.cfg.Interval
	}
	next := l.backoff.NextBackOff()
	if next == backoff.Stop || next > l.cfg.MaxInterval {
		return l.cfg.MaxInterval
	}
	return next
}
