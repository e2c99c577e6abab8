// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
)

type Config struct {
	Loop LoopConfig
	// SubmitTimeout bounds a single CastVote call; zero leaves it to the ledger
	SubmitTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{Loop: DefaultLoopConfig()}
}

// Service wires the tracker, coordinator, aggregator, and sync loop around
// one ledger
type Service struct {
	ledger      ledger.Ledger
	clock       clockwork.Clock
	tracker     *Tracker
	aggregator  *Aggregator
	coordinator *Coordinator
	hub         *Hub
	loop        *Loop
}

func NewService(l ledger.Ledger, clock clockwork.Clock, cfg Config) *Service {
	tracker := NewTracker(l, clock)
	aggregator := NewAggregator(l, clock, tracker)
	hub := NewHub()
	s := &Service{
		ledger:      l,
		clock:       clock,
		tracker:     tracker,
		aggregator:  aggregator,
		coordinator: NewCoordinator(l, tracker, cfg.SubmitTimeout),
		hub:         hub,
		loop:        NewLoop(tracker, aggregator, hub, clock, cfg.Loop),
	}
	s.coordinator.OnAccepted(s.afterAccept)
	return s
}

// afterAccept refreshes the cached view so reads reflect the new vote
// without waiting for the next poll
func (s *Service) afterAccept(ctx context.Context) {
	if _, err := s.tracker.Refresh(ctx); err != nil {
		slog.Warn("refresh after vote failed", "error", err)
	}
	if _, err := s.aggregator.ComputeTally(ctx); err != nil {
		slog.Warn("tally refresh after vote failed", "error", err)
	}
	if snap, ok := s.tracker.Current(); ok {
		s.loop.Publish(snap)
	}
}

func (s *Service) Start(ctx context.Context) error {
	return s.loop.Start(ctx)
}

func (s *Service) Stop() {
	s.loop.Stop()
}

// Run starts the sync loop and blocks until ctx is done, then stops it
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Refresh forces a tracker refresh outside the loop schedule and publishes
// the result to subscribers
func (s *Service) Refresh(ctx context.Context) (models.Snapshot, error) {
	snap, err := s.tracker.Refresh(ctx)
	if err != nil {
		return snap, err
	}
	s.loop.Publish(snap)
	return snap, nil
}

// Snapshot returns the cached view evaluated at the current time
func (s *Service) Snapshot() (models.Snapshot, bool) {
	return s.tracker.Current()
}

func (s *Service) SubmitVote(ctx context.Context, candidateID int, voter string) Attempt {
	return s.coordinator.Submit(ctx, candidateID, voter)
}

func (s *Service) ComputeTally(ctx context.Context) (models.Tally, error) {
	return s.aggregator.ComputeTally(ctx)
}

// Tally returns the cached tally
func (s *Service) Tally() (models.Tally, bool) {
	return s.aggregator.Cached()
}

func (s *Service) Candidates(ctx context.Context) ([]models.Candidate, error) {
	return s.aggregator.Candidates(ctx)
}

func (s *Service) Subscribe() (<-chan models.Snapshot, func()) {
	return s.hub.Subscribe()
}

// Ledger returns the underlying ledger
func (s *Service) Ledger() ledger.Ledger {
	return s.ledger
}

func (s *Service) Clock() clockwork.Clock {
	return s.clock
}
