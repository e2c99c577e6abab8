// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
)

// Tracker derives the election phase from ledger reads and caches it as an
// immutable snapshot. Readers never block and never see a partial update.
type Tracker struct {
	ledger ledger.Ledger
	clock  clockwork.Clock
	snap   atomic.Pointer[models.Snapshot]
}

func NewTracker(l ledger.Ledger, clock clockwork.Clock) *Tracker {
	return &Tracker{ledger: l, clock: clock}
}

// Snapshot returns the last stored snapshot as-is
func (t *Tracker) Snapshot() (models.Snapshot, bool) {
	p := t.snap.Load()
	if p == nil {
		return models.Snapshot{}, false
	}
	return *p, true
}

// Current returns the stored snapshot re-evaluated at the current time.
// An open snapshot whose deadline has passed reports closed.
func (t *Tracker) Current() (models.Snapshot, bool) {
	s, ok := t.Snapshot()
	if !ok {
		return s, false
	}
	return at(s, t.clock.Now()), true
}

// Closed reports whether the stored snapshot has reached the terminal phase
func (t *Tracker) Closed() bool {
	s, ok := t.Snapshot()
	return ok && s.Phase == models.PhaseClosed
}

// Refresh reads the ledger and replaces the snapshot. On a failed read the
// previous snapshot is kept, marked degraded, and the error is returned.
func (t *Tracker) Refresh(ctx context.Context) (models.Snapshot, error) {
	fresh, err := t.read(ctx)

	// A read cut short by cancellation says nothing about the ledger
	if err != nil && ctx.Err() != nil {
		if s, ok := t.Current(); ok {
			return s, err
		}
		return models.Snapshot{Phase: models.PhasePending}, err
	}

	for {
		prev := t.snap.Load()
		var next models.Snapshot

		if err != nil {
			if prev != nil {
				next = at(*prev, t.clock.Now())
			} else {
				next = models.Snapshot{Phase: models.PhasePending}
			}
			next.Degraded = true
			next.Error = err.Error()
		} else {
			next = fresh
			if prev != nil {
				// A concurrent refresh already stored a later read
				if prev.ObservedAt.After(fresh.ObservedAt) {
					return *prev, nil
				}
				if prev.Phase == models.PhaseClosed {
					next.Phase = models.PhaseClosed
					next.RemainingSeconds = 0
				}
				next.Tally = prev.Tally
			}
		}

		if t.snap.CompareAndSwap(prev, &next) {
			return next, err
		}
	}
}

func (t *Tracker) read(ctx context.Context) (models.Snapshot, error) {
	info, err := t.ledger.PhaseInfo(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read phase info: %w", err)
	}
	count, err := t.ledger.CandidateCount(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read candidate count: %w", err)
	}

	now := t.clock.Now()
	phase, remaining, err := DerivePhase(now, info)
	if err != nil {
		return models.Snapshot{}, err
	}

	return models.Snapshot{
		Phase:            phase,
		RemainingSeconds: remaining,
		Started:          info.Started,
		Deadline:         info.Deadline,
		CandidateCount:   count,
		ObservedAt:       now,
	}, nil
}

// attachTally stores a copy of the current snapshot carrying tally
func (t *Tracker) attachTally(tally models.Tally) {
	for {
		prev := t.snap.Load()
		if prev == nil {
			return
		}
		if !supersedes(prev.Tally, tally) {
			return
		}
		next := *prev
		next.Tally = &tally
		if t.snap.CompareAndSwap(prev, &next) {
			return
		}
	}
}
