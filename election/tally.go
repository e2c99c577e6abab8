// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
)

// ErrInconsistentTally is returned when repeated reads of a ledger without
// snapshot reads never agree
var ErrInconsistentTally = errors.New("candidate counts changed during tally")

const maxTallyPasses = 3

// Aggregator materializes per-candidate counts from the ledger
type Aggregator struct {
	ledger  ledger.Ledger
	clock   clockwork.Clock
	tracker *Tracker
	cache   atomic.Pointer[models.Tally]
}

func NewAggregator(l ledger.Ledger, clock clockwork.Clock, tracker *Tracker) *Aggregator {
	return &Aggregator{ledger: l, clock: clock, tracker: tracker}
}

// ComputeTally reads every candidate from one consistent ledger view and
// returns them ordered by candidate id. The result is provisional unless the
// election was already closed when the read began. If a concurrent call
// already cached a tally that supersedes this one, that tally is returned.
func (a *Aggregator) ComputeTally(ctx context.Context) (models.Tally, error) {
	started := a.clock.Now()
	closed := false
	if s, ok := a.tracker.Current(); ok && s.Phase == models.PhaseClosed {
		closed = true
	}

	candidates, err := a.Candidates(ctx)
	if err != nil {
		return models.Tally{}, err
	}

	tally := models.Tally{
		Entries:     make([]models.TallyEntry, 0, len(candidates)),
		Provisional: !closed,
		ComputedAt:  started,
	}
	for _, c := range candidates {
		tally.Entries = append(tally.Entries, models.TallyEntry{
			CandidateID: c.ID,
			Name:        c.Name,
			VoteCount:   c.VoteCount,
		})
		tally.Total += c.VoteCount
	}

	tally = a.store(tally)
	a.tracker.attachTally(tally)
	return tally, nil
}

// store caches tally unless the cached one supersedes it, and returns
// whichever tally ends up cached
func (a *Aggregator) store(tally models.Tally) models.Tally {
	for {
		prev := a.cache.Load()
		if !supersedes(prev, tally) {
			return *prev
		}
		if a.cache.CompareAndSwap(prev, &tally) {
			return tally
		}
	}
}

// supersedes reports whether next may replace prev. A final tally is never
// replaced by a provisional one, and a read that began earlier never
// replaces one that began later.
func supersedes(prev *models.Tally, next models.Tally) bool {
	if prev == nil {
		return true
	}
	if !prev.Provisional && next.Provisional {
		return false
	}
	if prev.Provisional && !next.Provisional {
		return true
	}
	return !next.ComputedAt.Before(prev.ComputedAt)
}

// Cached returns the last computed tally
func (a *Aggregator) Cached() (models.Tally, bool) {
	p := a.cache.Load()
	if p == nil {
		return models.Tally{}, false
	}
	return *p, true
}

// Candidates returns all candidates sorted by id from one ledger view
func (a *Aggregator) Candidates(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate
	var err error

	if r, ok := a.ledger.(ledger.ConsistentReader); ok {
		candidates, err = r.Candidates(ctx)
	} else {
		candidates, err = a.readUntilStable(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})
	return candidates, nil
}

// readUntilStable reads all candidates one by one until two consecutive
// passes agree
func (a *Aggregator) readUntilStable(ctx context.Context) ([]models.Candidate, error) {
	var prev []models.Candidate
	for pass := 0; pass < maxTallyPasses; pass++ {
		current, err := a.readPass(ctx)
		if err != nil {
			return nil, err
		}
		if prev != nil && slices.Equal(prev, current) {
			return current, nil
		}
		prev = current
	}
	return nil, ErrInconsistentTally
}

func (a *Aggregator) readPass(ctx context.Context) ([]models.Candidate, error) {
	count, err := a.ledger.CandidateCount(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Candidate, 0, count)
	for id := 1; id <= count; id++ {
		c, err := a.ledger.CandidateAt(ctx, id)
		if err != nil {
			return nil, err
		}
		c.ID = id
		out = append(out, c)
	}
	return out, nil
}
