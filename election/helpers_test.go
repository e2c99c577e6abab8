// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
)

// openElection creates a memory ledger with the given candidates, open for
// the given duration, and a refreshed service on a fake clock
func openElection(t *testing.T, duration time.Duration, candidates ...string) (*Service, *ledger.Memory, clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	mem := ledger.NewMemory(clock, candidates...)
	mem.Open(clock.Now().Add(duration))

	svc := NewService(mem, clock, DefaultConfig())
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Failed to refresh: %v", err)
	}
	return svc, mem, clock
}

// waitFor reads snapshots until match returns true
func waitFor(t *testing.T, ch <-chan models.Snapshot, match func(models.Snapshot) bool) models.Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				t.Fatal("Subscription closed while waiting")
			}
			if match(s) {
				return s
			}
		case <-timeout:
			t.Fatal("Timed out waiting for snapshot")
		}
	}
}

// pointReader hides the memory ledger's consistent reads so the aggregator
// falls back to per-candidate reads
type pointReader struct {
	m *ledger.Memory
}

func (p pointReader) CandidateCount(ctx context.Context) (int, error) {
	return p.m.CandidateCount(ctx)
}

func (p pointReader) CandidateAt(ctx context.Context, id int) (models.Candidate, error) {
	return p.m.CandidateAt(ctx, id)
}

func (p pointReader) CastVote(ctx context.Context, candidateID int, voter string) error {
	return p.m.CastVote(ctx, candidateID, voter)
}

func (p pointReader) PhaseInfo(ctx context.Context) (models.PhaseInfo, error) {
	return p.m.PhaseInfo(ctx)
}
