// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
)

func TestTrackerRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := ledger.NewMemory(clock, "A", "B", "C")
	tracker := NewTracker(mem, clock)
	ctx := context.Background()

	if _, ok := tracker.Snapshot(); ok {
		t.Fatal("Expected no snapshot before first refresh")
	}

	snap, err := tracker.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Phase != models.PhasePending || snap.RemainingSeconds != 0 {
		t.Errorf("Expected pending/0, got %s/%d", snap.Phase, snap.RemainingSeconds)
	}

	mem.Open(clock.Now().Add(60 * time.Second))
	snap, err = tracker.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Phase != models.PhaseOpen {
		t.Errorf("Expected open, got %s", snap.Phase)
	}
	if snap.RemainingSeconds != 60 {
		t.Errorf("Expected 60 seconds remaining, got %d", snap.RemainingSeconds)
	}
	if snap.CandidateCount != 3 {
		t.Errorf("Expected 3 candidates, got %d", snap.CandidateCount)
	}
}

func TestTrackerCurrentReevaluatesTime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := ledger.NewMemory(clock, "A")
	mem.Open(clock.Now().Add(10 * time.Second))
	tracker := NewTracker(mem, clock)

	if _, err := tracker.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	clock.Advance(4 * time.Second)
	snap, _ := tracker.Current()
	if snap.Phase != models.PhaseOpen || snap.RemainingSeconds != 6 {
		t.Errorf("Expected open/6, got %s/%d", snap.Phase, snap.RemainingSeconds)
	}

	clock.Advance(6 * time.Second)
	snap, _ = tracker.Current()
	if snap.Phase != models.PhaseClosed || snap.RemainingSeconds != 0 {
		t.Errorf("Expected closed/0 once the deadline passes, got %s/%d", snap.Phase, snap.RemainingSeconds)
	}
	if tracker.Closed() {
		t.Error("Stored snapshot should stay open until the ledger is read again")
	}
}

func TestTrackerDegradedKeepsPreviousSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := ledger.NewMemory(clock, "A", "B")
	mem.Open(clock.Now().Add(30 * time.Second))
	tracker := NewTracker(mem, clock)
	ctx := context.Background()

	good, err := tracker.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}

	mem.FailNext(ledger.OpPhaseInfo, ledger.Connectivity(ledger.OpPhaseInfo, errors.New("connection reset")))
	clock.Advance(5 * time.Second)

	snap, err := tracker.Refresh(ctx)
	if !errors.Is(err, ledger.ErrConnectivity) {
		t.Fatalf("Expected connectivity error, got %v", err)
	}
	if !snap.Degraded || snap.Error == "" {
		t.Error("Expected degraded snapshot with error text")
	}
	if snap.Phase != models.PhaseOpen || snap.CandidateCount != good.CandidateCount {
		t.Errorf("Expected previous snapshot retained, got %+v", snap)
	}
	if snap.RemainingSeconds != 25 {
		t.Errorf("Expected remaining time re-derived to 25, got %d", snap.RemainingSeconds)
	}

	snap, err = tracker.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Degraded {
		t.Error("Expected degraded flag cleared after a good read")
	}
}

func TestTrackerDegradedBeforeFirstRead(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := ledger.NewMemory(clock, "A")
	mem.FailNext(ledger.OpPhaseInfo, ledger.Connectivity(ledger.OpPhaseInfo, errors.New("no route to host")))
	tracker := NewTracker(mem, clock)

	snap, err := tracker.Refresh(context.Background())
	if err == nil {
		t.Fatal("Expected error")
	}
	if !snap.Degraded || snap.Phase != models.PhasePending {
		t.Errorf("Expected degraded pending snapshot, got %+v", snap)
	}
}

func TestTrackerClosedIsSticky(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := ledger.NewMemory(clock, "A")
	mem.Open(clock.Now().Add(time.Second))
	tracker := NewTracker(mem, clock)
	ctx := context.Background()

	clock.Advance(time.Second)
	if _, err := tracker.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if !tracker.Closed() {
		t.Fatal("Expected closed")
	}

	// A ledger that moves its deadline must not reopen the election
	mem.Open(clock.Now().Add(time.Hour))
	snap, err := tracker.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Phase != models.PhaseClosed || snap.RemainingSeconds != 0 {
		t.Errorf("Expected closed to stay closed, got %s/%d", snap.Phase, snap.RemainingSeconds)
	}
}

// TestTrackerConcurrentRefresh runs refreshes and reads together; run with
// -race to check that snapshots are never torn
func TestTrackerConcurrentRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := ledger.NewMemory(clock, "A", "B", "C")
	mem.Open(clock.Now().Add(time.Minute))
	tracker := NewTracker(mem, clock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tracker.Refresh(context.Background())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if s, ok := tracker.Snapshot(); ok && s.CandidateCount != 3 {
					t.Errorf("Torn snapshot: %+v", s)
				}
			}
		}()
	}
	wg.Wait()
}

func TestTrackerRefreshCanceled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := ledger.NewMemory(clock, "A")
	mem.Open(clock.Now().Add(time.Minute))
	tracker := NewTracker(mem, clock)

	if _, err := tracker.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mem.FailNext(ledger.OpPhaseInfo, ledger.Connectivity(ledger.OpPhaseInfo, context.Canceled))

	snap, err := tracker.Refresh(ctx)
	if err == nil {
		t.Fatal("Expected error from canceled refresh")
	}
	if snap.Degraded {
		t.Error("Expected canceled refresh not to degrade the returned snapshot")
	}
	if stored, _ := tracker.Snapshot(); stored.Degraded || stored.Error != "" {
		t.Errorf("Expected stored snapshot untouched, got %+v", stored)
	}
}
