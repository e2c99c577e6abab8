// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/election"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/testutil"
)

func TestGetElection(t *testing.T) {
	e := newTestElection(t, "Alice", "Bob")
	handler := NewResultsHandler(e.svc)

	get := func(t *testing.T) models.ElectionResponse {
		t.Helper()
		w := httptest.NewRecorder()
		handler.GetElection(w, testutil.MakeRequest("GET", "/election", nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ElectionResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	t.Run("pending", func(t *testing.T) {
		resp := get(t)
		if resp.Phase != models.PhasePending {
			t.Errorf("Expected phase pending, got %s", resp.Phase)
		}
		if resp.CandidateCount != 2 {
			t.Errorf("Expected 2 candidates, got %d", resp.CandidateCount)
		}
		if resp.ClosesIn != "" {
			t.Errorf("Expected no closes_in while pending, got %q", resp.ClosesIn)
		}
	})

	t.Run("open", func(t *testing.T) {
		e.start(t, 10*time.Minute)
		e.clock.Advance(90 * time.Second)

		resp := get(t)
		if resp.Phase != models.PhaseOpen {
			t.Errorf("Expected phase open, got %s", resp.Phase)
		}
		if resp.RemainingSeconds != 510 {
			t.Errorf("Expected 510 remaining seconds, got %d", resp.RemainingSeconds)
		}
		if !strings.HasSuffix(resp.ClosesIn, "from now") {
			t.Errorf("Expected humanized closes_in, got %q", resp.ClosesIn)
		}
		if resp.Tally != nil {
			t.Error("Expected tally to be sealed while open")
		}
	})

	t.Run("closed", func(t *testing.T) {
		e.clock.Advance(10 * time.Minute)

		resp := get(t)
		if resp.Phase != models.PhaseClosed {
			t.Errorf("Expected phase closed, got %s", resp.Phase)
		}
		if resp.RemainingSeconds != 0 {
			t.Errorf("Expected 0 remaining seconds, got %d", resp.RemainingSeconds)
		}
	})
}

func TestGetElectionBeforeFirstRead(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testutil.Epoch)
	svc := election.NewService(ledger.NewMemory(clock, "Alice"), clock, election.DefaultConfig())
	defer svc.Stop()

	handler := NewResultsHandler(svc)
	w := httptest.NewRecorder()
	handler.GetElection(w, testutil.MakeRequest("GET", "/election", nil, nil))

	testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
}

func TestGetCandidates(t *testing.T) {
	e := newTestElection(t, "Alice", "Bob")
	handler := NewResultsHandler(e.svc)
	e.start(t, time.Minute)

	e.vote(t, 2, testutil.VoterToken(1))
	e.vote(t, 2, testutil.VoterToken(2))

	get := func(t *testing.T) models.CandidatesResponse {
		t.Helper()
		w := httptest.NewRecorder()
		handler.GetCandidates(w, testutil.MakeRequest("GET", "/candidates", nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.CandidatesResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	// Names visible, counts hidden while open
	resp := get(t)
	if len(resp.Candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(resp.Candidates))
	}
	if resp.Candidates[0].Name != "Alice" || resp.Candidates[1].Name != "Bob" {
		t.Errorf("Unexpected candidates: %+v", resp.Candidates)
	}
	for _, c := range resp.Candidates {
		if c.VoteCount != 0 {
			t.Errorf("Expected sealed count for %s, got %d", c.Name, c.VoteCount)
		}
	}

	// Counts revealed once closed
	e.clock.Advance(time.Minute)
	resp = get(t)
	if resp.Phase != models.PhaseClosed {
		t.Errorf("Expected phase closed, got %s", resp.Phase)
	}
	if resp.Candidates[1].VoteCount != 2 {
		t.Errorf("Expected Bob to have 2 votes, got %d", resp.Candidates[1].VoteCount)
	}
}

func TestGetResults(t *testing.T) {
	e := newTestElection(t, "Alice", "Bob", "Carol")
	handler := NewResultsHandler(e.svc)

	getResults := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.GetResults(w, testutil.MakeRequest("GET", "/results", nil, nil))
		return w
	}

	// Sealed while pending
	testutil.AssertStatus(t, getResults(), http.StatusForbidden)

	e.start(t, time.Minute)
	for i, c := range []int{1, 3, 3, 2, 3} {
		testutil.AssertStatus(t, e.vote(t, c, testutil.VoterToken(i)), http.StatusCreated)
	}

	// Sealed while open
	testutil.AssertStatus(t, getResults(), http.StatusForbidden)

	e.clock.Advance(time.Minute)
	w := getResults()
	testutil.AssertStatus(t, w, http.StatusOK)

	var tally models.Tally
	testutil.AssertJSON(t, w, &tally)

	if tally.Provisional {
		t.Error("Expected a final tally")
	}
	if tally.Total != 5 {
		t.Errorf("Expected 5 total votes, got %d", tally.Total)
	}
	want := []uint64{1, 1, 3}
	for i, entry := range tally.Entries {
		if entry.CandidateID != i+1 {
			t.Errorf("Entry %d: expected candidate %d, got %d", i, i+1, entry.CandidateID)
		}
		if entry.VoteCount != want[i] {
			t.Errorf("Entry %d: expected %d votes, got %d", i, want[i], entry.VoteCount)
		}
	}
}

func TestSeal(t *testing.T) {
	tally := &models.Tally{Total: 3}

	tests := []struct {
		phase     models.Phase
		wantTally bool
	}{
		{models.PhasePending, false},
		{models.PhaseOpen, false},
		{models.PhaseClosed, true},
	}

	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			got := Seal(models.Snapshot{Phase: tt.phase, Tally: tally})
			if (got.Tally != nil) != tt.wantTally {
				t.Errorf("Seal() tally present = %v, want %v", got.Tally != nil, tt.wantTally)
			}
		})
	}
}
