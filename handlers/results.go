// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-vote/election"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

type ResultsHandler struct {
	svc *election.Service
}

func NewResultsHandler(svc *election.Service) *ResultsHandler {
	return &ResultsHandler{svc: svc}
}

// GetElection handles GET /election
// Returns the cached phase and countdown, but NOT results (results are sealed until closed)
func (h *ResultsHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.svc.Snapshot()
	if !ok {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Election state not yet available")
		return
	}

	resp := models.ElectionResponse{Snapshot: Seal(snap)}
	if snap.Phase == models.PhaseOpen {
		resp.ClosesIn = humanize.RelTime(snap.Deadline, h.svc.Clock().Now(), "ago", "from now")
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetCandidates handles GET /candidates
// Vote counts are zeroed until the election closes
func (h *ResultsHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.svc.Snapshot()
	if !ok {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Election state not yet available")
		return
	}

	candidates, err := h.svc.Candidates(r.Context())
	if err != nil {
		slog.Error("failed to read candidates", "error", err)
		ledgerError(w, err)
		return
	}

	if snap.Phase != models.PhaseClosed {
		for i := range candidates {
			candidates[i].VoteCount = 0
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.CandidatesResponse{
		Phase:      snap.Phase,
		Candidates: candidates,
	})
}

// GetResults handles GET /results
// Only available once the election has closed
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.svc.Snapshot()
	if !ok || snap.Phase != models.PhaseClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are only available after the election closes")
		return
	}

	tally, ok := h.svc.Tally()
	if !ok || tally.Provisional {
		var err error
		tally, err = h.svc.ComputeTally(r.Context())
		if err != nil {
			slog.Error("failed to compute tally", "error", err)
			ledgerError(w, err)
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, tally)
}

// Seal drops the tally from a snapshot that has not closed
func Seal(s models.Snapshot) models.Snapshot {
	if s.Phase != models.PhaseClosed {
		s.Tally = nil
	}
	return s
}

// ledgerError answers a failed ledger read
func ledgerError(w http.ResponseWriter, err error) {
	if ledger.IsTransient(err) {
		w.Header().Set("Retry-After", "1")
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Ledger unreachable")
		return
	}
	middleware.ErrorResponse(w, http.StatusBadGateway, "Ledger error")
}
