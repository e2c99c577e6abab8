// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/election"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

type VotingHandler struct {
	svc *election.Service
}

func NewVotingHandler(svc *election.Service) *VotingHandler {
	return &VotingHandler{svc: svc}
}

var outcomeStatus = map[models.Outcome]int{
	models.OutcomeAccepted:          http.StatusCreated,
	models.OutcomeDuplicateVote:     http.StatusConflict,
	models.OutcomeElectionNotOpen:   http.StatusConflict,
	models.OutcomeInvalidCandidate:  http.StatusBadRequest,
	models.OutcomeLedgerRejected:    http.StatusUnprocessableEntity,
	models.OutcomeConnectivityError: http.StatusServiceUnavailable,
}

var outcomeMessage = map[models.Outcome]string{
	models.OutcomeAccepted:          "Vote recorded",
	models.OutcomeDuplicateVote:     "You have already voted",
	models.OutcomeElectionNotOpen:   "Election is not open for voting",
	models.OutcomeInvalidCandidate:  "Candidate does not exist",
	models.OutcomeLedgerRejected:    "Ledger rejected the vote",
	models.OutcomeConnectivityError: "Ledger unreachable; the same vote may be retried",
}

// SubmitVote handles POST /votes
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	// Validate voter token
	voterToken := r.Header.Get("X-Voter-Token")
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return
	}
	if err := auth.ValidateVoterToken(voterToken); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token")
		return
	}

	// Parse request
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	attempt := h.svc.SubmitVote(r.Context(), req.CandidateID, voterToken)

	status := outcomeStatus[attempt.Outcome]
	if status == 0 {
		slog.Error("unmapped vote outcome", "outcome", attempt.Outcome)
		status = http.StatusInternalServerError
	}
	if attempt.Outcome.Retryable() {
		w.Header().Set("Retry-After", "1")
	}

	middleware.JSONResponse(w, status, models.SubmitVoteResponse{
		Outcome:   attempt.Outcome,
		Message:   outcomeMessage[attempt.Outcome],
		Retryable: attempt.Outcome.Retryable(),
	})
}
