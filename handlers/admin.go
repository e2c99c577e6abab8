// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/election"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

// maxCandidateNameLen bounds candidate names
const maxCandidateNameLen = 100

type AdminHandler struct {
	svc        *election.Service
	admin      ledger.Administrator
	electionID string
	cfg        cliparse.Config
}

func NewAdminHandler(svc *election.Service, admin ledger.Administrator, electionID string, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{svc: svc, admin: admin, electionID: electionID, cfg: cfg}
}

// checkAdmin writes an error and returns false if the admin key is wrong
func (h *AdminHandler) checkAdmin(w http.ResponseWriter, r *http.Request) bool {
	adminKey := r.Header.Get("X-Admin-Key")
	if adminKey == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Admin-Key header required")
		return false
	}
	if err := auth.ValidateAdminKey(h.electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusForbidden, "Invalid admin key")
		return false
	}
	return true
}

// AddCandidate handles POST /admin/candidates
func (h *AdminHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	if !h.checkAdmin(w, r) {
		return
	}

	// Parse request
	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Name) > maxCandidateNameLen {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be at most 100 characters")
		return
	}

	// Can only add candidates before voting starts
	if snap, ok := h.svc.Snapshot(); ok && snap.Phase != models.PhasePending {
		middleware.ErrorResponse(w, http.StatusConflict, "Election has already started")
		return
	}

	id, err := h.admin.AddCandidate(r.Context(), req.Name)
	if err != nil {
		slog.Error("failed to add candidate", "error", err, "name", req.Name)
		adminError(w, err)
		return
	}

	h.refresh(r)
	slog.Info("candidate added", "candidate_id", id, "name", req.Name)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCandidateResponse{
		CandidateID: id,
	})
}

// StartElection handles POST /admin/start
func (h *AdminHandler) StartElection(w http.ResponseWriter, r *http.Request) {
	if !h.checkAdmin(w, r) {
		return
	}

	// Parse request
	var req models.StartElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.DurationSeconds <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "duration_seconds must be positive")
		return
	}

	info, err := h.admin.StartElection(r.Context(), time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		slog.Error("failed to start election", "error", err)
		adminError(w, err)
		return
	}

	h.refresh(r)
	slog.Info("election started", "deadline", info.Deadline)

	middleware.JSONResponse(w, http.StatusOK, models.StartElectionResponse{
		Deadline: info.Deadline,
	})
}

// refresh pulls the change into the cached snapshot without waiting for
// the next poll. A failure leaves the loop to catch up.
func (h *AdminHandler) refresh(r *http.Request) {
	if _, err := h.svc.Refresh(r.Context()); err != nil {
		slog.Warn("refresh after admin change failed", "error", err)
	}
}

func adminError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsTransient(err):
		w.Header().Set("Retry-After", "1")
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Ledger unreachable")
	case errors.Is(err, ledger.ErrRejected):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	default:
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ledger error")
	}
}
