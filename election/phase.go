// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"errors"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
)

// ErrMalformedPhaseInfo is returned when the ledger reports a started
// election with no deadline
var ErrMalformedPhaseInfo = errors.New("election started without a deadline")

// DerivePhase computes the phase and remaining seconds from a ledger read.
// Remaining time is rounded up so an open election never reports zero.
func DerivePhase(now time.Time, info models.PhaseInfo) (models.Phase, int64, error) {
	if !info.Deadline.IsZero() && !now.Before(info.Deadline) {
		return models.PhaseClosed, 0, nil
	}
	if !info.Started {
		return models.PhasePending, 0, nil
	}
	if info.Deadline.IsZero() {
		return models.PhasePending, 0, ErrMalformedPhaseInfo
	}

	left := info.Deadline.Sub(now)
	secs := int64(left / time.Second)
	if left%time.Second != 0 {
		secs++
	}
	return models.PhaseOpen, secs, nil
}

// at re-derives a snapshot for the given instant without a ledger read.
// A closed snapshot stays closed.
func at(s models.Snapshot, now time.Time) models.Snapshot {
	if s.Phase == models.PhaseClosed {
		s.RemainingSeconds = 0
		return s
	}
	phase, remaining, err := DerivePhase(now, models.PhaseInfo{Started: s.Started, Deadline: s.Deadline})
	if err != nil {
		return s
	}
	s.Phase = phase
	s.RemainingSeconds = remaining
	return s
}
