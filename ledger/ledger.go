// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
)

var (
	// ErrConnectivity marks a transient failure reaching the ledger
	ErrConnectivity = errors.New("ledger unreachable")
	// ErrRejected marks a refusal by the ledger itself
	ErrRejected = errors.New("ledger rejected request")
	// ErrDuplicateVote is the ledger refusing a second vote from the same voter
	ErrDuplicateVote = fmt.Errorf("%w: voter has already voted", ErrRejected)
)

// Ledger is the authoritative store of candidates and votes.
// Implementations perform no retries.
type Ledger interface {
	CandidateCount(ctx context.Context) (int, error)
	CandidateAt(ctx context.Context, id int) (models.Candidate, error)
	CastVote(ctx context.Context, candidateID int, voter string) error
	PhaseInfo(ctx context.Context) (models.PhaseInfo, error)
}

// ConsistentReader is implemented by ledgers that can return every
// candidate as of a single ledger height.
type ConsistentReader interface {
	Candidates(ctx context.Context) ([]models.Candidate, error)
}

// Administrator is implemented by ledgers that allow election setup
type Administrator interface {
	AddCandidate(ctx context.Context, name string) (int, error)
	StartElection(ctx context.Context, duration time.Duration) (models.PhaseInfo, error)
}

// Connectivity wraps err as a transient failure
func Connectivity(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrConnectivity, err)
}

// Rejected wraps reason as a ledger refusal
func Rejected(op string, reason string) error {
	return fmt.Errorf("%s: %w: %s", op, ErrRejected, reason)
}

// IsTransient reports whether err is safe to retry
func IsTransient(err error) bool {
	return errors.Is(err, ErrConnectivity) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
