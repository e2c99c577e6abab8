// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/metrics"
	"github.com/danielhkuo/quickly-vote/models"
)

var (
	ErrElectionNotOpen  = errors.New("election is not open for voting")
	ErrInvalidCandidate = errors.New("candidate does not exist")
)

// Attempt is the result of a single Submit call
type Attempt struct {
	CandidateID int
	Phase       models.Phase
	Outcome     models.Outcome
	Err         error
}

// Coordinator validates vote submissions against the cached snapshot and
// forwards them to the ledger
type Coordinator struct {
	ledger     ledger.Ledger
	tracker    *Tracker
	timeout    time.Duration
	onAccepted func(ctx context.Context)
}

func NewCoordinator(l ledger.Ledger, tracker *Tracker, timeout time.Duration) *Coordinator {
	return &Coordinator{ledger: l, tracker: tracker, timeout: timeout}
}

// OnAccepted registers fn to run after every accepted vote, before Submit
// returns
func (c *Coordinator) OnAccepted(fn func(ctx context.Context)) {
	c.onAccepted = fn
}

// Submit casts one vote. It always resolves to exactly one outcome. Once the
// vote is sent to the ledger, cancelling ctx does not abandon it.
func (c *Coordinator) Submit(ctx context.Context, candidateID int, voter string) Attempt {
	snap, ok := c.tracker.Current()
	attempt := Attempt{CandidateID: candidateID, Phase: snap.Phase}

	switch {
	case !ok || snap.Phase != models.PhaseOpen:
		attempt.Outcome = models.OutcomeElectionNotOpen
		attempt.Err = ErrElectionNotOpen
	case candidateID < 1 || candidateID > snap.CandidateCount:
		attempt.Outcome = models.OutcomeInvalidCandidate
		attempt.Err = fmt.Errorf("%w: %d", ErrInvalidCandidate, candidateID)
	default:
		c.cast(ctx, &attempt, voter)
	}

	metrics.ObserveOutcome(attempt.Outcome)
	if attempt.Err != nil {
		slog.Warn("vote not accepted",
			"candidate_id", candidateID,
			"outcome", attempt.Outcome.String(),
			"error", attempt.Err,
		)
	} else {
		slog.Info("vote accepted", "candidate_id", candidateID)
	}
	return attempt
}

func (c *Coordinator) cast(ctx context.Context, attempt *Attempt, voter string) {
	callCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, c.timeout)
		defer cancel()
	}

	err := c.ledger.CastVote(callCtx, attempt.CandidateID, voter)
	attempt.Outcome = Classify(err)
	attempt.Err = err

	if attempt.Outcome == models.OutcomeAccepted && c.onAccepted != nil {
		c.onAccepted(context.WithoutCancel(ctx))
	}
}

// Classify maps a CastVote error to a submission outcome
func Classify(err error) models.Outcome {
	switch {
	case err == nil:
		return models.OutcomeAccepted
	case errors.Is(err, ledger.ErrDuplicateVote):
		return models.OutcomeDuplicateVote
	case ledger.IsTransient(err):
		return models.OutcomeConnectivityError
	default:
		return models.OutcomeLedgerRejected
	}
}
