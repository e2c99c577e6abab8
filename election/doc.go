// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election is the coordination core layered on top of a vote ledger.

# Components

  - Tracker: derives phase and remaining time from ledger reads and caches
    an immutable snapshot behind an atomic pointer
  - Coordinator: validates a vote against the cached snapshot, casts it on
    the ledger, and classifies the outcome
  - Aggregator: reads per-candidate counts from one consistent ledger view
  - Loop: polls the tracker on an interval and publishes snapshots
  - Hub: latest-wins fan-out of snapshots to subscribers
  - Service: wires all of the above around one ledger

# Phases

Phase is a pure function of (now, deadline, started):

	now >= deadline            closed (regardless of started)
	!started                   pending
	otherwise                  open, remaining = ceil(deadline - now)

Closed is terminal. Once the tracker stores a closed snapshot the loop stops
polling the ledger for phase.

# Submitting Votes

	attempt := svc.SubmitVote(ctx, candidateID, voter)
	switch attempt.Outcome {
	case models.OutcomeAccepted:
	case models.OutcomeDuplicateVote:
	}

ElectionNotOpen and InvalidCandidate are decided locally and never reach the
ledger. ConnectivityError is the only retryable outcome; the ledger's
one-vote-per-voter rule makes the retry safe.

# Sync Loop

	svc := election.NewService(l, clockwork.NewRealClock(), election.DefaultConfig())
	svc.Start(ctx)
	defer svc.Stop()

	updates, unsubscribe := svc.Subscribe()
	defer unsubscribe()
	for snap := range updates {
		// render
	}

After three consecutive failed polls the interval widens with exponential
backoff and resets on the next success. Stop waits for the loop goroutine and
closes the publish gate, so nothing is published after it returns.
*/
package election
