// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request, and response types for the election.

# Domain Types

  - Candidate: id (1-based), name, vote count read from the ledger
  - PhaseInfo: started flag and voting deadline as the ledger reports them
  - Snapshot: cached phase, remaining seconds, candidate count, optional tally
  - Tally: per-candidate counts ordered by candidate id

# Phases

Elections move through three phases and never go back:

	PhasePending → PhaseOpen → PhaseClosed

Phases marshal as "pending", "open", and "closed".

# Outcomes

Every vote submission resolves to exactly one Outcome:

	OutcomeAccepted          ledger recorded the vote
	OutcomeDuplicateVote     voter already voted (terminal, safe to repeat)
	OutcomeLedgerRejected    ledger refused for any other reason
	OutcomeConnectivityError transient; retrying the same vote is safe
	OutcomeElectionNotOpen   local check, ledger not contacted
	OutcomeInvalidCandidate  local check, ledger not contacted

# Request Types

  - SubmitVoteRequest: candidate_id
  - AddCandidateRequest: name
  - StartElectionRequest: duration_seconds

# Response Types

  - SubmitVoteResponse: outcome, message, retryable
  - ElectionResponse: snapshot plus humanized closes_in
  - CandidatesResponse: phase, candidates
  - ErrorResponse: error, message
*/
package models
