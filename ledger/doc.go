// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger defines the contract between the election core and the
authoritative vote ledger.

# Operations

The Ledger interface has four primitives:

	CandidateCount(ctx)            number of candidates (ids are 1..n)
	CandidateAt(ctx, id)           name and vote count
	CastVote(ctx, candidateID, v)  record one vote for voter v
	PhaseInfo(ctx)                 started flag and deadline

Ledgers never retry. Retry policy belongs to callers.

# Errors

	ErrConnectivity   transient, the request may be sent again
	ErrRejected       the ledger refused the request
	ErrDuplicateVote  wraps ErrRejected; the voter already voted

Use errors.Is to classify:

	if errors.Is(err, ledger.ErrDuplicateVote) { ... }

# Optional Interfaces

ConsistentReader returns all candidates from one ledger height.
Administrator allows adding candidates and starting the election.

# Implementations

  - Memory: this package, for tests and local development
  - db.Ledger: PostgreSQL or SQLite
  - evm.Ledger: an election smart contract over JSON-RPC
*/
package ledger
