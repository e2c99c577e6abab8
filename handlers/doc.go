// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Vote API.

# Handler Types

Each handler is a struct around the election service:

  - ResultsHandler: Election state, candidates, and final results
  - VotingHandler: Vote submission
  - AdminHandler: Candidate setup and election start
  - StreamHandler: Websocket snapshot stream

Handlers are created via constructor functions:

	resultsHandler := handlers.NewResultsHandler(svc)

# Reading State

	GET /election   → GetElection (phase, remaining_seconds, closes_in)
	GET /candidates → GetCandidates (counts zeroed until closed)
	GET /results    → GetResults (403 until closed)

Results are sealed until the election closes. Snapshots served before then
never carry a tally.

# Voting

	POST /votes → SubmitVote

Voter operations require the X-Voter-Token header. Each submission resolves
to one outcome with a fixed status:

	accepted            201
	duplicate_vote      409
	election_not_open   409
	invalid_candidate   400
	ledger_rejected     422
	connectivity_error  503 (Retry-After set; retrying the same vote is safe)

# Administration

Registered only when the ledger supports setup:

	POST /admin/candidates → AddCandidate (pending only)
	POST /admin/start      → StartElection

Admin operations require the X-Admin-Key header, an HMAC of the election ID.

# Streaming

	GET /stream → Stream

Sends the latest snapshot on connect and every published snapshot after.
The connection closes with 1001 (going away) when the service stops.
*/
package handlers
