// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Vote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, electionID, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics - Prometheus exposition

Election state (public, results sealed until closed):

	GET /election   - Phase, countdown, candidate count
	GET /candidates - Candidate names (counts once closed)
	GET /results    - Final tally (closed only)
	GET /stream     - Websocket snapshot stream

Voting (public, requires X-Voter-Token):

	POST /votes - Submit one vote

Election setup (admin, requires X-Admin-Key):

	POST /admin/candidates - Add candidate (pending only)
	POST /admin/start      - Open voting for a duration

Admin routes are registered only when the service's ledger implements
ledger.Administrator. The EVM ledger does not; its contract owner manages
setup on chain.

# Handler Initialization

The router creates handler instances around the election service:

	resultsHandler := handlers.NewResultsHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc)
	streamHandler := handlers.NewStreamHandler(svc)
	adminHandler := handlers.NewAdminHandler(svc, admin, electionID, cfg)

Every route except /health and /metrics is wrapped in middleware.WithLogging.
*/
package router
