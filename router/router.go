// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/election"
	"github.com/danielhkuo/quickly-vote/handlers"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/metrics"
	"github.com/danielhkuo/quickly-vote/middleware"
)

func NewRouter(svc *election.Service, electionID string, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	resultsHandler := handlers.NewResultsHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc)
	streamHandler := handlers.NewStreamHandler(svc)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election state (public, with sealed results)
	mux.HandleFunc("GET /election", middleware.WithLogging(resultsHandler.GetElection))
	mux.HandleFunc("GET /candidates", middleware.WithLogging(resultsHandler.GetCandidates))
	mux.HandleFunc("GET /results", middleware.WithLogging(resultsHandler.GetResults))

	// Voting operations (public)
	mux.HandleFunc("POST /votes", middleware.WithLogging(votingHandler.SubmitVote))

	// Live updates
	mux.HandleFunc("GET /stream", middleware.WithLogging(streamHandler.Stream))

	// Election setup (admin operations), only when the ledger allows it
	if admin, ok := svc.Ledger().(ledger.Administrator); ok {
		adminHandler := handlers.NewAdminHandler(svc, admin, electionID, cfg)
		mux.HandleFunc("POST /admin/candidates", middleware.WithLogging(adminHandler.AddCandidate))
		mux.HandleFunc("POST /admin/start", middleware.WithLogging(adminHandler.StartElection))
	}

	// Metrics
	mux.Handle("GET /metrics", metrics.Handler())

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-vote API v1"))
	})

	return mux
}
