// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Vote API server.

Quickly Vote coordinates a single-choice election whose votes live on an
authoritative ledger: a SQL database, an EVM smart contract, or an
in-process store for demos. The server caches the election phase, submits
votes, and publishes tallies once voting closes.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:vote.db ADMIN_KEY_SALT=... VOTER_SALT=... go run .

Or against a contract:

	go run . -ledger evm -rpc http://localhost:8545 -contract 0x... -admin-salt ...

A .env file in the working directory is loaded first.

# Configuration

Required settings:

  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - DATABASE_URL (-d), VOTER_SALT (-voter-salt): sql ledger
  - ETH_RPC_URL (-rpc), ELECTION_CONTRACT (-contract): evm ledger

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - LEDGER (-ledger): memory, sql, or evm (default: sql)
  - POLL_INTERVAL (-poll): Ledger poll interval (default: 1s)
  - SUBMIT_TIMEOUT (-submit-timeout): Per-vote timeout (default: 30s)
  - CANDIDATES (-candidates): Names for a new election
  - VOTING_DURATION (-duration): Open voting at boot

The admin key for the election is logged at startup when the ledger
supports setup.

# Architecture

  - election: Phase tracker, vote coordinator, tally aggregator, sync loop
  - ledger: Ledger contract, error kinds, in-memory implementation
  - db: SQL ledger (PostgreSQL or SQLite)
  - evm: Smart-contract ledger over JSON-RPC
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - metrics: Prometheus collectors
  - models: Domain, request, and response types
  - auth: Admin keys and voter hashing
  - cliparse: Configuration parsing

The HTTP server and the sync loop run in one errgroup. SIGINT or SIGTERM
stops the loop, closes stream clients, and shuts the server down.

See package documentation for each component.
*/
package main
