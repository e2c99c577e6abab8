// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - Ledger: memory, sql (default), or evm
  - DatabaseURL, DatabaseType: SQL ledger connection (sqlite default)
  - EthRPCURL, Contract: EVM ledger endpoint and contract address
  - AdminKeySalt: Secret for admin key HMAC (required)
  - VoterSalt: Secret for voter hashing (required for sql)
  - PollInterval: Ledger poll interval (default: 1s)
  - SubmitTimeout: Per-vote ledger timeout (default: 30s)
  - VotingDuration: Start the election at boot for this long
  - Candidates: Names for a newly created election

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	-ledger          Ledger backend
	-rpc             Ethereum JSON-RPC URL
	-contract        Election contract address
	-poll            Poll interval
	-submit-timeout  Submission timeout
	-duration        Voting duration
	-candidates      Comma-separated names
	-admin-salt      Admin key salt
	-voter-salt      Voter hash salt

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p
	DATABASE_URL      → -d
	DATABASE_TYPE     → -t
	LEDGER            → -ledger
	ETH_RPC_URL       → -rpc
	ELECTION_CONTRACT → -contract
	POLL_INTERVAL     → -poll
	SUBMIT_TIMEOUT    → -submit-timeout
	VOTING_DURATION   → -duration
	CANDIDATES        → -candidates
	ADMIN_KEY_SALT    → -admin-salt
	VOTER_SALT        → -voter-salt

CLI flags take precedence over environment variables. main loads a .env
file first, so its values behave like environment variables.

# Validation

ParseFlags returns an error if required values are missing for the chosen
ledger, or if a duration does not parse.
*/
package cliparse
