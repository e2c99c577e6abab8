// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the ledger.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Times are stored as unix seconds so the same schema works on PostgreSQL
// and SQLite.
const schema = `
-- Election (one row)
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    started BOOLEAN NOT NULL DEFAULT FALSE,
    deadline_unix BIGINT,
    created_at_unix BIGINT NOT NULL
);

-- Candidates (ids are dense, starting at 1)
CREATE TABLE IF NOT EXISTS candidate (
    id INTEGER PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    name TEXT NOT NULL
);

-- Votes (one per voter)
CREATE TABLE IF NOT EXISTS vote (
    voter_hash TEXT PRIMARY KEY,
    candidate_id INTEGER NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    cast_at_unix BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vote_candidate_id ON vote(candidate_id);
`
