// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db provides the SQL-backed election ledger.

# Connecting

Open selects the driver from the database type and pings the server:

	conn, err := db.Open(db.TypePostgres, os.Getenv("DATABASE_URL"))
	conn, err := db.Open(db.TypeSQLite, "file:vote.db")

PostgreSQL uses lib/pq; SQLite uses the pure-Go modernc.org/sqlite driver.
SQLite connections are limited to one so that :memory: databases behave.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - election: one row holding the ID, started flag, and deadline
  - candidate: dense ids starting at 1
  - vote: one row per hashed voter identity

# Ledger

Ledger implements ledger.Ledger, ledger.ConsistentReader, and
ledger.Administrator. CastVote checks the phase and candidate and inserts
the vote in a single transaction. A conflict on the voter hash becomes
ledger.ErrDuplicateVote.

Driver errors that indicate a lost connection are reported as
ledger.ErrConnectivity; everything else is ledger.ErrRejected.
*/
package db
