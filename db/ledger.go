// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
)

// Ledger stores one election in a SQL database. Vote uniqueness is
// enforced by the primary key on the hashed voter identity.
type Ledger struct {
	db        *sql.DB
	clock     clockwork.Clock
	voterSalt string
}

var (
	_ ledger.Ledger           = (*Ledger)(nil)
	_ ledger.ConsistentReader = (*Ledger)(nil)
	_ ledger.Administrator    = (*Ledger)(nil)
)

// NewLedger wraps an open database. The schema must already exist.
func NewLedger(db *sql.DB, clock clockwork.Clock, voterSalt string) *Ledger {
	return &Ledger{db: db, clock: clock, voterSalt: voterSalt}
}

// SetupElection creates the election row if none exists and adds the
// given candidates. Returns the election ID.
func (l *Ledger) SetupElection(ctx context.Context, names []string) (string, error) {
	id, err := l.ElectionID(ctx)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", l.classify("setup election", err)
	}
	defer tx.Rollback()

	id = uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO election (id, started, created_at_unix)
		VALUES ($1, $2, $3)
	`, id, false, l.clock.Now().Unix())
	if err != nil {
		return "", l.classify("setup election", err)
	}

	for i, name := range names {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO candidate (id, election_id, name)
			VALUES ($1, $2, $3)
		`, i+1, id, name)
		if err != nil {
			return "", l.classify("setup election", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", l.classify("setup election", err)
	}
	return id, nil
}

// ElectionID returns the stored election ID, or sql.ErrNoRows
func (l *Ledger) ElectionID(ctx context.Context) (string, error) {
	var id string
	err := l.db.QueryRowContext(ctx, "SELECT id FROM election LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		return "", err
	}
	if err != nil {
		return "", l.classify("election id", err)
	}
	return id, nil
}

func (l *Ledger) CandidateCount(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM candidate").Scan(&count)
	if err != nil {
		return 0, l.classify(ledger.OpCandidateCount, err)
	}
	return count, nil
}

func (l *Ledger) CandidateAt(ctx context.Context, id int) (models.Candidate, error) {
	var c models.Candidate
	var votes int64
	err := l.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, COUNT(v.voter_hash)
		FROM candidate c
		LEFT JOIN vote v ON v.candidate_id = c.id
		WHERE c.id = $1
		GROUP BY c.id, c.name
	`, id).Scan(&c.ID, &c.Name, &votes)
	if err == sql.ErrNoRows {
		return models.Candidate{}, ledger.Rejected(ledger.OpCandidateAt, fmt.Sprintf("no candidate %d", id))
	}
	if err != nil {
		return models.Candidate{}, l.classify(ledger.OpCandidateAt, err)
	}
	c.VoteCount = uint64(votes)
	return c, nil
}

// Candidates reads every candidate and count in one statement
func (l *Ledger) Candidates(ctx context.Context) ([]models.Candidate, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT c.id, c.name, COUNT(v.voter_hash)
		FROM candidate c
		LEFT JOIN vote v ON v.candidate_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.id
	`)
	if err != nil {
		return nil, l.classify(ledger.OpCandidates, err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		var votes int64
		if err := rows.Scan(&c.ID, &c.Name, &votes); err != nil {
			return nil, l.classify(ledger.OpCandidates, err)
		}
		c.VoteCount = uint64(votes)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, l.classify(ledger.OpCandidates, err)
	}
	return candidates, nil
}

func (l *Ledger) PhaseInfo(ctx context.Context) (models.PhaseInfo, error) {
	var started bool
	var deadline sql.NullInt64
	err := l.db.QueryRowContext(ctx, `
		SELECT started, deadline_unix FROM election LIMIT 1
	`).Scan(&started, &deadline)
	if err == sql.ErrNoRows {
		return models.PhaseInfo{}, nil
	}
	if err != nil {
		return models.PhaseInfo{}, l.classify(ledger.OpPhaseInfo, err)
	}

	info := models.PhaseInfo{Started: started}
	if deadline.Valid {
		info.Deadline = time.Unix(deadline.Int64, 0).UTC()
	}
	return info, nil
}

// CastVote records one vote. The phase check, candidate check, and insert
// run in one transaction.
func (l *Ledger) CastVote(ctx context.Context, candidateID int, voter string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return l.classify(ledger.OpCastVote, err)
	}
	defer tx.Rollback()

	now := l.clock.Now()

	var started bool
	var deadline sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT started, deadline_unix FROM election LIMIT 1
	`).Scan(&started, &deadline)
	if err == sql.ErrNoRows {
		return ledger.Rejected(ledger.OpCastVote, "election not configured")
	}
	if err != nil {
		return l.classify(ledger.OpCastVote, err)
	}
	if !started || !deadline.Valid {
		return ledger.Rejected(ledger.OpCastVote, "election not started")
	}
	if now.Unix() >= deadline.Int64 {
		return ledger.Rejected(ledger.OpCastVote, "voting period over")
	}

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM candidate WHERE id = $1", candidateID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ledger.Rejected(ledger.OpCastVote, fmt.Sprintf("no candidate %d", candidateID))
	}
	if err != nil {
		return l.classify(ledger.OpCastVote, err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO vote (voter_hash, candidate_id, cast_at_unix)
		VALUES ($1, $2, $3)
		ON CONFLICT (voter_hash) DO NOTHING
	`, auth.HashVoter(voter, l.voterSalt), candidateID, now.Unix())
	if err != nil {
		return l.classify(ledger.OpCastVote, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return l.classify(ledger.OpCastVote, err)
	}
	if affected == 0 {
		return ledger.ErrDuplicateVote
	}

	if err := tx.Commit(); err != nil {
		return l.classify(ledger.OpCastVote, err)
	}
	return nil
}

// AddCandidate appends a candidate before the election starts
func (l *Ledger) AddCandidate(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ledger.Rejected("add candidate", "name is required")
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, l.classify("add candidate", err)
	}
	defer tx.Rollback()

	var electionID string
	var started bool
	err = tx.QueryRowContext(ctx, "SELECT id, started FROM election LIMIT 1").Scan(&electionID, &started)
	if err == sql.ErrNoRows {
		return 0, ledger.Rejected("add candidate", "election not configured")
	}
	if err != nil {
		return 0, l.classify("add candidate", err)
	}
	if started {
		return 0, ledger.Rejected("add candidate", "election already started")
	}

	var next int
	err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) + 1 FROM candidate").Scan(&next)
	if err != nil {
		return 0, l.classify("add candidate", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidate (id, election_id, name)
		VALUES ($1, $2, $3)
	`, next, electionID, name)
	if err != nil {
		return 0, l.classify("add candidate", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, l.classify("add candidate", err)
	}
	return next, nil
}

// StartElection opens voting for duration from now
func (l *Ledger) StartElection(ctx context.Context, duration time.Duration) (models.PhaseInfo, error) {
	if duration <= 0 {
		return models.PhaseInfo{}, ledger.Rejected("start election", "duration must be positive")
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.PhaseInfo{}, l.classify("start election", err)
	}
	defer tx.Rollback()

	var electionID string
	var started bool
	err = tx.QueryRowContext(ctx, "SELECT id, started FROM election LIMIT 1").Scan(&electionID, &started)
	if err == sql.ErrNoRows {
		return models.PhaseInfo{}, ledger.Rejected("start election", "election not configured")
	}
	if err != nil {
		return models.PhaseInfo{}, l.classify("start election", err)
	}
	if started {
		return models.PhaseInfo{}, ledger.Rejected("start election", "election already started")
	}

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM candidate").Scan(&count); err != nil {
		return models.PhaseInfo{}, l.classify("start election", err)
	}
	if count == 0 {
		return models.PhaseInfo{}, ledger.Rejected("start election", "no candidates")
	}

	deadline := l.clock.Now().Add(duration).Truncate(time.Second)
	_, err = tx.ExecContext(ctx, `
		UPDATE election SET started = $1, deadline_unix = $2 WHERE id = $3
	`, true, deadline.Unix(), electionID)
	if err != nil {
		return models.PhaseInfo{}, l.classify("start election", err)
	}

	if err := tx.Commit(); err != nil {
		return models.PhaseInfo{}, l.classify("start election", err)
	}
	return models.PhaseInfo{Started: true, Deadline: deadline.UTC()}, nil
}

// classify maps driver failures onto the ledger error kinds. Anything that
// looks like a lost connection is transient; the rest is a refusal.
func (l *Ledger) classify(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr):
		return ledger.Connectivity(op, err)
	default:
		return ledger.Rejected(op, err.Error())
	}
}
