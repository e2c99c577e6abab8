// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/models"
)

// Operation names used for call counting and failure injection
const (
	OpCandidateCount = "candidate_count"
	OpCandidateAt    = "candidate_at"
	OpCastVote       = "cast_vote"
	OpPhaseInfo      = "phase_info"
	OpCandidates     = "candidates"
)

// Memory is an in-process ledger. It enforces one vote per voter and the
// voting deadline the same way a contract would.
type Memory struct {
	clock clockwork.Clock

	mu       sync.Mutex
	names    []string
	counts   []uint64
	votes    map[string]int
	started  bool
	deadline time.Time
	calls    map[string]int
	failures map[string][]error
}

// NewMemory creates an empty ledger with the given candidates
func NewMemory(clock clockwork.Clock, candidates ...string) *Memory {
	m := &Memory{
		clock:    clock,
		votes:    make(map[string]int),
		calls:    make(map[string]int),
		failures: make(map[string][]error),
	}
	for _, name := range candidates {
		m.names = append(m.names, name)
		m.counts = append(m.counts, 0)
	}
	return m
}

// Open marks the election started with the given deadline
func (m *Memory) Open(deadline time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	m.deadline = deadline
}

// FailNext queues err to be returned by the next call of op
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

// Calls returns how many times op was invoked
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// enter records a call and pops an injected failure. Caller holds mu.
func (m *Memory) enter(op string) error {
	m.calls[op]++
	if queued := m.failures[op]; len(queued) > 0 {
		m.failures[op] = queued[1:]
		return queued[0]
	}
	return nil
}

func (m *Memory) CandidateCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCandidateCount); err != nil {
		return 0, err
	}
	return len(m.names), nil
}

func (m *Memory) CandidateAt(ctx context.Context, id int) (models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCandidateAt); err != nil {
		return models.Candidate{}, err
	}
	if id < 1 || id > len(m.names) {
		return models.Candidate{}, Rejected(OpCandidateAt, fmt.Sprintf("no candidate %d", id))
	}
	return m.candidate(id), nil
}

func (m *Memory) Candidates(ctx context.Context) ([]models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCandidates); err != nil {
		return nil, err
	}
	out := make([]models.Candidate, 0, len(m.names))
	for id := 1; id <= len(m.names); id++ {
		out = append(out, m.candidate(id))
	}
	return out, nil
}

func (m *Memory) candidate(id int) models.Candidate {
	return models.Candidate{ID: id, Name: m.names[id-1], VoteCount: m.counts[id-1]}
}

func (m *Memory) CastVote(ctx context.Context, candidateID int, voter string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCastVote); err != nil {
		return err
	}
	if !m.started || !m.clock.Now().Before(m.deadline) {
		return Rejected(OpCastVote, "voting is not open")
	}
	if candidateID < 1 || candidateID > len(m.names) {
		return Rejected(OpCastVote, fmt.Sprintf("no candidate %d", candidateID))
	}
	if _, voted := m.votes[voter]; voted {
		return ErrDuplicateVote
	}
	m.votes[voter] = candidateID
	m.counts[candidateID-1]++
	return nil
}

func (m *Memory) PhaseInfo(ctx context.Context) (models.PhaseInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpPhaseInfo); err != nil {
		return models.PhaseInfo{}, err
	}
	return models.PhaseInfo{Started: m.started, Deadline: m.deadline}, nil
}

func (m *Memory) AddCandidate(ctx context.Context, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return 0, Rejected("add_candidate", "election already started")
	}
	m.names = append(m.names, name)
	m.counts = append(m.counts, 0)
	return len(m.names), nil
}

func (m *Memory) StartElection(ctx context.Context, duration time.Duration) (models.PhaseInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return models.PhaseInfo{}, Rejected("start_election", "election already started")
	}
	if len(m.names) == 0 {
		return models.PhaseInfo{}, Rejected("start_election", "no candidates")
	}
	m.started = true
	m.deadline = m.clock.Now().Add(duration)
	return models.PhaseInfo{Started: true, Deadline: m.deadline}, nil
}
