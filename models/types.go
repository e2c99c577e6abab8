package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Phase is the election lifecycle stage
type Phase int

// Election phase constants
const (
	PhasePending Phase = iota
	PhaseOpen
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "pending":
		*p = PhasePending
	case "open":
		*p = PhaseOpen
	case "closed":
		*p = PhaseClosed
	default:
		return fmt.Errorf("unknown phase %q", s)
	}
	return nil
}

// Outcome is the result of one vote submission
type Outcome int

// Submission outcome constants
const (
	OutcomeAccepted Outcome = iota
	OutcomeDuplicateVote
	OutcomeLedgerRejected
	OutcomeConnectivityError
	OutcomeElectionNotOpen
	OutcomeInvalidCandidate
)

var outcomeNames = map[Outcome]string{
	OutcomeAccepted:          "accepted",
	OutcomeDuplicateVote:     "duplicate_vote",
	OutcomeLedgerRejected:    "ledger_rejected",
	OutcomeConnectivityError: "connectivity_error",
	OutcomeElectionNotOpen:   "election_not_open",
	OutcomeInvalidCandidate:  "invalid_candidate",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for outcome, name := range outcomeNames {
		if name == s {
			*o = outcome
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", s)
}

// Retryable reports whether the identical submission may be sent again.
// Only transient failures qualify; a duplicate vote is terminal.
func (o Outcome) Retryable() bool {
	return o == OutcomeConnectivityError
}

// Domain types

type Candidate struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	VoteCount uint64 `json:"vote_count"`
}

// PhaseInfo is the raw election state read from the ledger
type PhaseInfo struct {
	Started  bool      `json:"started"`
	Deadline time.Time `json:"deadline"`
}

type TallyEntry struct {
	CandidateID int    `json:"candidate_id"`
	Name        string `json:"name"`
	VoteCount   uint64 `json:"vote_count"`
}

type Tally struct {
	Entries     []TallyEntry `json:"entries"`
	Total       uint64       `json:"total"`
	Provisional bool         `json:"provisional"`
	ComputedAt  time.Time    `json:"computed_at"`
}

// Snapshot is the cached view of the election. Values are never mutated
// after they are published; a refresh builds a new one.
type Snapshot struct {
	Phase            Phase     `json:"phase"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	Started          bool      `json:"started"`
	Deadline         time.Time `json:"deadline"`
	CandidateCount   int       `json:"candidate_count"`
	ObservedAt       time.Time `json:"observed_at"`
	Tally            *Tally    `json:"tally,omitempty"`
	Degraded         bool      `json:"degraded"`
	Error            string    `json:"error,omitempty"`
}

// Request types

type SubmitVoteRequest struct {
	CandidateID int `json:"candidate_id"`
}

type AddCandidateRequest struct {
	Name string `json:"name"`
}

type StartElectionRequest struct {
	DurationSeconds int64 `json:"duration_seconds"`
}

// Response types

type SubmitVoteResponse struct {
	Outcome   Outcome `json:"outcome"`
	Message   string  `json:"message"`
	Retryable bool    `json:"retryable"`
}

type ElectionResponse struct {
	Snapshot
	ClosesIn string `json:"closes_in,omitempty"`
}

type CandidatesResponse struct {
	Phase      Phase       `json:"phase"`
	Candidates []Candidate `json:"candidates"`
}

type AddCandidateResponse struct {
	CandidateID int `json:"candidate_id"`
}

type StartElectionResponse struct {
	Deadline time.Time `json:"deadline"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
