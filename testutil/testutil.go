// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/election"
	"github.com/danielhkuo/quickly-vote/ledger"
)

// Epoch is the fake clock start used across tests
var Epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		Ledger:        cliparse.LedgerSQL,
		DatabaseURL:   ":memory:",
		DatabaseType:  db.TypeSQLite,
		AdminKeySalt:  "test-admin-salt",
		VoterSalt:     "test-voter-salt",
		PollInterval:  time.Second,
		SubmitTimeout: 5 * time.Second,
	}
}

// CreateTestLedger sets up an election with the given candidates on a fresh
// database and returns the ledger, its election ID, and the admin key
func CreateTestLedger(t *testing.T, clock clockwork.Clock, cfg cliparse.Config, names ...string) (l *db.Ledger, electionID, adminKey string) {
	t.Helper()

	l = db.NewLedger(SetupTestDB(t), clock, cfg.VoterSalt)
	electionID, err := l.SetupElection(context.Background(), names)
	if err != nil {
		t.Fatalf("Failed to set up election: %v", err)
	}

	return l, electionID, auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)
}

// StartTestElection opens voting for d from the ledger's current time
func StartTestElection(t *testing.T, admin ledger.Administrator, d time.Duration) {
	t.Helper()

	if _, err := admin.StartElection(context.Background(), d); err != nil {
		t.Fatalf("Failed to start election: %v", err)
	}
}

// NewTestService builds a service that is stopped when the test ends. The
// snapshot is refreshed once so handlers have state to serve.
func NewTestService(t *testing.T, l ledger.Ledger, clock clockwork.Clock) *election.Service {
	t.Helper()

	svc := election.NewService(l, clock, election.DefaultConfig())
	t.Cleanup(svc.Stop)

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Failed to refresh election state: %v", err)
	}

	return svc
}

// VoterToken returns a distinct valid voter token for i
func VoterToken(i int) string {
	return fmt.Sprintf("voter-%04d", i)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
