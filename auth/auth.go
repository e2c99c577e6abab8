// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid voter token")
)

// Voter tokens are opaque identities issued upstream
const (
	minVoterTokenLen = 8
	maxVoterTokenLen = 128
)

// GenerateAdminKey creates an HMAC-based admin key for an election
// This is deterministic and verifiable
func GenerateAdminKey(electionID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(electionID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the election
func ValidateAdminKey(electionID, adminKey, salt string) error {
	expected := GenerateAdminKey(electionID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// ValidateVoterToken checks the shape of a voter token. Eligibility is
// decided upstream; this only rejects values that cannot be an identity.
func ValidateVoterToken(token string) error {
	if len(token) < minVoterTokenLen || len(token) > maxVoterTokenLen {
		return ErrInvalidToken
	}
	for _, r := range token {
		if r <= ' ' || r == 0x7f {
			return ErrInvalidToken
		}
	}
	return nil
}

// HashVoter creates a one-way hash of a voter identity for storage
// Includes salt to prevent rainbow table attacks
func HashVoter(voter, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(voter))
	return hex.EncodeToString(h.Sum(nil))
}
