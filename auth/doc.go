// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin key and voter identity helpers.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(electionID, salt)
	err := auth.ValidateAdminKey(electionID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same election ID and salt always produce the same key. This allows
validation without storing the key in the database.

# Voter Tokens

Voter tokens arrive in the X-Voter-Token header. Eligibility is decided
before a token reaches this service; ValidateVoterToken only rejects values
that are empty, oversized, or contain whitespace.

# Voter Hashing

Voter identities are never stored in the clear:

	hash := auth.HashVoter(token, salt)

Returns the full HMAC-SHA256 digest as 64 hex characters. The SQL ledger
keys its one-vote-per-voter constraint on this hash.
*/
package auth
