// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package evm implements the election ledger on an EVM smart contract.

# Contract

The contract exposes:

	candidatesCount() uint256
	candidates(uint256) (uint256 id, string name, uint256 voteCount)
	vote(uint256)
	electionState() uint8        // 0 not started, 1 ongoing, 2 ended
	getRemainingTime() uint256   // seconds

# Reads

Reads are eth_call requests. Candidates pins every call to one block so the
returned counts are consistent. PhaseInfo reads the state and remaining time
at the latest header and reports the deadline as the block timestamp plus
the remaining time.

# Votes

CastVote expects the voter to be an account address the node can sign for.
It simulates vote() from that account, sends it with eth_sendTransaction,
and polls for the receipt.

Errors the node answers are refusals; a revert reason containing
"already voted" becomes ledger.ErrDuplicateVote. Transport failures are
ledger.ErrConnectivity. A lost reply after sending is reported as
connectivity; retrying the same vote then resolves to a duplicate.
*/
package evm
