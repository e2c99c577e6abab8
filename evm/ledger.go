// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/models"
)

// DefaultReceiptPollInterval is how often CastVote checks for a mined receipt
const DefaultReceiptPollInterval = 500 * time.Millisecond

// Ledger reads and votes through an election contract. Voters are
// accounts managed by the connected node.
type Ledger struct {
	eth      EthereumJSONRPCClient
	rpc      JSONRPCClient
	contract common.Address
	abi      abi.ABI
	clock    clockwork.Clock

	// ReceiptPollInterval may be changed before the ledger is used
	ReceiptPollInterval time.Duration
}

var (
	_ ledger.Ledger           = (*Ledger)(nil)
	_ ledger.ConsistentReader = (*Ledger)(nil)
)

// NewLedger is the constructor
func NewLedger(eth EthereumJSONRPCClient, rpc JSONRPCClient, contract common.Address, clock clockwork.Clock) (*Ledger, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	return &Ledger{
		eth:                 eth,
		rpc:                 rpc,
		contract:            contract,
		abi:                 parsed,
		clock:               clock,
		ReceiptPollInterval: DefaultReceiptPollInterval,
	}, nil
}

// Dial connects to a JSON-RPC endpoint and validates that it answers
// standard Ethereum calls
func Dial(ctx context.Context, url, contract string, clock clockwork.Clock) (*Ledger, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address %q", contract)
	}

	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}

	eth := ethclient.NewClient(client)
	if _, err := eth.BlockNumber(ctx); err != nil {
		eth.Close()
		return nil, err
	}

	return NewLedger(eth, client, common.HexToAddress(contract), clock)
}

// Close closes the client connection
func (l *Ledger) Close() {
	l.eth.Close()
}

func (l *Ledger) CandidateCount(ctx context.Context) (int, error) {
	return l.candidateCount(ctx, nil)
}

func (l *Ledger) CandidateAt(ctx context.Context, id int) (models.Candidate, error) {
	return l.candidateAt(ctx, nil, id)
}

// Candidates reads every candidate at a single block
func (l *Ledger) Candidates(ctx context.Context) ([]models.Candidate, error) {
	height, err := l.eth.BlockNumber(ctx)
	if err != nil {
		return nil, l.classify(ledger.OpCandidates, err)
	}
	block := new(big.Int).SetUint64(height)

	count, err := l.candidateCount(ctx, block)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, count)
	for id := 1; id <= count; id++ {
		c, err := l.candidateAt(ctx, block, id)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// PhaseInfo reads the contract state and remaining time at the latest
// block. The deadline is the block timestamp plus the remaining time.
func (l *Ledger) PhaseInfo(ctx context.Context) (models.PhaseInfo, error) {
	header, err := l.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return models.PhaseInfo{}, l.classify(ledger.OpPhaseInfo, err)
	}
	blockTime := time.Unix(int64(header.Time), 0).UTC()

	out, err := l.call(ctx, ledger.OpPhaseInfo, header.Number, methodElectionState)
	if err != nil {
		return models.PhaseInfo{}, err
	}
	state, ok := out[0].(uint8)
	if !ok {
		return models.PhaseInfo{}, ledger.Rejected(ledger.OpPhaseInfo, "unexpected electionState() result")
	}

	switch state {
	case stateNotStarted:
		return models.PhaseInfo{}, nil
	case stateEnded:
		// The contract does not expose its end time; any instant not after
		// both clocks keeps the phase closed
		deadline := blockTime
		if now := l.clock.Now(); now.Before(deadline) {
			deadline = now
		}
		return models.PhaseInfo{Started: true, Deadline: deadline}, nil
	case stateOngoing:
	default:
		return models.PhaseInfo{}, ledger.Rejected(ledger.OpPhaseInfo, fmt.Sprintf("unknown election state %d", state))
	}

	out, err = l.call(ctx, ledger.OpPhaseInfo, header.Number, methodGetRemainingTime)
	if err != nil {
		return models.PhaseInfo{}, err
	}
	remaining, ok := out[0].(*big.Int)
	if !ok || !remaining.IsInt64() {
		return models.PhaseInfo{}, ledger.Rejected(ledger.OpPhaseInfo, "unexpected getRemainingTime() result")
	}

	return models.PhaseInfo{
		Started:  true,
		Deadline: blockTime.Add(time.Duration(remaining.Int64()) * time.Second),
	}, nil
}

// CastVote simulates the vote, sends it from the voter account, and waits
// for the receipt. The voter must be an account the node can sign for.
func (l *Ledger) CastVote(ctx context.Context, candidateID int, voter string) error {
	if !common.IsHexAddress(voter) {
		return ledger.Rejected(ledger.OpCastVote, "voter is not an account address")
	}
	from := common.HexToAddress(voter)

	data, err := l.abi.Pack(methodVote, big.NewInt(int64(candidateID)))
	if err != nil {
		return ledger.Rejected(ledger.OpCastVote, err.Error())
	}

	// A revert here costs nothing and carries the contract's reason
	msg := ethereum.CallMsg{From: from, To: &l.contract, Data: data}
	if _, err := l.eth.CallContract(ctx, msg, nil); err != nil {
		return l.classify(ledger.OpCastVote, err)
	}

	var txHash common.Hash
	args := txArgs{From: from, To: &l.contract, Data: data}
	if err := l.rpc.CallContext(ctx, &txHash, "eth_sendTransaction", args); err != nil {
		return l.classify(ledger.OpCastVote, err)
	}

	receipt, err := l.waitReceipt(ctx, txHash)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return l.revertReason(ctx, msg, receipt)
	}
	return nil
}

// revertReason replays a reverted vote at the block it was mined in so the
// contract's reason is classified. An earlier vote from the same account
// that was still pending when this one was simulated shows up here.
func (l *Ledger) revertReason(ctx context.Context, msg ethereum.CallMsg, receipt *types.Receipt) error {
	reverted := ledger.Rejected(ledger.OpCastVote, fmt.Sprintf("transaction %s reverted", receipt.TxHash.Hex()))
	if receipt.BlockNumber == nil {
		return reverted
	}

	_, err := l.eth.CallContract(ctx, msg, receipt.BlockNumber)
	var rpcErr rpc.Error
	if err != nil && errors.As(err, &rpcErr) {
		return l.classify(ledger.OpCastVote, err)
	}
	return reverted
}

func (l *Ledger) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := l.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, l.classify(ledger.OpCastVote, err)
		}

		select {
		case <-ctx.Done():
			return nil, ledger.Connectivity(ledger.OpCastVote, ctx.Err())
		case <-l.clock.After(l.ReceiptPollInterval):
		}
	}
}

func (l *Ledger) candidateCount(ctx context.Context, block *big.Int) (int, error) {
	out, err := l.call(ctx, ledger.OpCandidateCount, block, methodCandidatesCount)
	if err != nil {
		return 0, err
	}
	count, ok := out[0].(*big.Int)
	if !ok || !count.IsInt64() {
		return 0, ledger.Rejected(ledger.OpCandidateCount, "unexpected candidatesCount() result")
	}
	return int(count.Int64()), nil
}

func (l *Ledger) candidateAt(ctx context.Context, block *big.Int, id int) (models.Candidate, error) {
	out, err := l.call(ctx, ledger.OpCandidateAt, block, methodCandidates, big.NewInt(int64(id)))
	if err != nil {
		return models.Candidate{}, err
	}
	if len(out) != 3 {
		return models.Candidate{}, ledger.Rejected(ledger.OpCandidateAt, "unexpected candidates() result")
	}

	stored, idOK := out[0].(*big.Int)
	name, nameOK := out[1].(string)
	votes, votesOK := out[2].(*big.Int)
	if !idOK || !nameOK || !votesOK || !votes.IsUint64() {
		return models.Candidate{}, ledger.Rejected(ledger.OpCandidateAt, "unexpected candidates() result")
	}
	// Unset mapping entries come back zeroed
	if stored.Sign() == 0 {
		return models.Candidate{}, ledger.Rejected(ledger.OpCandidateAt, fmt.Sprintf("no candidate %d", id))
	}
	return models.Candidate{ID: id, Name: name, VoteCount: votes.Uint64()}, nil
}

// call runs a read-only contract method at block, or latest when block is nil
func (l *Ledger) call(ctx context.Context, op string, block *big.Int, method string, args ...interface{}) ([]interface{}, error) {
	data, err := l.abi.Pack(method, args...)
	if err != nil {
		return nil, ledger.Rejected(op, err.Error())
	}

	raw, err := l.eth.CallContract(ctx, ethereum.CallMsg{To: &l.contract, Data: data}, block)
	if err != nil {
		return nil, l.classify(op, err)
	}

	out, err := l.abi.Unpack(method, raw)
	if err != nil {
		return nil, ledger.Rejected(op, fmt.Sprintf("cannot decode %s(): %v", method, err))
	}
	if len(out) == 0 {
		return nil, ledger.Rejected(op, fmt.Sprintf("empty %s() result", method))
	}
	return out, nil
}

// classify maps JSON-RPC failures onto the ledger error kinds. Errors the
// node answered with are refusals; anything else never reached the chain.
func (l *Ledger) classify(op string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if strings.Contains(strings.ToLower(rpcErr.Error()), "already voted") {
			return fmt.Errorf("%s: %w", op, ledger.ErrDuplicateVote)
		}
		return ledger.Rejected(op, rpcErr.Error())
	}
	return ledger.Connectivity(op, err)
}
