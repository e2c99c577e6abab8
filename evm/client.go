// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// EthereumJSONRPCClient represents the functionality of github.com/ethereum/go-ethereum/ethclient.Client
type EthereumJSONRPCClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	Close()
}

// JSONRPCClient represents the functionality of github.com/ethereum/go-ethereum/rpc.Client
type JSONRPCClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// contractABI covers the election contract methods this ledger calls
const contractABI = `[
	{"type":"function","name":"candidatesCount","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"candidates","stateMutability":"view",
	 "inputs":[{"name":"id","type":"uint256"}],
	 "outputs":[{"name":"id","type":"uint256"},{"name":"name","type":"string"},{"name":"voteCount","type":"uint256"}]},
	{"type":"function","name":"vote","stateMutability":"nonpayable",
	 "inputs":[{"name":"candidateId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"electionState","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"getRemainingTime","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

// Contract method names
const (
	methodCandidatesCount  = "candidatesCount"
	methodCandidates       = "candidates"
	methodVote             = "vote"
	methodElectionState    = "electionState"
	methodGetRemainingTime = "getRemainingTime"
)

// Values returned by electionState()
const (
	stateNotStarted uint8 = iota
	stateOngoing
	stateEnded
)

// txArgs is the eth_sendTransaction parameter object
type txArgs struct {
	From common.Address  `json:"from"`
	To   *common.Address `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}
