// Package evm wraps the node client with the services the CLI needs: signer
// management, fee suggestion, allowance management, transaction submission
// and receipt waiting.
package evm

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// NodeClient is the slice of *ethclient.Client used by this package.
type NodeClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Network bundles a node connection with the per-chain services.
type Network struct {
	Client  NodeClient
	ChainID uint64
	Signer  *Signer

	Fees    *FeeService
	Send    *SendService
	Approve *ApproveService
	Balance *BalanceService
}

// NewNetwork wires the services over an existing connection.
func NewNetwork(client NodeClient, chainID uint64, signer *Signer) *Network {
	fees := NewFeeService(client)
	send := NewSendService(client, signer)
	return &Network{
		Client:  client,
		ChainID: chainID,
		Signer:  signer,
		Fees:    fees,
		Send:    send,
		Approve: NewApproveService(client, signer, fees, send),
		Balance: NewBalanceService(client),
	}
}

// Dial connects to an RPC endpoint, resolves its chain ID and derives the
// signer from the private key.
func Dial(ctx context.Context, rpcURL, privateKeyHex string) (*Network, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chain ID: %w", err)
	}
	signer, err := NewSigner(privateKeyHex, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signer: %w", err)
	}
	return NewNetwork(client, chainID.Uint64(), signer), nil
}

// The flat methods below expose the call surface the swap executor depends
// on, so it can be tested against a fake without a node.

func (n *Network) SignerAddress() common.Address {
	return n.Signer.Address()
}

func (n *Network) EnsureAllowance(ctx context.Context, tokenAddr, spender common.Address, amount *big.Int) error {
	return n.Approve.EnsureAllowance(ctx, tokenAddr, spender, amount)
}

func (n *Network) SuggestFees(ctx context.Context) (Fees, error) {
	return n.Fees.Suggest(ctx)
}

func (n *Network) SendTx(
	ctx context.Context,
	to common.Address,
	value *big.Int,
	data []byte,
	fees Fees,
	gasLimit uint64,
) (common.Hash, error) {
	return n.Send.Send(ctx, to, value, data, fees, gasLimit)
}

func (n *Network) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return n.Send.WaitMined(ctx, txHash)
}
