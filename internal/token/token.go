// Package token resolves on-chain ERC-20 metadata into Token values used by
// the routing and execution layers.
package token

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MattPereira/swapcli/internal/erc20"
)

// Token is the on-chain identity of an ERC-20 token. Tokens are resolved
// fresh per invocation and never cached across runs.
type Token struct {
	Address  common.Address
	Symbol   string
	Name     string
	Decimals uint8
	ChainID  uint64
}

func (t Token) String() string {
	return fmt.Sprintf("%s (%s)", t.Symbol, t.Address.Hex())
}

// Resolver fetches token metadata over a live node connection.
type Resolver struct {
	caller  *erc20.Caller
	chainID uint64
}

func NewResolver(client erc20.ContractCaller, chainID uint64) *Resolver {
	return &Resolver{
		caller:  erc20.NewCaller(client),
		chainID: chainID,
	}
}

// Resolve reads symbol, name and decimals for the contract at addr. Any
// network or contract failure propagates unchanged; nothing is retried.
func (r *Resolver) Resolve(ctx context.Context, addr common.Address) (Token, error) {
	var zero common.Address
	if addr == zero {
		return Token{}, fmt.Errorf("token address cannot be zero")
	}

	symbol, err := r.caller.Symbol(ctx, addr)
	if err != nil {
		return Token{}, fmt.Errorf("failed to resolve symbol: %w", err)
	}
	name, err := r.caller.Name(ctx, addr)
	if err != nil {
		return Token{}, fmt.Errorf("failed to resolve name: %w", err)
	}
	decimals, err := r.caller.Decimals(ctx, addr)
	if err != nil {
		return Token{}, fmt.Errorf("failed to resolve decimals: %w", err)
	}

	return Token{
		Address:  addr,
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
		ChainID:  r.chainID,
	}, nil
}
