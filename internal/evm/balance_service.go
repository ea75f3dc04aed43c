package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/MattPereira/swapcli/internal/erc20"
)

// BalanceService reads native and ERC-20 balances.
type BalanceService struct {
	client NodeClient
	caller *erc20.Caller
}

func NewBalanceService(client NodeClient) *BalanceService {
	return &BalanceService{
		client: client,
		caller: erc20.NewCaller(client),
	}
}

func (b *BalanceService) Native(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := b.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance: %w", err)
	}
	return balance, nil
}

func (b *BalanceService) ERC20(ctx context.Context, tokenAddr, account common.Address) (*big.Int, error) {
	balance, err := b.caller.BalanceOf(ctx, tokenAddr, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	return balance, nil
}
