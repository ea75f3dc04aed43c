package swap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/MattPereira/swapcli/internal/erc20"
	"github.com/MattPereira/swapcli/internal/router"
	"github.com/MattPereira/swapcli/internal/token"
)

// fundingWrapWei is the amount of native currency wrapped on a simulation
// network before the funding swap: 1 ETH.
var fundingWrapWei = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// RouteSource computes a route; *router.Router implements it.
type RouteSource interface {
	BestRoute(ctx context.Context, in, out token.Token, amountIn *big.Int, opts router.TradeOptions) (*router.Route, error)
}

// Funder gives a freshly forked simulation network a starting balance of
// the input token: wrap native currency into WETH, then swap WETH for the
// token. It is never used against a live network.
type Funder struct {
	net    Onchain
	routes RouteSource
	exec   *Executor
	log    *logrus.Logger
}

func NewFunder(net Onchain, routes RouteSource, exec *Executor, log *logrus.Logger) *Funder {
	return &Funder{
		net:    net,
		routes: routes,
		exec:   exec,
		log:    log,
	}
}

// Fund wraps 1 native unit and, unless the target token is WETH itself,
// swaps the wrapped balance for the target token. The funding swap runs
// through the normal executor and so prompts for its own confirmation.
func (f *Funder) Fund(ctx context.Context, weth, target token.Token) error {
	f.log.WithField("amount", "1").Info("wrapping native currency for funding")

	data, err := erc20.PackDeposit()
	if err != nil {
		return err
	}
	fees, err := f.net.SuggestFees(ctx)
	if err != nil {
		return err
	}
	txHash, err := f.net.SendTx(ctx, weth.Address, fundingWrapWei, data, fees, 0)
	if err != nil {
		return fmt.Errorf("failed to wrap native currency: %w", err)
	}
	receipt, err := f.net.WaitMined(ctx, txHash)
	if err != nil {
		return fmt.Errorf("failed waiting for wrap %s: %w", txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("wrap transaction %s reverted", txHash.Hex())
	}

	if target.Address == weth.Address {
		return nil
	}

	route, err := f.routes.BestRoute(ctx, weth, target, fundingWrapWei,
		router.DefaultTradeOptions(f.net.SignerAddress()))
	if err != nil {
		return fmt.Errorf("failed to route funding swap: %w", err)
	}
	if _, err := f.exec.Execute(ctx, route); err != nil {
		return fmt.Errorf("funding swap failed: %w", err)
	}
	return nil
}
