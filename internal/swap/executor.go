// Package swap executes a computed route end to end: operator confirmation,
// allowance, submission, receipt wait and outcome reporting. Every step
// either succeeds or aborts the run; nothing is retried and a mined
// approval is left in place when a later step fails.
package swap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/MattPereira/swapcli/internal/erc20"
	"github.com/MattPereira/swapcli/internal/evm"
	"github.com/MattPereira/swapcli/internal/pricefeed"
	"github.com/MattPereira/swapcli/internal/router"
	"github.com/MattPereira/swapcli/internal/util"
)

var (
	// ErrAborted is returned when the operator declines the prompt.
	ErrAborted = errors.New("swap aborted by operator")
	// ErrMissingCalldata is returned for a route without call parameters.
	ErrMissingCalldata = errors.New("route has no call parameters")
	// ErrSwapFailed is returned when the swap transaction reverts.
	ErrSwapFailed = errors.New("swap transaction failed")
)

// UnknownAmount is reported when no matching Transfer log was found.
const UnknownAmount = "?"

// Onchain is the node-side surface the executor needs. *evm.Network
// implements it.
type Onchain interface {
	SignerAddress() common.Address
	EnsureAllowance(ctx context.Context, tokenAddr, spender common.Address, amount *big.Int) error
	SuggestFees(ctx context.Context) (evm.Fees, error)
	SendTx(ctx context.Context, to common.Address, value *big.Int, data []byte, fees evm.Fees, gasLimit uint64) (common.Hash, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// PriceSource supplies the native/USD price for gas-cost reporting.
// *pricefeed.Feed implements it.
type PriceSource interface {
	NativeUSD(ctx context.Context) (decimal.Decimal, error)
}

// Result is the reported outcome of an executed swap.
type Result struct {
	TxHash           common.Hash
	AmountOut        *big.Int // nil when no matching Transfer log was found
	AmountOutDisplay string
	GasCostUSD       decimal.Decimal
}

// Executor runs the confirm/approve/submit/report sequence for one route.
type Executor struct {
	net     Onchain
	price   PriceSource
	confirm Confirmer
	log     *logrus.Logger
	out     io.Writer
}

func NewExecutor(net Onchain, price PriceSource, confirm Confirmer, log *logrus.Logger, out io.Writer) *Executor {
	return &Executor{
		net:     net,
		price:   price,
		confirm: confirm,
		log:     log,
		out:     out,
	}
}

// Execute performs the strict swap sequence. The confirmation prompt is the
// only cancellation point; once the transaction is broadcast the run blocks
// until the receipt arrives.
func (e *Executor) Execute(ctx context.Context, route *router.Route) (*Result, error) {
	in, out := route.TokenIn, route.TokenOut

	nativeUSD, err := e.price.NativeUSD(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read native price: %w", err)
	}
	fees, err := e.net.SuggestFees(ctx)
	if err != nil {
		return nil, err
	}
	estimatedUSD := pricefeed.GasCostUSD(route.GasEstimate, fees.MaxFeePerGas, nativeUSD)

	prompt := fmt.Sprintf(
		"Swap %s %s for ~%s %s on %s (est. gas cost $%s)",
		util.FromBaseUnits(route.AmountIn, in.Decimals), in.Symbol,
		util.FromBaseUnits(route.Quote, out.Decimals), out.Symbol,
		route.Venue, estimatedUSD.StringFixed(2),
	)
	ok, err := e.confirm.Confirm(prompt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAborted
	}

	e.log.WithFields(logrus.Fields{
		"token":   in.Symbol,
		"spender": route.Target.Hex(),
	}).Info("ensuring router allowance")
	if err := e.net.EnsureAllowance(ctx, in.Address, route.Target, route.AmountIn); err != nil {
		return nil, err
	}

	// Refetch fees: the approval may have taken long enough for them to move.
	fees, err = e.net.SuggestFees(ctx)
	if err != nil {
		return nil, err
	}

	if len(route.Calldata) == 0 {
		return nil, ErrMissingCalldata
	}

	txHash, err := e.net.SendTx(ctx, route.Target, route.Value, route.Calldata, fees, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to submit swap: %w", err)
	}
	e.log.WithField("tx", txHash.Hex()).Info("swap submitted, waiting for receipt")

	receipt, err := e.net.WaitMined(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: tx %s reverted", ErrSwapFailed, txHash.Hex())
	}

	result := &Result{
		TxHash:           txHash,
		AmountOutDisplay: UnknownAmount,
		GasCostUSD:       pricefeed.GasCostUSD(receipt.GasUsed, receipt.EffectiveGasPrice, nativeUSD),
	}
	if amountOut := findTransferToRecipient(receipt.Logs, out.Address, e.net.SignerAddress()); amountOut != nil {
		result.AmountOut = amountOut
		result.AmountOutDisplay = util.FromBaseUnits(amountOut, out.Decimals)
	}

	e.printSummary(route, result)
	return result, nil
}

// findTransferToRecipient scans receipt logs for a Transfer emitted by the
// output token to the recipient and returns its decoded value.
func findTransferToRecipient(logs []*types.Log, tokenOut, recipient common.Address) *big.Int {
	for _, entry := range logs {
		if entry == nil {
			continue
		}
		transfer, err := erc20.DecodeTransfer(*entry)
		if err != nil {
			continue
		}
		if transfer.Token == tokenOut && transfer.To == recipient {
			return transfer.Value
		}
	}
	return nil
}

func (e *Executor) printSummary(route *router.Route, result *Result) {
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan)

	green.Fprintf(e.out, "\nSwap complete: %s %s -> %s %s\n",
		util.FromBaseUnits(route.AmountIn, route.TokenIn.Decimals), route.TokenIn.Symbol,
		result.AmountOutDisplay, route.TokenOut.Symbol,
	)
	cyan.Fprintf(e.out, "  venue:    %s\n", route.Venue)
	cyan.Fprintf(e.out, "  tx:       %s\n", result.TxHash.Hex())
	cyan.Fprintf(e.out, "  gas cost: $%s\n", result.GasCostUSD.StringFixed(2))
}
