package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/MattPereira/swapcli/internal/router"
	"github.com/MattPereira/swapcli/internal/token"
)

// Standard V3 fee tiers in hundredths of a bip.
var feeTiers = []uint64{100, 500, 3_000, 10_000}

type quoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// ProviderV3 quotes single-pool trades through the Uniswap V3 QuoterV2 and
// builds exactInputSingle calldata for the V3 swap router. The quoter is a
// state-mutating function intended for eth_call only, which is exactly how
// it is used here.
type ProviderV3 struct {
	chainID    uint64
	client     ContractCaller
	quoter     common.Address
	swapRouter common.Address
}

func NewProviderV3(chainID uint64, client ContractCaller, quoter, swapRouter common.Address) *ProviderV3 {
	return &ProviderV3{
		chainID:    chainID,
		client:     client,
		quoter:     quoter,
		swapRouter: swapRouter,
	}
}

func (p *ProviderV3) Name() string { return "uniswap-v3" }

func (p *ProviderV3) Quote(
	ctx context.Context,
	in, out token.Token,
	amountIn *big.Int,
	opts router.TradeOptions,
) (*router.Route, error) {
	if err := validatePair(p.chainID, in, out); err != nil {
		return nil, err
	}

	// Pools exist per fee tier; quote each and keep the best. A missing
	// pool reverts the quoter call, which just rules that tier out.
	var bestOut *big.Int
	var bestFee uint64
	var bestGas uint64
	var lastErr error
	for _, fee := range feeTiers {
		amountOut, gasEstimate, err := p.quoteSingle(ctx, in.Address, out.Address, amountIn, fee)
		if err != nil {
			lastErr = err
			continue
		}
		if bestOut == nil || amountOut.Cmp(bestOut) > 0 {
			bestOut = amountOut
			bestFee = fee
			bestGas = gasEstimate
		}
	}
	if bestOut == nil {
		return nil, fmt.Errorf("no v3 pool for %s -> %s: %w", in.Symbol, out.Symbol, lastErr)
	}

	amountOutMin := deductSlippage(bestOut, opts.SlippageBips)
	deadline := big.NewInt(time.Now().Add(opts.Deadline).Unix())

	calldata, err := swapRouterV3.Pack("exactInputSingle", exactInputSingleParams{
		TokenIn:           in.Address,
		TokenOut:          out.Address,
		Fee:               new(big.Int).SetUint64(bestFee),
		Recipient:         opts.Recipient,
		Deadline:          deadline,
		AmountIn:          amountIn,
		AmountOutMinimum:  amountOutMin,
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pack exactInputSingle: %w", err)
	}

	return &router.Route{
		TokenIn:      in,
		TokenOut:     out,
		AmountIn:     amountIn,
		Quote:        bestOut,
		AmountOutMin: amountOutMin,
		Target:       p.swapRouter,
		Calldata:     calldata,
		Value:        big.NewInt(0),
		GasEstimate:  bestGas,
		Venue:        fmt.Sprintf("%s/%d", p.Name(), bestFee),
	}, nil
}

func (p *ProviderV3) quoteSingle(
	ctx context.Context,
	in, out common.Address,
	amountIn *big.Int,
	fee uint64,
) (*big.Int, uint64, error) {
	data, err := quoterV2.Pack("quoteExactInputSingle", quoteExactInputSingleParams{
		TokenIn:           in,
		TokenOut:          out,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(fee),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to pack quoteExactInputSingle: %w", err)
	}
	raw, err := p.client.CallContract(ctx, ethereum.CallMsg{To: &p.quoter, Data: data}, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("quoter call failed at fee %d: %w", fee, err)
	}
	values, err := quoterV2.Unpack("quoteExactInputSingle", raw)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to unpack quote: %w", err)
	}
	amountOut, ok := values[0].(*big.Int)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected amountOut type %T", values[0])
	}
	gasEstimate, ok := values[3].(*big.Int)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected gasEstimate type %T", values[3])
	}
	return amountOut, gasEstimate.Uint64(), nil
}
