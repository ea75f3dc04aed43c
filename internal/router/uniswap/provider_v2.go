// Package uniswap implements route providers over the Uniswap V2 router and
// the V3 quoter/swap-router contracts. Quoting is delegated entirely to the
// deployed contracts via eth_call; no pool math lives here.
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

// ContractCaller is the slice of the node client used for quoting.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Gas heuristics per V2 swap, used for the pre-trade cost estimate.
const (
	gasPerSwapV2 = 150_000
	gasPerHopV2  = 70_000
)

// ProviderV2 quotes through the Uniswap V2 router's getAmountsOut and
// builds swapExactTokensForTokens calldata.
type ProviderV2 struct {
	chainID uint64
	client  ContractCaller
	router  common.Address
	weth    common.Address
}

func NewProviderV2(chainID uint64, client ContractCaller, routerAddr, weth common.Address) *ProviderV2 {
	return &ProviderV2{
		chainID: chainID,
		client:  client,
		router:  routerAddr,
		weth:    weth,
	}
}

func (p *ProviderV2) Name() string { return "uniswap-v2" }

func (p *ProviderV2) Quote(
	ctx context.Context,
	in, out token.Token,
	amountIn *big.Int,
	opts router.TradeOptions,
) (*router.Route, error) {
	if err := validatePair(p.chainID, in, out); err != nil {
		return nil, err
	}

	// Try the direct pair first; when neither leg is WETH, a WETH hop is
	// often the only pair with liquidity.
	paths := [][]common.Address{{in.Address, out.Address}}
	if in.Address != p.weth && out.Address != p.weth {
		paths = append(paths, []common.Address{in.Address, p.weth, out.Address})
	}

	var bestPath []common.Address
	var bestOut *big.Int
	var lastErr error
	for _, path := range paths {
		amountOut, err := p.getAmountsOut(ctx, amountIn, path)
		if err != nil {
			lastErr = err
			continue
		}
		if bestOut == nil || amountOut.Cmp(bestOut) > 0 {
			bestOut = amountOut
			bestPath = path
		}
	}
	if bestOut == nil {
		return nil, fmt.Errorf("no v2 path for %s -> %s: %w", in.Symbol, out.Symbol, lastErr)
	}

	amountOutMin := deductSlippage(bestOut, opts.SlippageBips)
	deadline := big.NewInt(time.Now().Add(opts.Deadline).Unix())

	calldata, err := routerV2.Pack(
		"swapExactTokensForTokens",
		amountIn, amountOutMin, bestPath, opts.Recipient, deadline,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack swap calldata: %w", err)
	}

	return &router.Route{
		TokenIn:      in,
		TokenOut:     out,
		AmountIn:     amountIn,
		Quote:        bestOut,
		AmountOutMin: amountOutMin,
		Target:       p.router,
		Calldata:     calldata,
		Value:        big.NewInt(0),
		GasEstimate:  gasPerSwapV2 + uint64(len(bestPath)-2)*gasPerHopV2,
		Venue:        p.Name(),
	}, nil
}

func (p *ProviderV2) getAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	data, err := routerV2.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getAmountsOut: %w", err)
	}
	raw, err := p.client.CallContract(ctx, ethereum.CallMsg{To: &p.router, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("getAmountsOut failed: %w", err)
	}
	values, err := routerV2.Unpack("getAmountsOut", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getAmountsOut: %w", err)
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok || len(amounts) == 0 {
		return nil, fmt.Errorf("unexpected getAmountsOut result")
	}
	return amounts[len(amounts)-1], nil
}

func validatePair(chainID uint64, in, out token.Token) error {
	if in.ChainID != chainID {
		return fmt.Errorf("token %s is on chain %d, provider is on %d", in.Symbol, in.ChainID, chainID)
	}
	if out.ChainID != chainID {
		return fmt.Errorf("token %s is on chain %d, provider is on %d", out.Symbol, out.ChainID, chainID)
	}
	if in.Address == out.Address {
		return fmt.Errorf("cannot swap %s for itself", in.Symbol)
	}
	return nil
}

// deductSlippage returns amount * (10000 - bips) / 10000, truncating.
func deductSlippage(amount *big.Int, bips uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	total := big.NewInt(10_000)
	kept := new(big.Int).Sub(total, new(big.Int).SetUint64(bips))
	result := new(big.Int).Mul(amount, kept)
	return result.Div(result, total)
}
