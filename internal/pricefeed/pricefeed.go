// Package pricefeed reads the chain's native/USD Chainlink aggregator so
// gas costs can be reported in dollars.
package pricefeed

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const aggregatorABI = `[
	{"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"latestRoundData","outputs":[{"name":"roundId","type":"uint80"},{"name":"answer","type":"int256"},{"name":"startedAt","type":"uint256"},{"name":"updatedAt","type":"uint256"},{"name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"}
]`

var parsedABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(aggregatorABI))
	if err != nil {
		panic(fmt.Sprintf("pricefeed: invalid ABI: %v", err))
	}
	return parsed
}()

// ContractCaller is the slice of the node client used for feed reads.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Feed reads a single Chainlink aggregator.
type Feed struct {
	client ContractCaller
	addr   common.Address
}

func New(client ContractCaller, addr common.Address) *Feed {
	return &Feed{client: client, addr: addr}
}

// NativeUSD returns the latest native-token/USD price.
func (f *Feed) NativeUSD(ctx context.Context) (decimal.Decimal, error) {
	feedDecimals, err := f.decimals(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	data, err := parsedABI.Pack("latestRoundData")
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to pack latestRoundData: %w", err)
	}
	raw, err := f.client.CallContract(ctx, ethereum.CallMsg{To: &f.addr, Data: data}, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price feed call failed: %w", err)
	}
	values, err := parsedABI.Unpack("latestRoundData", raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to unpack latestRoundData: %w", err)
	}
	answer, ok := values[1].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected answer type %T", values[1])
	}
	if answer.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("price feed returned non-positive answer %s", answer)
	}

	return decimal.NewFromBigInt(answer, -int32(feedDecimals)), nil
}

func (f *Feed) decimals(ctx context.Context) (uint8, error) {
	data, err := parsedABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to pack decimals: %w", err)
	}
	raw, err := f.client.CallContract(ctx, ethereum.CallMsg{To: &f.addr, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("price feed decimals call failed: %w", err)
	}
	values, err := parsedABI.Unpack("decimals", raw)
	if err != nil {
		return 0, fmt.Errorf("failed to unpack decimals: %w", err)
	}
	feedDecimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", values[0])
	}
	return feedDecimals, nil
}

// GasCostUSD converts a gas quantity at a wei gas price into dollars given
// the native/USD price.
func GasCostUSD(gas uint64, gasPriceWei *big.Int, nativeUSD decimal.Decimal) decimal.Decimal {
	if gasPriceWei == nil {
		return decimal.Zero
	}
	wei := new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPriceWei)
	return decimal.NewFromBigInt(wei, -18).Mul(nativeUSD)
}
