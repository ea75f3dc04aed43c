package swap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/MattPereira/swapcli/internal/erc20"
	"github.com/MattPereira/swapcli/internal/evm"
	"github.com/MattPereira/swapcli/internal/router"
	"github.com/MattPereira/swapcli/internal/token"
)

var (
	signerAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	targetAddr = common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564")
	usdcAddr   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	rethAddr   = common.HexToAddress("0xae78736Cd615f374D3085123A210448E74Fc6393")
	wethAddr   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

	usdc = token.Token{Address: usdcAddr, Symbol: "USDC", Decimals: 6, ChainID: 31337}
	reth = token.Token{Address: rethAddr, Symbol: "rETH", Decimals: 18, ChainID: 31337}
	weth = token.Token{Address: wethAddr, Symbol: "WETH", Decimals: 18, ChainID: 31337}
)

type sentTx struct {
	to    common.Address
	value *big.Int
	data  []byte
}

type fakeChain struct {
	allowanceCalls int
	allowanceErr   error
	feesErr        error
	sent           []sentTx
	sendErr        error
	receipt        *types.Receipt
	waitErr        error
}

func (f *fakeChain) SignerAddress() common.Address { return signerAddr }

func (f *fakeChain) EnsureAllowance(context.Context, common.Address, common.Address, *big.Int) error {
	f.allowanceCalls++
	return f.allowanceErr
}

func (f *fakeChain) SuggestFees(context.Context) (evm.Fees, error) {
	if f.feesErr != nil {
		return evm.Fees{}, f.feesErr
	}
	return evm.Fees{
		MaxFeePerGas:         big.NewInt(20_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
	}, nil
}

func (f *fakeChain) SendTx(
	_ context.Context,
	to common.Address,
	value *big.Int,
	data []byte,
	_ evm.Fees,
	_ uint64,
) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	f.sent = append(f.sent, sentTx{to: to, value: value, data: data})
	return common.HexToHash("0xdeadbeef"), nil
}

func (f *fakeChain) WaitMined(context.Context, common.Hash) (*types.Receipt, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return f.receipt, nil
}

type fakePrice struct{ err error }

func (p *fakePrice) NativeUSD(context.Context) (decimal.Decimal, error) {
	if p.err != nil {
		return decimal.Zero, p.err
	}
	return decimal.NewFromInt(3000), nil
}

type fakeConfirm struct {
	approve bool
	err     error
	asked   []string
}

func (c *fakeConfirm) Confirm(message string) (bool, error) {
	c.asked = append(c.asked, message)
	return c.approve, c.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testRoute() *router.Route {
	return &router.Route{
		TokenIn:      usdc,
		TokenOut:     reth,
		AmountIn:     big.NewInt(100_000_000),                       // 100 USDC
		Quote:        big.NewInt(30_000_000_000_000_000),            // 0.03 rETH
		AmountOutMin: big.NewInt(29_850_000_000_000_000),
		Target:       targetAddr,
		Calldata:     []byte{0x41, 0x4b, 0xf3, 0x89},
		Value:        big.NewInt(0),
		GasEstimate:  150_000,
		Venue:        "uniswap-v3/3000",
	}
}

func transferLog(tokenAddr, from, to common.Address, value *big.Int) *types.Log {
	return &types.Log{
		Address: tokenAddr,
		Topics: []common.Hash{
			erc20.TransferEventID,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: common.LeftPadBytes(value.Bytes(), 32),
	}
}

func successReceipt(logs ...*types.Log) *types.Receipt {
	return &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		GasUsed:           100_000,
		EffectiveGasPrice: big.NewInt(20_000_000_000), // 20 gwei
		Logs:              logs,
	}
}

func newTestExecutor(chain *fakeChain, confirm *fakeConfirm) *Executor {
	return NewExecutor(chain, &fakePrice{}, confirm, quietLogger(), &bytes.Buffer{})
}

func TestExecuteReportsDecodedTransfer(t *testing.T) {
	amountOut := big.NewInt(29_900_000_000_000_000) // 0.0299 rETH
	pool := common.HexToAddress("0x4444444444444444444444444444444444444444")
	chain := &fakeChain{receipt: successReceipt(
		transferLog(usdcAddr, signerAddr, pool, big.NewInt(100_000_000)), // input leg, wrong token
		transferLog(rethAddr, pool, signerAddr, amountOut),               // output leg
	)}
	confirm := &fakeConfirm{approve: true}

	result, err := newTestExecutor(chain, confirm).Execute(context.Background(), testRoute())
	require.NoError(t, err)
	require.Zero(t, amountOut.Cmp(result.AmountOut))
	require.Equal(t, "0.0299", result.AmountOutDisplay)
	require.Equal(t, 1, chain.allowanceCalls)
	require.Len(t, chain.sent, 1)
	require.Equal(t, targetAddr, chain.sent[0].to)
	// 100000 gas * 20 gwei = 0.002 ETH * $3000 = $6
	require.True(t, result.GasCostUSD.Equal(decimal.NewFromInt(6)), "got %s", result.GasCostUSD)
	require.Len(t, confirm.asked, 1)
	require.Contains(t, confirm.asked[0], "100 USDC")
	require.Contains(t, confirm.asked[0], "0.03 rETH")
}

func TestExecuteReportsUnknownWithoutMatchingLog(t *testing.T) {
	other := common.HexToAddress("0x5555555555555555555555555555555555555555")
	chain := &fakeChain{receipt: successReceipt(
		// right token, wrong recipient
		transferLog(rethAddr, other, other, big.NewInt(1)),
		// right recipient, wrong token
		transferLog(usdcAddr, other, signerAddr, big.NewInt(2)),
	)}

	result, err := newTestExecutor(chain, &fakeConfirm{approve: true}).Execute(context.Background(), testRoute())
	require.NoError(t, err)
	require.Nil(t, result.AmountOut)
	require.Equal(t, UnknownAmount, result.AmountOutDisplay)
}

func TestExecuteDeclinedPromptSendsNothing(t *testing.T) {
	chain := &fakeChain{receipt: successReceipt()}

	_, err := newTestExecutor(chain, &fakeConfirm{approve: false}).Execute(context.Background(), testRoute())
	require.ErrorIs(t, err, ErrAborted)
	require.Zero(t, chain.allowanceCalls, "declining must not touch allowances")
	require.Empty(t, chain.sent, "declining must not broadcast anything")
}

func TestExecuteFailedReceipt(t *testing.T) {
	chain := &fakeChain{receipt: &types.Receipt{
		Status:            types.ReceiptStatusFailed,
		GasUsed:           100_000,
		EffectiveGasPrice: big.NewInt(1),
	}}

	result, err := newTestExecutor(chain, &fakeConfirm{approve: true}).Execute(context.Background(), testRoute())
	require.ErrorIs(t, err, ErrSwapFailed)
	require.Nil(t, result, "no amount may be reported for a failed swap")
}

func TestExecuteMissingCalldata(t *testing.T) {
	chain := &fakeChain{receipt: successReceipt()}
	route := testRoute()
	route.Calldata = nil

	_, err := newTestExecutor(chain, &fakeConfirm{approve: true}).Execute(context.Background(), route)
	require.ErrorIs(t, err, ErrMissingCalldata)
	require.Empty(t, chain.sent)
}

func TestExecutePropagatesFeeFailure(t *testing.T) {
	chain := &fakeChain{feesErr: fmt.Errorf("%w: node down", evm.ErrMissingFeeData)}

	_, err := newTestExecutor(chain, &fakeConfirm{approve: true}).Execute(context.Background(), testRoute())
	require.ErrorIs(t, err, evm.ErrMissingFeeData)
	require.Empty(t, chain.sent)
}

func TestExecutePropagatesPriceFailure(t *testing.T) {
	chain := &fakeChain{receipt: successReceipt()}
	confirm := &fakeConfirm{approve: true}
	exec := NewExecutor(chain, &fakePrice{err: fmt.Errorf("stale feed")}, confirm, quietLogger(), &bytes.Buffer{})

	_, err := exec.Execute(context.Background(), testRoute())
	require.Error(t, err)
	require.Empty(t, confirm.asked, "price failure aborts before the prompt")
}

type fakeRoutes struct {
	route *router.Route
	err   error
	calls int
}

func (f *fakeRoutes) BestRoute(
	_ context.Context,
	in, out token.Token,
	amountIn *big.Int,
	_ router.TradeOptions,
) (*router.Route, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	route := f.route
	route.TokenIn, route.TokenOut, route.AmountIn = in, out, amountIn
	return route, nil
}

func TestFunderWrapsAndSwaps(t *testing.T) {
	amountOut := big.NewInt(2_500_000_000) // 2500 USDC out of the funding swap
	pool := common.HexToAddress("0x4444444444444444444444444444444444444444")
	chain := &fakeChain{receipt: successReceipt(
		transferLog(usdcAddr, pool, signerAddr, amountOut),
	)}
	confirm := &fakeConfirm{approve: true}
	exec := newTestExecutor(chain, confirm)
	routes := &fakeRoutes{route: testRoute()}

	err := NewFunder(chain, routes, exec, quietLogger()).Fund(context.Background(), weth, usdc)
	require.NoError(t, err)
	require.Equal(t, 1, routes.calls)
	require.Len(t, chain.sent, 2, "wrap plus swap")

	wrap := chain.sent[0]
	require.Equal(t, wethAddr, wrap.to)
	require.Zero(t, fundingWrapWei.Cmp(wrap.value), "wraps exactly one native unit")
	require.Len(t, confirm.asked, 1, "funding swap prompts once")
}

func TestFunderSkipsSwapForWrappedTarget(t *testing.T) {
	chain := &fakeChain{receipt: successReceipt()}
	routes := &fakeRoutes{route: testRoute()}
	exec := newTestExecutor(chain, &fakeConfirm{approve: true})

	err := NewFunder(chain, routes, exec, quietLogger()).Fund(context.Background(), weth, weth)
	require.NoError(t, err)
	require.Zero(t, routes.calls)
	require.Len(t, chain.sent, 1, "wrap only")
}

func TestFunderWrapRevertAborts(t *testing.T) {
	chain := &fakeChain{receipt: &types.Receipt{
		Status:            types.ReceiptStatusFailed,
		EffectiveGasPrice: big.NewInt(1),
	}}
	routes := &fakeRoutes{route: testRoute()}
	exec := newTestExecutor(chain, &fakeConfirm{approve: true})

	err := NewFunder(chain, routes, exec, quietLogger()).Fund(context.Background(), weth, usdc)
	require.Error(t, err)
	require.Zero(t, routes.calls, "no routing after a failed wrap")
}
