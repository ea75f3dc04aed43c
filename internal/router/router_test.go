package router

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/MattPereira/swapcli/internal/token"
)

type stubProvider struct {
	name  string
	quote *big.Int
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Quote(
	_ context.Context,
	in, out token.Token,
	amountIn *big.Int,
	opts TradeOptions,
) (*Route, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Route{
		TokenIn:  in,
		TokenOut: out,
		AmountIn: amountIn,
		Quote:    s.quote,
		Venue:    s.name,
	}, nil
}

var (
	tokenIn  = token.Token{Symbol: "USDC", Decimals: 6, ChainID: 1}
	tokenOut = token.Token{Symbol: "RETH", Decimals: 18, ChainID: 1}
)

func TestBestRoutePicksHighestQuote(t *testing.T) {
	v2 := &stubProvider{name: "uniswap-v2", quote: big.NewInt(100)}
	v3 := &stubProvider{name: "uniswap-v3", quote: big.NewInt(105)}

	route, err := New(v2, v3).BestRoute(
		context.Background(), tokenIn, tokenOut, big.NewInt(1), DefaultTradeOptions(common.Address{}))
	require.NoError(t, err)
	require.Equal(t, "uniswap-v3", route.Venue)
	require.Equal(t, int64(105), route.Quote.Int64())
	require.Equal(t, 1, v2.calls)
	require.Equal(t, 1, v3.calls)
}

func TestBestRouteSurvivesPartialFailure(t *testing.T) {
	failing := &stubProvider{name: "uniswap-v3", err: fmt.Errorf("quoter reverted")}
	working := &stubProvider{name: "uniswap-v2", quote: big.NewInt(42)}

	route, err := New(failing, working).BestRoute(
		context.Background(), tokenIn, tokenOut, big.NewInt(1), DefaultTradeOptions(common.Address{}))
	require.NoError(t, err)
	require.Equal(t, "uniswap-v2", route.Venue)
}

func TestBestRouteNoRoute(t *testing.T) {
	tests := []struct {
		name      string
		providers []Provider
	}{
		{name: "no providers", providers: nil},
		{
			name: "all providers fail",
			providers: []Provider{
				&stubProvider{name: "a", err: fmt.Errorf("no pair")},
				&stubProvider{name: "b", err: fmt.Errorf("no pool")},
			},
		},
		{
			name: "zero quotes",
			providers: []Provider{
				&stubProvider{name: "a", quote: big.NewInt(0)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.providers...).BestRoute(
				context.Background(), tokenIn, tokenOut, big.NewInt(1), DefaultTradeOptions(common.Address{}))
			require.ErrorIs(t, err, ErrNoRoute)
		})
	}
}

func TestBestRouteRejectsNonPositiveAmount(t *testing.T) {
	provider := &stubProvider{name: "uniswap-v2", quote: big.NewInt(1)}
	r := New(provider)

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		_, err := r.BestRoute(
			context.Background(), tokenIn, tokenOut, amount, DefaultTradeOptions(common.Address{}))
		require.Error(t, err)
	}
	require.Zero(t, provider.calls, "invalid amounts must fail before querying providers")
}

func TestDefaultTradeOptions(t *testing.T) {
	recipient := common.HexToAddress("0x1111111111111111111111111111111111111111")
	opts := DefaultTradeOptions(recipient)
	require.Equal(t, recipient, opts.Recipient)
	require.Equal(t, uint64(50), opts.SlippageBips)
	require.Equal(t, DefaultDeadline, opts.Deadline)
}
