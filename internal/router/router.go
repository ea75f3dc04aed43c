// Package router is the smart-order-routing facade. It owns no pool math:
// each Provider delegates quoting to an on-chain routing contract and
// returns a ready-to-submit Route; the Router fans out across providers and
// keeps the best quote. Callers see a single blocking BestRoute call.
package router

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/MattPereira/swapcli/internal/token"
)

// ErrNoRoute signals that no provider produced a viable route.
var ErrNoRoute = errors.New("no route found")

// Default trade parameters.
const (
	DefaultSlippageBips = 50 // 0.50%
	DefaultDeadline     = 30 * time.Minute
)

// TradeOptions fixes the parameters of an exact-input trade.
type TradeOptions struct {
	Recipient    common.Address
	SlippageBips uint64
	Deadline     time.Duration
}

// DefaultTradeOptions returns the standard options with the given recipient.
func DefaultTradeOptions(recipient common.Address) TradeOptions {
	return TradeOptions{
		Recipient:    recipient,
		SlippageBips: DefaultSlippageBips,
		Deadline:     DefaultDeadline,
	}
}

// Route is a computed trade ready for submission. Consumers treat it as
// opaque apart from the fields below; how the venue splits the trade across
// pools is the venue's business.
type Route struct {
	TokenIn      token.Token
	TokenOut     token.Token
	AmountIn     *big.Int
	Quote        *big.Int // expected output in tokenOut base units
	AmountOutMin *big.Int // quote after slippage deduction
	Target       common.Address
	Calldata     []byte
	Value        *big.Int
	GasEstimate  uint64
	Venue        string
}

// Provider computes a route on a single venue.
type Provider interface {
	Name() string
	Quote(ctx context.Context, in, out token.Token, amountIn *big.Int, opts TradeOptions) (*Route, error)
}

// Router aggregates providers and selects the best quote.
type Router struct {
	providers []Provider
}

func New(providers ...Provider) *Router {
	return &Router{providers: providers}
}

// BestRoute asks every provider for a quote and returns the route with the
// highest expected output. Providers are queried concurrently; the call as
// a whole blocks until all have answered. ErrNoRoute is returned when every
// provider fails or quotes zero.
func (r *Router) BestRoute(
	ctx context.Context,
	in, out token.Token,
	amountIn *big.Int,
	opts TradeOptions,
) (*Route, error) {
	if len(r.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrNoRoute)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}

	type result struct {
		route *Route
		err   error
	}
	results := make([]result, len(r.providers))

	g, ctx := errgroup.WithContext(ctx)
	for i, provider := range r.providers {
		g.Go(func() error {
			route, err := provider.Quote(ctx, in, out, amountIn, opts)
			results[i] = result{route: route, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("errgroup failed: %w", err)
	}

	var best *Route
	var lastErr error
	for _, res := range results {
		if res.err != nil {
			lastErr = res.err
			continue
		}
		if res.route == nil || res.route.Quote == nil || res.route.Quote.Sign() <= 0 {
			continue
		}
		if best == nil || res.route.Quote.Cmp(best.Quote) > 0 {
			best = res.route
		}
	}

	if best == nil {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: all providers failed, last error: %v", ErrNoRoute, lastErr)
		}
		return nil, ErrNoRoute
	}
	return best, nil
}
