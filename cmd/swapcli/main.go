// swapcli executes token swaps on EVM chains. Route computation is
// delegated to on-chain routing contracts; this binary is the glue:
// validate symbols, resolve metadata, pick the best route, confirm with the
// operator, submit and report.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MattPereira/swapcli/internal/addrbook"
	"github.com/MattPereira/swapcli/internal/evm"
	"github.com/MattPereira/swapcli/internal/pricefeed"
	"github.com/MattPereira/swapcli/internal/router"
	"github.com/MattPereira/swapcli/internal/router/uniswap"
	"github.com/MattPereira/swapcli/internal/swap"
	"github.com/MattPereira/swapcli/internal/token"
	"github.com/MattPereira/swapcli/internal/util"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	root := &cobra.Command{
		Use:           "swapcli",
		Short:         "Execute token swaps on EVM chains",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSwapCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Fatalf("swap failed: %v", err)
	}
}

func newSwapCmd(logger *logrus.Logger) *cobra.Command {
	var (
		tokenIn  string
		amountIn string
		tokenOut string
		network  string
	)

	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap an exact amount of one token for another",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSwap(ctx, logger, tokenIn, amountIn, tokenOut, network)
		},
	}

	cmd.Flags().StringVar(&tokenIn, "token-in", "", "symbol of the token to sell")
	cmd.Flags().StringVar(&amountIn, "amount", "", "human-readable amount of token-in to sell")
	cmd.Flags().StringVar(&tokenOut, "token-out", "", "symbol of the token to buy")
	cmd.Flags().StringVar(&network, "network", "localhost", "network to swap on (localhost or mainnet)")
	for _, flag := range []string{"token-in", "amount", "token-out"} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
	return cmd
}

func runSwap(ctx context.Context, logger *logrus.Logger, tokenIn, amountIn, tokenOut, networkName string) error {
	cfg, err := newConfig()
	if err != nil {
		return err
	}
	netCfg, err := cfg.network(networkName)
	if err != nil {
		return err
	}

	book, err := addrbook.Default().Lookup(netCfg.ChainID)
	if err != nil {
		return err
	}

	// Fail fast on operator typos before any network call, the dial included.
	inSymbol := strings.ToUpper(strings.TrimSpace(tokenIn))
	outSymbol := strings.ToUpper(strings.TrimSpace(tokenOut))
	if err := book.ValidateSymbol(inSymbol); err != nil {
		return err
	}
	if err := book.ValidateSymbol(outSymbol); err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn("stdin is not a terminal; confirmations will be read from piped input")
	}

	network, err := evm.Dial(ctx, netCfg.URL, cfg.Wallet.PrivateKey)
	if err != nil {
		return err
	}
	if network.ChainID != netCfg.ChainID {
		return fmt.Errorf("node at %s reports chain %d, expected %d for network %s",
			netCfg.URL, network.ChainID, netCfg.ChainID, networkName)
	}
	logger.WithFields(logrus.Fields{
		"chain_id": network.ChainID,
		"signer":   network.SignerAddress().Hex(),
	}).Info("connected")

	resolver := token.NewResolver(network.Client, network.ChainID)
	inToken, err := resolveBySymbol(ctx, resolver, book, inSymbol)
	if err != nil {
		return err
	}
	outToken, err := resolveBySymbol(ctx, resolver, book, outSymbol)
	if err != nil {
		return err
	}

	amountBase, err := util.ToBaseUnits(amountIn, inToken.Decimals)
	if err != nil {
		return err
	}
	if amountBase.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	routes, err := buildRouter(ctx, network, book, netCfg.RouteURL)
	if err != nil {
		return err
	}

	feedAddr, err := book.Contract(addrbook.ContractNativeUSDFeed)
	if err != nil {
		return err
	}
	feed := pricefeed.New(network.Client, feedAddr)

	executor := swap.NewExecutor(network, feed, swap.NewStdinConfirmer(), logger, os.Stdout)

	if network.ChainID == addrbook.LocalFork {
		logger.Info("local simulation network detected, funding input token")
		wethToken, err := resolveBySymbol(ctx, resolver, book, "WETH")
		if err != nil {
			return err
		}
		funder := swap.NewFunder(network, routes, executor, logger)
		if err := funder.Fund(ctx, wethToken, inToken); err != nil {
			return err
		}
	}

	balance, err := network.Balance.ERC20(ctx, inToken.Address, network.SignerAddress())
	if err != nil {
		return err
	}
	if balance.Cmp(amountBase) < 0 {
		return fmt.Errorf("insufficient %s balance: have %s, need %s",
			inSymbol, util.FromBaseUnits(balance, inToken.Decimals), amountIn)
	}

	logger.WithFields(logrus.Fields{
		"token_in":  inSymbol,
		"token_out": outSymbol,
		"amount":    amountIn,
	}).Info("computing best route")

	route, err := routes.BestRoute(ctx, inToken, outToken, amountBase,
		router.DefaultTradeOptions(network.SignerAddress()))
	if err != nil {
		return err
	}

	if _, err := executor.Execute(ctx, route); err != nil {
		return err
	}
	return nil
}

func resolveBySymbol(ctx context.Context, resolver *token.Resolver, book addrbook.Book, symbol string) (token.Token, error) {
	addr, err := book.Token(symbol)
	if err != nil {
		return token.Token{}, err
	}
	resolved, err := resolver.Resolve(ctx, addr)
	if err != nil {
		return token.Token{}, fmt.Errorf("failed to resolve %s metadata: %w", symbol, err)
	}
	return resolved, nil
}

// buildRouter wires the route providers. Quoting normally reuses the main
// connection; a configured route URL points it at the forked upstream
// instead.
func buildRouter(ctx context.Context, network *evm.Network, book addrbook.Book, routeURL string) (*router.Router, error) {
	var quoteClient uniswap.ContractCaller = network.Client
	if routeURL != "" {
		upstream, err := ethclient.DialContext(ctx, routeURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to route RPC %s: %w", routeURL, err)
		}
		quoteClient = upstream
	}

	v2Router, err := book.Contract(addrbook.ContractUniswapV2Router)
	if err != nil {
		return nil, err
	}
	wethAddr, err := book.Contract(addrbook.ContractWrappedNative)
	if err != nil {
		return nil, err
	}
	quoter, err := book.Contract(addrbook.ContractUniswapV3Quoter)
	if err != nil {
		return nil, err
	}
	v3Router, err := book.Contract(addrbook.ContractUniswapV3Router)
	if err != nil {
		return nil, err
	}

	return router.New(
		uniswap.NewProviderV2(book.ChainID, quoteClient, v2Router, wethAddr),
		uniswap.NewProviderV3(book.ChainID, quoteClient, quoter, v3Router),
	), nil
}
