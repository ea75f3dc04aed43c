// Package addrbook maps token symbols and protocol component names to
// deployed contract addresses, keyed by chain ID. The book is plain data
// constructed at startup and passed into components; nothing here touches
// the network.
package addrbook

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Protocol component names resolvable through Book.Contract.
const (
	ContractUniswapV2Router = "UNISWAP_V2_ROUTER"
	ContractUniswapV3Quoter = "UNISWAP_V3_QUOTER"
	ContractUniswapV3Router = "UNISWAP_V3_ROUTER"
	ContractWrappedNative   = "WETH"
	ContractNativeUSDFeed   = "CHAINLINK_NATIVE_USD"
)

// Well-known chain IDs.
const (
	EthereumMainnet uint64 = 1
	LocalFork       uint64 = 31337
)

// InvalidSymbolError reports a symbol absent from the active chain's token set.
type InvalidSymbolError struct {
	Symbol  string
	ChainID uint64
	Known   []string
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf(
		"token symbol %q is not known on chain %d (known: %s)",
		e.Symbol, e.ChainID, strings.Join(e.Known, ", "),
	)
}

// Book holds the symbol and contract mappings for a single chain.
type Book struct {
	ChainID   uint64
	Tokens    map[string]common.Address
	Contracts map[string]common.Address
}

// Token returns the contract address for an uppercase token symbol.
func (b Book) Token(symbol string) (common.Address, error) {
	addr, ok := b.Tokens[symbol]
	if !ok {
		return common.Address{}, b.invalidSymbol(symbol)
	}
	return addr, nil
}

// Contract returns the address of a named protocol component.
func (b Book) Contract(name string) (common.Address, error) {
	addr, ok := b.Contracts[name]
	if !ok {
		return common.Address{}, fmt.Errorf("contract %q is not configured on chain %d", name, b.ChainID)
	}
	return addr, nil
}

// ValidateSymbol fails with an InvalidSymbolError when the symbol is not in
// the chain's token set. Applied to operator input before any network call.
func (b Book) ValidateSymbol(symbol string) error {
	if _, ok := b.Tokens[symbol]; !ok {
		return b.invalidSymbol(symbol)
	}
	return nil
}

func (b Book) invalidSymbol(symbol string) *InvalidSymbolError {
	known := make([]string, 0, len(b.Tokens))
	for sym := range b.Tokens {
		known = append(known, sym)
	}
	sort.Strings(known)
	return &InvalidSymbolError{Symbol: symbol, ChainID: b.ChainID, Known: known}
}

// AddressBook is the full per-chain registry.
type AddressBook map[uint64]Book

// Lookup returns the book for a chain ID.
func (a AddressBook) Lookup(chainID uint64) (Book, error) {
	book, ok := a[chainID]
	if !ok {
		return Book{}, fmt.Errorf("no address book entry for chain %d", chainID)
	}
	return book, nil
}

// Default returns the built-in address book. The local fork chain reuses the
// mainnet entries since it forks Ethereum mainnet state.
func Default() AddressBook {
	mainnetTokens := map[string]common.Address{
		"WETH": common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		"USDC": common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		"USDT": common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
		"DAI":  common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
		"WBTC": common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"),
		"LINK": common.HexToAddress("0x514910771AF9Ca656af840dff83E8264EcF986CA"),
		"UNI":  common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"),
		"RETH": common.HexToAddress("0xae78736Cd615f374D3085123A210448E74Fc6393"),
	}
	mainnetContracts := map[string]common.Address{
		ContractUniswapV2Router: common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		ContractUniswapV3Quoter: common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e"),
		ContractUniswapV3Router: common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564"),
		ContractWrappedNative:   common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		ContractNativeUSDFeed:   common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"),
	}

	return AddressBook{
		EthereumMainnet: {
			ChainID:   EthereumMainnet,
			Tokens:    mainnetTokens,
			Contracts: mainnetContracts,
		},
		LocalFork: {
			ChainID:   LocalFork,
			Tokens:    mainnetTokens,
			Contracts: mainnetContracts,
		},
	}
}
