package main

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/MattPereira/swapcli/internal/addrbook"
)

// Hardhat/anvil development account #0; only ever meaningful against a
// local simulation network.
const devPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type config struct {
	Networks networksConfig
	Wallet   walletConfig
}

type networksConfig struct {
	Localhost networkConfig
	Mainnet   networkConfig
}

type networkConfig struct {
	URL string
	// RouteURL optionally points route quoting at the upstream network a
	// local simulation forks, instead of the simulation endpoint itself.
	RouteURL string
	// ChainID selects the address book entry before any connection is
	// made; the dialed node must report the same ID.
	ChainID uint64
}

type walletConfig struct {
	PrivateKey string
}

func newConfig() (config, error) {
	cfg := config{
		Networks: networksConfig{
			Localhost: networkConfig{URL: "http://127.0.0.1:8545", ChainID: addrbook.LocalFork},
			Mainnet:   networkConfig{ChainID: addrbook.EthereumMainnet},
		},
		Wallet: walletConfig{PrivateKey: devPrivateKey},
	}
	err := envconfig.Process("swapcli", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}

// network resolves the --network selector to its RPC configuration.
func (c config) network(name string) (networkConfig, error) {
	switch strings.ToLower(name) {
	case "localhost", "":
		return c.Networks.Localhost, nil
	case "mainnet":
		if c.Networks.Mainnet.URL == "" {
			return networkConfig{}, fmt.Errorf("SWAPCLI_NETWORKS_MAINNET_URL is not set")
		}
		return c.Networks.Mainnet, nil
	default:
		return networkConfig{}, fmt.Errorf("unknown network %q (want localhost or mainnet)", name)
	}
}
