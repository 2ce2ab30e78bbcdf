package config

import "github.com/ovenworks/sliceledger/pkg/types"

// DefaultUnitPrice is the dough cost of one credit when the operator does
// not configure one: 0.0005 DOH.
const DefaultUnitPrice = 500 * types.MicroCoin

// DefaultMainnet returns the default node configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       8545,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Ledger: LedgerConfig{},
		Bank: BankConfig{
			Faucet: false,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default node configuration for testnet.
// The faucet is on so accounts can be funded without a payment channel.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.RPC.Port = 8645
	cfg.Bank.Faucet = true
	return cfg
}

// Default returns the default node configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
