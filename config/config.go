// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Ledger rules: owner and unit price, fixed once the ledger is created
//   - Node settings: runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ovenworks/sliceledger/pkg/types"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// AddressHRP returns the bech32 HRP for addresses on this network.
func (n NetworkType) AddressHRP() string {
	if n == Testnet {
		return types.TestnetHRP
	}
	return types.MainnetHRP
}

// Config holds node configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// RPC server
	RPC RPCConfig

	// Ledger rules
	Ledger LedgerConfig

	// Bank
	Bank BankConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// LedgerConfig holds the ledger rules. Owner and unit price are pinned in
// the database on first start; changing them afterwards is refused.
type LedgerConfig struct {
	Owner     string `conf:"ledger.owner"`     // Issuer address (bech32 or hex).
	UnitPrice string `conf:"ledger.unitprice"` // Decimal DOH per credit, e.g. "0.0005".
}

// BankConfig holds native currency settings.
type BankConfig struct {
	Faucet bool `conf:"bank.faucet"` // Enable the bank_fund RPC method (testnet).
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// ParsedUnitPrice returns the configured unit price in base units, falling
// back to the default when unset.
func (c *Config) ParsedUnitPrice() (types.Amount, error) {
	if c.Ledger.UnitPrice == "" {
		return DefaultUnitPrice, nil
	}
	return types.ParseAmount(c.Ledger.UnitPrice)
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.sliceledger
//	macOS:   ~/Library/Application Support/Sliceledger
//	Windows: %APPDATA%\Sliceledger
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sliceledger"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Sliceledger")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Sliceledger")
		}
		return filepath.Join(home, "AppData", "Roaming", "Sliceledger")
	default:
		return filepath.Join(home, ".sliceledger")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// LedgerDir returns the ledger database directory.
func (c *Config) LedgerDir() string {
	return filepath.Join(c.NetworkDataDir(), "ledger")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "sliceledger.conf")
}
