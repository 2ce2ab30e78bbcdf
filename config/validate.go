package config

import (
	"fmt"

	"github.com/ovenworks/sliceledger/pkg/types"
)

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}

	if cfg.Ledger.Owner != "" {
		if _, err := types.ParseAddress(cfg.Ledger.Owner); err != nil {
			return fmt.Errorf("ledger.owner: %w", err)
		}
	}

	price, err := cfg.ParsedUnitPrice()
	if err != nil {
		return fmt.Errorf("ledger.unitprice: %w", err)
	}
	if price == 0 {
		return fmt.Errorf("ledger.unitprice must be positive")
	}

	if cfg.Bank.Faucet && cfg.Network == Mainnet {
		return fmt.Errorf("bank.faucet cannot be enabled on mainnet")
	}

	return nil
}
