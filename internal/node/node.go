// Package node wires a full sliceledger node: storage, bank, ledger
// engine, and RPC server, driven by a Config.
package node

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ovenworks/sliceledger/config"
	"github.com/ovenworks/sliceledger/internal/bank"
	"github.com/ovenworks/sliceledger/internal/ledger"
	slog "github.com/ovenworks/sliceledger/internal/log"
	"github.com/ovenworks/sliceledger/internal/rpc"
	"github.com/ovenworks/sliceledger/internal/storage"
	"github.com/ovenworks/sliceledger/pkg/types"
)

// Node is a fully-initialized sliceledger node.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	db     storage.DB
	vault  *bank.Vault
	store  *ledger.Store
	engine *ledger.Engine

	rpcServer *rpc.Server
}

// New creates and initializes a Node. It opens storage, pins the ledger
// rules, and constructs the RPC server, but does not begin serving.
// Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	types.SetAddressHRP(cfg.Network.AddressHRP())

	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = logsDir + "/sliceledger.log"
	}
	if err := slog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := slog.WithComponent("node")

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("datadir", cfg.DataDir).
		Msg("Starting sliceledger node")

	db, err := storage.NewBadger(cfg.LedgerDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.LedgerDir(), err)
	}
	logger.Info().Str("path", cfg.LedgerDir()).Msg("Database opened")

	// Bank and ledger share the database under separate keyspaces.
	vault := bank.NewVault(storage.NewPrefixDB(db, []byte("bank/")))
	store := ledger.NewStore(storage.NewPrefixDB(db, []byte("ledger/")))

	owner, unitPrice, err := pinLedgerRules(cfg, store)
	if err != nil {
		db.Close()
		return nil, err
	}

	engine, err := ledger.NewEngine(store, vault, owner, unitPrice)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger engine: %w", err)
	}

	logger.Info().
		Str("owner", owner.String()).
		Str("unit_price", unitPrice.String()).
		Bool("faucet", cfg.Bank.Faucet).
		Msg("Ledger ready")

	var rpcServer *rpc.Server
	if cfg.RPC.Enabled {
		rpcAddr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		rpcServer = rpc.New(rpcAddr, engine, store, vault, cfg.Bank.Faucet, cfg.RPC)
	} else {
		logger.Warn().Msg("RPC disabled by config; node is only reachable in-process")
	}

	return &Node{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		vault:     vault,
		store:     store,
		engine:    engine,
		rpcServer: rpcServer,
	}, nil
}

// pinLedgerRules resolves the issuer address and unit price and pins them
// in the database on first start. A node reopened under different rules
// refuses to run: the rules are part of the ledger's identity.
func pinLedgerRules(cfg *config.Config, store *ledger.Store) (types.Address, types.Amount, error) {
	unitPrice, err := cfg.ParsedUnitPrice()
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("parse unit price: %w", err)
	}

	var owner types.Address
	if cfg.Ledger.Owner != "" {
		owner, err = types.ParseAddress(cfg.Ledger.Owner)
		if err != nil {
			return types.Address{}, 0, fmt.Errorf("parse owner address: %w", err)
		}
	}

	storedOwner, haveOwner, err := store.Owner()
	if err != nil {
		return types.Address{}, 0, err
	}
	storedPrice, havePrice, err := store.UnitPrice()
	if err != nil {
		return types.Address{}, 0, err
	}

	if !haveOwner {
		// First start: the config must name the issuer.
		if owner.IsZero() {
			return types.Address{}, 0, fmt.Errorf("ledger.owner is required on first start")
		}
		if err := store.SetOwner(owner); err != nil {
			return types.Address{}, 0, err
		}
	} else {
		if !owner.IsZero() && owner != storedOwner {
			return types.Address{}, 0, fmt.Errorf(
				"ledger.owner %s conflicts with pinned owner %s", owner, storedOwner)
		}
		owner = storedOwner
	}

	if !havePrice {
		if err := store.SetUnitPrice(uint64(unitPrice)); err != nil {
			return types.Address{}, 0, err
		}
	} else {
		if cfg.Ledger.UnitPrice != "" && uint64(unitPrice) != storedPrice {
			return types.Address{}, 0, fmt.Errorf(
				"ledger.unitprice %s conflicts with pinned price %s",
				unitPrice, types.Amount(storedPrice))
		}
		unitPrice = types.Amount(storedPrice)
	}

	return owner, unitPrice, nil
}

// Start begins serving RPC.
func (n *Node) Start() error {
	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			return fmt.Errorf("start RPC: %w", err)
		}
		n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server started")
	}

	n.logger.Info().Msg("Node started successfully")
	return nil
}

// Stop performs graceful shutdown in reverse order.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if n.db != nil {
		n.db.Close()
	}
	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Engine returns the ledger engine, for embedding the node in-process.
func (n *Node) Engine() *ledger.Engine {
	return n.engine
}

// Vault returns the bank vault.
func (n *Node) Vault() *bank.Vault {
	return n.vault
}
