// Package bank implements native currency (dough) custody.
//
// The Vault tracks per-account dough balances and moves value between
// accounts. Moves happen inside a Tx: they are staged in an overlay and
// only reach the database on Commit, so a multi-step settlement either
// lands whole or not at all. A recipient may register a ReceiveFunc that
// is invoked when value arrives; rejecting the value fails the move.
package bank

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ovenworks/sliceledger/internal/log"
	"github.com/ovenworks/sliceledger/internal/storage"
	"github.com/ovenworks/sliceledger/pkg/types"
)

var prefixBalance = []byte("v/") // v/<addr20> -> uint64 BE

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrReceiverRejected  = errors.New("recipient rejected value")
	ErrTxDone            = errors.New("bank transaction already finished")
)

// ReceiveFunc is invoked when an account receives value. Returning an
// error rejects the incoming transfer.
type ReceiveFunc func(from types.Address, amount types.Amount) error

// Vault holds dough balances in the database.
type Vault struct {
	db storage.DB

	mu        sync.RWMutex
	receivers map[types.Address]ReceiveFunc

	logger zerolog.Logger
}

// NewVault creates a vault over the given database.
func NewVault(db storage.DB) *Vault {
	return &Vault{
		db:        db,
		receivers: make(map[types.Address]ReceiveFunc),
		logger:    log.Bank,
	}
}

// BalanceOf returns the dough balance of an account. Accounts never
// funded have balance zero.
func (v *Vault) BalanceOf(addr types.Address) (types.Amount, error) {
	data, err := v.db.Get(balanceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("vault get: %w", err)
	}
	return decodeAmount(data)
}

// Fund credits an account with freshly issued dough. Used for genesis
// allocations and the testnet faucet.
func (v *Vault) Fund(addr types.Address, amount types.Amount) error {
	bal, err := v.BalanceOf(addr)
	if err != nil {
		return err
	}
	sum, err := bal.AddChecked(amount)
	if err != nil {
		return err
	}
	if err := v.db.Put(balanceKey(addr), encodeAmount(sum)); err != nil {
		return fmt.Errorf("vault put: %w", err)
	}
	v.logger.Debug().
		Str("address", addr.String()).
		Str("amount", amount.String()).
		Msg("account funded")
	return nil
}

// SetReceiver registers a value-receipt hook for an account.
func (v *Vault) SetReceiver(addr types.Address, fn ReceiveFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.receivers[addr] = fn
}

// ClearReceiver removes an account's value-receipt hook.
func (v *Vault) ClearReceiver(addr types.Address) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.receivers, addr)
}

func (v *Vault) receiver(addr types.Address) ReceiveFunc {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.receivers[addr]
}

// Begin starts a new transaction. The caller must finish it with either
// Commit or Rollback.
func (v *Vault) Begin() *Tx {
	return &Tx{
		vault:  v,
		staged: make(map[types.Address]types.Amount),
	}
}

// Tx stages balance moves until Commit writes them through.
type Tx struct {
	vault  *Vault
	staged map[types.Address]types.Amount
	done   bool
}

// balance returns the staged balance of addr, falling back to the
// committed value.
func (t *Tx) balance(addr types.Address) (types.Amount, error) {
	if bal, ok := t.staged[addr]; ok {
		return bal, nil
	}
	return t.vault.BalanceOf(addr)
}

// Transfer moves amount from one account to another within the
// transaction. The recipient's ReceiveFunc, if any, runs after the move
// is staged; a rejection unwinds the move and fails the call.
func (t *Tx) Transfer(from, to types.Address, amount types.Amount) error {
	if t.done {
		return ErrTxDone
	}

	fromBal, err := t.balance(from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, fromBal, amount)
	}

	// Snapshot the overlay entries so a rejected receipt can unwind.
	prevFrom, hadFrom := t.staged[from]
	prevTo, hadTo := t.staged[to]

	if from == to {
		// Net no-op on the balance; the receipt below still fires.
		t.staged[from] = fromBal
	} else {
		toBal, err := t.balance(to)
		if err != nil {
			return err
		}
		sum, err := toBal.AddChecked(amount)
		if err != nil {
			return err
		}
		t.staged[from] = fromBal - amount
		t.staged[to] = sum
	}

	if hook := t.vault.receiver(to); hook != nil {
		if err := hook(from, amount); err != nil {
			t.restore(from, prevFrom, hadFrom)
			t.restore(to, prevTo, hadTo)
			return fmt.Errorf("%w: %v", ErrReceiverRejected, err)
		}
	}
	return nil
}

func (t *Tx) restore(addr types.Address, prev types.Amount, had bool) {
	if had {
		t.staged[addr] = prev
	} else {
		delete(t.staged, addr)
	}
}

// Commit writes all staged balances through in one batch.
func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true

	batch := storage.NewBatch(t.vault.db)
	for addr, bal := range t.staged {
		if err := batch.Put(balanceKey(addr), encodeAmount(bal)); err != nil {
			return fmt.Errorf("vault batch put: %w", err)
		}
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("vault commit: %w", err)
	}
	return nil
}

// Rollback discards all staged moves.
func (t *Tx) Rollback() {
	t.done = true
	t.staged = nil
}

func balanceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixBalance)+types.AddressSize)
	copy(key, prefixBalance)
	copy(key[len(prefixBalance):], addr[:])
	return key
}

func encodeAmount(a types.Amount) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(a))
	return buf
}

func decodeAmount(data []byte) (types.Amount, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("vault balance must be 8 bytes, got %d", len(data))
	}
	return types.Amount(binary.BigEndian.Uint64(data)), nil
}
