// Package ledger implements the settlement and accounting core.
//
// A single issuer (the owner) sells fungible credits for dough at a fixed
// unit price. Participants mint credits by attaching payment, transfer
// credits among themselves, and purchase (burn) credits to redeem goods.
// Every operation is atomic: it either applies completely, including the
// native value movement of a mint, or leaves the ledger untouched.
package ledger

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ovenworks/sliceledger/internal/bank"
	"github.com/ovenworks/sliceledger/internal/log"
	"github.com/ovenworks/sliceledger/pkg/crypto"
	"github.com/ovenworks/sliceledger/pkg/types"
)

// EscrowAddress is the module account that holds an attached payment while
// a mint settles. No key exists for it; value only passes through inside a
// single bank transaction.
var EscrowAddress = func() types.Address {
	h := crypto.Hash([]byte("sliceledger/escrow"))
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}()

// Engine is the ledger engine. The owner and unit price are fixed at
// construction and never change for the lifetime of the ledger.
//
// Mutating operations are indivisible: while one is executing, any other
// mutating call, including a nested call made from a value-receipt hook,
// fails with ErrReentrantCall. The engine does not queue callers; a
// concurrent runtime must serialize mutating operations behind a single
// lock or writer (the RPC server does exactly that).
type Engine struct {
	store     *Store
	vault     *bank.Vault
	owner     types.Address
	unitPrice types.Amount

	busy   atomic.Bool
	logger zerolog.Logger
}

// NewEngine creates a ledger engine. unitPrice is the dough cost of one
// credit and doubles as the minimum accepted payment.
func NewEngine(store *Store, vault *bank.Vault, owner types.Address, unitPrice types.Amount) (*Engine, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("owner address required")
	}
	if unitPrice == 0 {
		return nil, fmt.Errorf("unit price must be positive")
	}
	return &Engine{
		store:     store,
		vault:     vault,
		owner:     owner,
		unitPrice: unitPrice,
		logger:    log.Ledger,
	}, nil
}

// Owner returns the issuer address.
func (e *Engine) Owner() types.Address {
	return e.owner
}

// UnitPrice returns the dough cost of one credit.
func (e *Engine) UnitPrice() types.Amount {
	return e.unitPrice
}

// begin marks a mutating operation in progress, rejecting overlap.
func (e *Engine) begin() error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (e *Engine) end() {
	e.busy.Store(false)
}

// Mint converts an attached payment into credits for the caller.
//
// credited = floor(payment / unitPrice); the exact cost goes to the owner
// and the non-divisible remainder is refunded to the caller. The caller's
// credit balance is updated before any value leaves escrow
// (checks-effects-interactions), so a re-entrant observer sees post-mint
// balances, never a half-applied state. If either outgoing transfer is
// rejected, the bank transaction rolls back and the credit is compensated:
// nothing moves.
func (e *Engine) Mint(caller types.Address, payment types.Amount) (uint64, error) {
	if err := e.begin(); err != nil {
		return 0, err
	}
	defer e.end()

	if caller == e.owner {
		return 0, &UnauthorizedError{Caller: caller}
	}
	if payment < e.unitPrice {
		return 0, &BelowMinimumError{Payment: payment, Minimum: e.unitPrice}
	}

	credited := uint64(payment / e.unitPrice)
	cost := types.Amount(credited) * e.unitPrice
	refund := payment - cost

	btx := e.vault.Begin()

	// Collect the attached payment into escrow.
	if err := btx.Transfer(caller, EscrowAddress, payment); err != nil {
		btx.Rollback()
		return 0, fmt.Errorf("collect payment: %w", err)
	}

	// Effects before interactions: credit the ledger first.
	if err := e.store.Credit(caller, credited); err != nil {
		btx.Rollback()
		return 0, err
	}

	// Pay the issuer the exact cost.
	if err := btx.Transfer(EscrowAddress, e.owner, cost); err != nil {
		e.compensate(caller, credited)
		btx.Rollback()
		return 0, fmt.Errorf("pay issuer: %w", err)
	}

	// Return the remainder to the caller.
	if refund > 0 {
		if err := btx.Transfer(EscrowAddress, caller, refund); err != nil {
			e.compensate(caller, credited)
			btx.Rollback()
			return 0, fmt.Errorf("refund remainder: %w", err)
		}
	}

	if err := btx.Commit(); err != nil {
		e.compensate(caller, credited)
		return 0, err
	}

	e.logger.Info().
		Str("caller", caller.String()).
		Str("payment", payment.String()).
		Str("refund", refund.String()).
		Uint64("credited", credited).
		Msg("credits minted")
	return credited, nil
}

// compensate debits back a credit that was applied before a later step of
// the same mint failed.
func (e *Engine) compensate(caller types.Address, credited uint64) {
	if err := e.store.Debit(caller, credited); err != nil {
		e.logger.Error().
			Err(err).
			Str("caller", caller.String()).
			Uint64("credited", credited).
			Msg("failed to compensate mint credit")
	}
}

// Transfer moves amount credits from the caller to recipient. A transfer
// to self is a no-op. Total supply is unchanged.
func (e *Engine) Transfer(caller, recipient types.Address, amount uint64) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	avail, err := e.store.Balance(caller)
	if err != nil {
		return err
	}
	if avail < amount {
		return &InsufficientBalanceError{Requested: amount, Available: avail}
	}
	if err := e.store.Move(caller, recipient, amount); err != nil {
		return err
	}

	e.logger.Info().
		Str("from", caller.String()).
		Str("to", recipient.String()).
		Uint64("amount", amount).
		Msg("credits transferred")
	return nil
}

// Purchase redeems quantity credits from the caller's balance. The credits
// are burned; total supply decreases by exactly quantity. Fulfillment of
// the redeemed good is out of scope.
func (e *Engine) Purchase(caller types.Address, quantity uint64) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	avail, err := e.store.Balance(caller)
	if err != nil {
		return err
	}
	if avail < quantity {
		return &InsufficientBalanceError{Requested: quantity, Available: avail}
	}
	if err := e.store.Debit(caller, quantity); err != nil {
		return err
	}

	e.logger.Info().
		Str("caller", caller.String()).
		Uint64("quantity", quantity).
		Msg("credits redeemed")
	return nil
}

// BalanceOf returns an account's credit balance, zero if never credited.
// Pure read; allowed at any time, including from value-receipt hooks.
func (e *Engine) BalanceOf(account types.Address) (uint64, error) {
	return e.store.Balance(account)
}

// TotalSupply returns the sum of all credit balances.
func (e *Engine) TotalSupply() (uint64, error) {
	return e.store.TotalSupply()
}
