package ledger

import (
	"errors"
	"fmt"

	"github.com/ovenworks/sliceledger/pkg/types"
)

// ErrReentrantCall is returned when a mutating operation is invoked while
// another mutating operation is still executing on the same engine. Nested
// calls are rejected outright rather than queued; the caller that triggered
// the outer operation keeps exclusive access until it finishes.
var ErrReentrantCall = errors.New("reentrant call into ledger engine")

// UnauthorizedError is returned when the issuer attempts to mint credits
// for itself.
type UnauthorizedError struct {
	Caller types.Address
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: issuer %s cannot mint credits for itself", e.Caller)
}

// BelowMinimumError is returned when an attached payment does not cover
// the price of a single credit.
type BelowMinimumError struct {
	Payment types.Amount
	Minimum types.Amount
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("payment %s %s below minimum %s %s",
		e.Payment, types.CoinSymbol, e.Minimum, types.CoinSymbol)
}

// InsufficientBalanceError is returned when a debit exceeds the caller's
// credit balance.
type InsufficientBalanceError struct {
	Requested uint64
	Available uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d, available %d", e.Requested, e.Available)
}
