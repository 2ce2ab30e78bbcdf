package bank

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ovenworks/sliceledger/internal/storage"
	"github.com/ovenworks/sliceledger/pkg/types"
)

var (
	addrA = types.Address{0x0A}
	addrB = types.Address{0x0B}
	addrC = types.Address{0x0C}
)

func TestVault_FundAndBalance(t *testing.T) {
	v := NewVault(storage.NewMemory())

	bal, err := v.BalanceOf(addrA)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if bal != 0 {
		t.Errorf("balance = %s, want 0", bal)
	}

	if err := v.Fund(addrA, types.Coin); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	if err := v.Fund(addrA, types.MilliCoin); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	bal, err = v.BalanceOf(addrA)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if bal != types.Coin+types.MilliCoin {
		t.Errorf("balance = %d, want %d", bal, types.Coin+types.MilliCoin)
	}
}

func TestTx_TransferCommit(t *testing.T) {
	v := NewVault(storage.NewMemory())
	if err := v.Fund(addrA, types.Coin); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	tx := v.Begin()
	if err := tx.Transfer(addrA, addrB, types.MilliCoin); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	// Staged moves are not visible outside the transaction.
	bal, _ := v.BalanceOf(addrB)
	if bal != 0 {
		t.Errorf("balance before commit = %d, want 0", bal)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	balA, _ := v.BalanceOf(addrA)
	balB, _ := v.BalanceOf(addrB)
	if balA != types.Coin-types.MilliCoin {
		t.Errorf("A = %d, want %d", balA, types.Coin-types.MilliCoin)
	}
	if balB != types.MilliCoin {
		t.Errorf("B = %d, want %d", balB, types.MilliCoin)
	}
}

func TestTx_Rollback(t *testing.T) {
	v := NewVault(storage.NewMemory())
	if err := v.Fund(addrA, types.Coin); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	tx := v.Begin()
	if err := tx.Transfer(addrA, addrB, types.MilliCoin); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	tx.Rollback()

	balA, _ := v.BalanceOf(addrA)
	balB, _ := v.BalanceOf(addrB)
	if balA != types.Coin || balB != 0 {
		t.Errorf("balances after rollback = %d/%d, want %d/0", balA, balB, types.Coin)
	}

	if err := tx.Transfer(addrA, addrB, 1); !errors.Is(err, ErrTxDone) {
		t.Errorf("Transfer after rollback: err = %v, want ErrTxDone", err)
	}
	if err := tx.Commit(); !errors.Is(err, ErrTxDone) {
		t.Errorf("Commit after rollback: err = %v, want ErrTxDone", err)
	}
}

func TestTx_InsufficientFunds(t *testing.T) {
	v := NewVault(storage.NewMemory())
	if err := v.Fund(addrA, 100); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	tx := v.Begin()
	defer tx.Rollback()

	err := tx.Transfer(addrA, addrB, 101)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestTx_ChainedTransfers(t *testing.T) {
	v := NewVault(storage.NewMemory())
	if err := v.Fund(addrA, 100); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	// B has nothing committed; the staged credit from A funds the
	// second hop.
	tx := v.Begin()
	if err := tx.Transfer(addrA, addrB, 60); err != nil {
		t.Fatalf("first hop: %v", err)
	}
	if err := tx.Transfer(addrB, addrC, 40); err != nil {
		t.Fatalf("second hop: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	balA, _ := v.BalanceOf(addrA)
	balB, _ := v.BalanceOf(addrB)
	balC, _ := v.BalanceOf(addrC)
	if balA != 40 || balB != 20 || balC != 40 {
		t.Errorf("balances = %d/%d/%d, want 40/20/40", balA, balB, balC)
	}
}

func TestTx_ReceiverRejection(t *testing.T) {
	v := NewVault(storage.NewMemory())
	if err := v.Fund(addrA, 100); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	v.SetReceiver(addrB, func(from types.Address, amount types.Amount) error {
		return fmt.Errorf("closed for business")
	})

	tx := v.Begin()
	err := tx.Transfer(addrA, addrB, 50)
	if !errors.Is(err, ErrReceiverRejected) {
		t.Fatalf("err = %v, want ErrReceiverRejected", err)
	}

	// The rejected move must be unwound inside the transaction too.
	if err := tx.Transfer(addrA, addrC, 100); err != nil {
		t.Fatalf("Transfer after rejection: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	balC, _ := v.BalanceOf(addrC)
	if balC != 100 {
		t.Errorf("C = %d, want 100", balC)
	}
}

func TestTx_ReceiverAccepts(t *testing.T) {
	v := NewVault(storage.NewMemory())
	if err := v.Fund(addrA, 100); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	var gotFrom types.Address
	var gotAmount types.Amount
	v.SetReceiver(addrB, func(from types.Address, amount types.Amount) error {
		gotFrom = from
		gotAmount = amount
		return nil
	})

	tx := v.Begin()
	if err := tx.Transfer(addrA, addrB, 30); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if gotFrom != addrA || gotAmount != 30 {
		t.Errorf("hook saw %s/%d, want %s/30", gotFrom, gotAmount, addrA)
	}

	// ClearReceiver removes the hook.
	v.ClearReceiver(addrB)
	tx = v.Begin()
	gotAmount = 0
	if err := tx.Transfer(addrA, addrB, 10); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if gotAmount != 0 {
		t.Error("hook fired after ClearReceiver")
	}
}

func TestTx_SelfTransfer(t *testing.T) {
	v := NewVault(storage.NewMemory())
	if err := v.Fund(addrA, 100); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	tx := v.Begin()
	if err := tx.Transfer(addrA, addrA, 100); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	bal, _ := v.BalanceOf(addrA)
	if bal != 100 {
		t.Errorf("balance = %d, want 100", bal)
	}
}
