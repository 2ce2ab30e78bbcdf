package rpc

import (
	"errors"
	"sort"
	"strconv"

	"github.com/ovenworks/sliceledger/internal/bank"
	"github.com/ovenworks/sliceledger/internal/ledger"
	"github.com/ovenworks/sliceledger/pkg/types"
)

// ── Ledger read endpoints ───────────────────────────────────────────────

func (s *Server) handleLedgerGetInfo(req *Request) (interface{}, *Error) {
	supply, err := s.engine.TotalSupply()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &LedgerInfoResult{
		Owner:         s.engine.Owner().String(),
		UnitPrice:     uint64(s.engine.UnitPrice()),
		UnitPriceText: s.engine.UnitPrice().String() + " " + types.CoinSymbol,
		TotalSupply:   supply,
		Escrow:        ledger.EscrowAddress.String(),
	}, nil
}

func (s *Server) handleLedgerGetBalance(req *Request) (interface{}, *Error) {
	var params AddressParam
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := types.ParseAddress(params.Address)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}

	bal, err := s.engine.BalanceOf(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &BalanceResult{Address: addr.String(), Balance: bal}, nil
}

func (s *Server) handleLedgerListBalances(req *Request) (interface{}, *Error) {
	var entries []BalanceEntry
	err := s.store.ForEach(func(addr types.Address, bal uint64) error {
		entries = append(entries, BalanceEntry{Address: addr.String(), Balance: bal})
		return nil
	})
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Address < entries[j].Address })
	return &ListBalancesResult{Count: len(entries), Balances: entries}, nil
}

func (s *Server) handleLedgerGetNonce(req *Request) (interface{}, *Error) {
	var params AddressParam
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := types.ParseAddress(params.Address)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}

	nonce, err := s.store.NextNonce(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &NonceResult{Address: addr.String(), Nonce: nonce}, nil
}

// ── Ledger mutating endpoints ───────────────────────────────────────────

func (s *Server) handleLedgerMint(req *Request) (interface{}, *Error) {
	var params MintParam
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}

	caller, rpcErr := s.authenticate("ledger_mint", params.AuthParams,
		strconv.FormatUint(params.Payment, 10))
	if rpcErr != nil {
		return nil, rpcErr
	}

	payment := types.Amount(params.Payment)
	credited, err := s.engine.Mint(caller, payment)
	if err != nil {
		return nil, ledgerError(err)
	}

	cost := types.Amount(credited) * s.engine.UnitPrice()
	return &MintResult{
		Caller:   caller.String(),
		Credited: credited,
		Cost:     uint64(cost),
		Refund:   uint64(payment - cost),
	}, nil
}

func (s *Server) handleLedgerTransfer(req *Request) (interface{}, *Error) {
	var params TransferParam
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	to, err := types.ParseAddress(params.To)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}

	caller, rpcErr := s.authenticate("ledger_transfer", params.AuthParams,
		to.Hex(), strconv.FormatUint(params.Amount, 10))
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.engine.Transfer(caller, to, params.Amount); err != nil {
		return nil, ledgerError(err)
	}
	return &TransferResult{From: caller.String(), To: to.String(), Amount: params.Amount}, nil
}

func (s *Server) handleLedgerPurchase(req *Request) (interface{}, *Error) {
	var params PurchaseParam
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}

	caller, rpcErr := s.authenticate("ledger_purchase", params.AuthParams,
		strconv.FormatUint(params.Quantity, 10))
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.engine.Purchase(caller, params.Quantity); err != nil {
		return nil, ledgerError(err)
	}

	remaining, err := s.engine.BalanceOf(caller)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &PurchaseResult{Caller: caller.String(), Quantity: params.Quantity, Remaining: remaining}, nil
}

// ── Bank endpoints ──────────────────────────────────────────────────────

func (s *Server) handleBankGetBalance(req *Request) (interface{}, *Error) {
	var params AddressParam
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := types.ParseAddress(params.Address)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}

	bal, err := s.vault.BalanceOf(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &BankBalanceResult{
		Address:     addr.String(),
		Balance:     uint64(bal),
		BalanceText: bal.String() + " " + types.CoinSymbol,
	}, nil
}

func (s *Server) handleBankFund(req *Request) (interface{}, *Error) {
	if !s.faucet {
		return nil, &Error{Code: CodeMethodNotFound, Message: "faucet is not enabled on this network"}
	}

	var params FundParam
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := types.ParseAddress(params.Address)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	if params.Amount == 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "amount must be positive"}
	}

	if err := s.vault.Fund(addr, types.Amount(params.Amount)); err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	bal, err := s.vault.BalanceOf(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	s.logger.Info().Str("address", addr.String()).Uint64("amount", params.Amount).Msg("faucet funded account")
	return &BankBalanceResult{
		Address:     addr.String(),
		Balance:     uint64(bal),
		BalanceText: bal.String() + " " + types.CoinSymbol,
	}, nil
}

// ledgerError maps engine errors onto the RPC error taxonomy, carrying the
// offending values in Data so clients get structured failures end to end.
func ledgerError(err error) *Error {
	var unauth *ledger.UnauthorizedError
	if errors.As(err, &unauth) {
		return &Error{
			Code:    CodeUnauthorized,
			Message: unauth.Error(),
			Data:    map[string]interface{}{"caller": unauth.Caller.String()},
		}
	}

	var below *ledger.BelowMinimumError
	if errors.As(err, &below) {
		return &Error{
			Code:    CodeBelowMinimum,
			Message: below.Error(),
			Data: map[string]interface{}{
				"payment": uint64(below.Payment),
				"minimum": uint64(below.Minimum),
			},
		}
	}

	var insuf *ledger.InsufficientBalanceError
	if errors.As(err, &insuf) {
		return &Error{
			Code:    CodeInsufficientBalance,
			Message: insuf.Error(),
			Data: map[string]interface{}{
				"requested": insuf.Requested,
				"available": insuf.Available,
			},
		}
	}

	if errors.Is(err, ledger.ErrReentrantCall) {
		return &Error{Code: CodeReentrantCall, Message: err.Error()}
	}
	if errors.Is(err, bank.ErrInsufficientFunds) {
		return &Error{Code: CodeInsufficientFunds, Message: err.Error()}
	}

	return &Error{Code: CodeInternalError, Message: err.Error()}
}
