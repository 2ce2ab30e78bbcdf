package rpc

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000

	// Ledger error taxonomy. Each carries the offending values in Data.
	CodeUnauthorized        = -32020
	CodeBelowMinimum        = -32021
	CodeInsufficientBalance = -32022
	CodeReentrantCall       = -32023

	// Request authentication failures.
	CodeInvalidSignature  = -32024
	CodeBadNonce          = -32025
	CodeInsufficientFunds = -32026
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// AddressParam is used by endpoints that take a single address.
type AddressParam struct {
	Address string `json:"address"`
}

// AuthParams carries the caller identity proof for mutating endpoints.
// The signature is Schnorr over the method's signing digest; the nonce
// must equal the account's next expected nonce.
type AuthParams struct {
	PubKey    string `json:"pubkey"`    // Compressed secp256k1 pubkey, 33-byte hex.
	Nonce     uint64 `json:"nonce"`     // Next expected account nonce.
	Signature string `json:"signature"` // 64-byte Schnorr signature, hex.
}

// MintParam is used by ledger_mint.
type MintParam struct {
	AuthParams
	Payment uint64 `json:"payment"` // Attached dough in base units.
}

// TransferParam is used by ledger_transfer.
type TransferParam struct {
	AuthParams
	To     string `json:"to"`
	Amount uint64 `json:"amount"` // Credits.
}

// PurchaseParam is used by ledger_purchase.
type PurchaseParam struct {
	AuthParams
	Quantity uint64 `json:"quantity"` // Credits to redeem.
}

// FundParam is used by bank_fund (testnet faucet).
type FundParam struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"` // Dough in base units.
}

// ── Result types ────────────────────────────────────────────────────────

// LedgerInfoResult is returned by ledger_getInfo.
type LedgerInfoResult struct {
	Owner         string `json:"owner"`
	UnitPrice     uint64 `json:"unit_price"` // Base units per credit.
	UnitPriceText string `json:"unit_price_text"`
	TotalSupply   uint64 `json:"total_supply"`
	Escrow        string `json:"escrow"`
}

// BalanceResult is returned by ledger_getBalance.
type BalanceResult struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// BalanceEntry is a single account in ledger_listBalances.
type BalanceEntry struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// ListBalancesResult is returned by ledger_listBalances.
type ListBalancesResult struct {
	Count    int            `json:"count"`
	Balances []BalanceEntry `json:"balances"`
}

// NonceResult is returned by ledger_getNonce.
type NonceResult struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}

// MintResult is returned by ledger_mint.
type MintResult struct {
	Caller   string `json:"caller"`
	Credited uint64 `json:"credited"`
	Cost     uint64 `json:"cost"`   // Base units paid to the issuer.
	Refund   uint64 `json:"refund"` // Base units returned to the caller.
}

// TransferResult is returned by ledger_transfer.
type TransferResult struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// PurchaseResult is returned by ledger_purchase.
type PurchaseResult struct {
	Caller    string `json:"caller"`
	Quantity  uint64 `json:"quantity"`
	Remaining uint64 `json:"remaining"`
}

// BankBalanceResult is returned by bank_getBalance and bank_fund.
type BankBalanceResult struct {
	Address     string `json:"address"`
	Balance     uint64 `json:"balance"` // Base units.
	BalanceText string `json:"balance_text"`
}
