package rpcclient

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/ovenworks/sliceledger/internal/rpc"
	"github.com/ovenworks/sliceledger/pkg/crypto"
	"github.com/ovenworks/sliceledger/pkg/types"
)

// Info fetches the ledger parameters and total supply.
func (c *Client) Info() (*rpc.LedgerInfoResult, error) {
	var result rpc.LedgerInfoResult
	if err := c.Call("ledger_getInfo", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Balance fetches an account's credit balance.
func (c *Client) Balance(address string) (*rpc.BalanceResult, error) {
	var result rpc.BalanceResult
	if err := c.Call("ledger_getBalance", rpc.AddressParam{Address: address}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListBalances fetches every account with a non-zero credit balance.
func (c *Client) ListBalances() (*rpc.ListBalancesResult, error) {
	var result rpc.ListBalancesResult
	if err := c.Call("ledger_listBalances", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Nonce fetches an account's next expected signing nonce.
func (c *Client) Nonce(address string) (*rpc.NonceResult, error) {
	var result rpc.NonceResult
	if err := c.Call("ledger_getNonce", rpc.AddressParam{Address: address}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BankBalance fetches an account's dough balance.
func (c *Client) BankBalance(address string) (*rpc.BankBalanceResult, error) {
	var result rpc.BankBalanceResult
	if err := c.Call("bank_getBalance", rpc.AddressParam{Address: address}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Fund requests faucet dough for an account (testnet only).
func (c *Client) Fund(address string, amount uint64) (*rpc.BankBalanceResult, error) {
	var result rpc.BankBalanceResult
	if err := c.Call("bank_fund", rpc.FundParam{Address: address, Amount: amount}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Mint signs and submits a ledger_mint call: the signer's account attaches
// payment (base units) and receives credits at the ledger's unit price.
func (c *Client) Mint(signer crypto.Signer, payment uint64) (*rpc.MintResult, error) {
	auth, err := c.sign(signer, "ledger_mint", strconv.FormatUint(payment, 10))
	if err != nil {
		return nil, err
	}
	var result rpc.MintResult
	if err := c.Call("ledger_mint", rpc.MintParam{AuthParams: *auth, Payment: payment}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Transfer signs and submits a ledger_transfer call.
func (c *Client) Transfer(signer crypto.Signer, to types.Address, amount uint64) (*rpc.TransferResult, error) {
	auth, err := c.sign(signer, "ledger_transfer", to.Hex(), strconv.FormatUint(amount, 10))
	if err != nil {
		return nil, err
	}
	var result rpc.TransferResult
	params := rpc.TransferParam{AuthParams: *auth, To: to.String(), Amount: amount}
	if err := c.Call("ledger_transfer", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Purchase signs and submits a ledger_purchase call, redeeming (burning)
// quantity credits from the signer's account.
func (c *Client) Purchase(signer crypto.Signer, quantity uint64) (*rpc.PurchaseResult, error) {
	auth, err := c.sign(signer, "ledger_purchase", strconv.FormatUint(quantity, 10))
	if err != nil {
		return nil, err
	}
	var result rpc.PurchaseResult
	params := rpc.PurchaseParam{AuthParams: *auth, Quantity: quantity}
	if err := c.Call("ledger_purchase", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// sign fetches the account's next nonce and produces the auth params for a
// mutating method.
func (c *Client) sign(signer crypto.Signer, method string, args ...string) (*rpc.AuthParams, error) {
	pubKey := signer.PublicKey()
	caller := crypto.AddressFromPubKey(pubKey)

	nonceRes, err := c.Nonce(caller.String())
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}

	digest := rpc.SigningDigest(method, caller, nonceRes.Nonce, args...)
	sig, err := signer.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	return &rpc.AuthParams{
		PubKey:    hex.EncodeToString(pubKey),
		Nonce:     nonceRes.Nonce,
		Signature: hex.EncodeToString(sig),
	}, nil
}
