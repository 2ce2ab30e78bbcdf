package rpcclient

import (
	"errors"
	"testing"

	"github.com/ovenworks/sliceledger/config"
	"github.com/ovenworks/sliceledger/internal/bank"
	"github.com/ovenworks/sliceledger/internal/ledger"
	"github.com/ovenworks/sliceledger/internal/rpc"
	"github.com/ovenworks/sliceledger/internal/storage"
	"github.com/ovenworks/sliceledger/pkg/crypto"
	"github.com/ovenworks/sliceledger/pkg/types"
)

var testOwner = types.Address{0xEE}

const testUnitPrice = 500 * types.MicroCoin

// startNode brings up an in-memory node with the faucet on and returns a
// client pointed at it.
func startNode(t *testing.T) *Client {
	t.Helper()

	vault := bank.NewVault(storage.NewMemory())
	store := ledger.NewStore(storage.NewMemory())
	engine, err := ledger.NewEngine(store, vault, testOwner, testUnitPrice)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	srv := rpc.New("127.0.0.1:0", engine, store, vault, true, config.RPCConfig{})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	return New("http://" + srv.Addr())
}

func newFundedKey(t *testing.T, c *Client, amount types.Amount) *crypto.PrivateKey {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	addr := crypto.AddressFromPubKey(key.PublicKey())
	if _, err := c.Fund(addr.String(), uint64(amount)); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	return key
}

func TestClient_Info(t *testing.T) {
	c := startNode(t)

	info, err := c.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Owner != testOwner.String() {
		t.Errorf("owner = %q, want %q", info.Owner, testOwner)
	}
	if info.UnitPrice != uint64(testUnitPrice) {
		t.Errorf("unit price = %d, want %d", info.UnitPrice, uint64(testUnitPrice))
	}
}

func TestClient_MintTransferPurchase(t *testing.T) {
	c := startNode(t)

	alice := newFundedKey(t, c, types.Coin)
	aliceAddr := crypto.AddressFromPubKey(alice.PublicKey())
	bobAddr := types.Address{0x0B}

	// Mint: 0.01 DOH at 0.0005 per credit buys 20.
	mint, err := c.Mint(alice, uint64(10*types.MilliCoin))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if mint.Credited != 20 {
		t.Errorf("credited = %d, want 20", mint.Credited)
	}

	// Transfer 10 to Bob.
	tr, err := c.Transfer(alice, bobAddr, 10)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if tr.From != aliceAddr.String() || tr.To != bobAddr.String() {
		t.Errorf("transfer = %s -> %s", tr.From, tr.To)
	}

	// Purchase 3.
	pur, err := c.Purchase(alice, 3)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if pur.Remaining != 7 {
		t.Errorf("remaining = %d, want 7", pur.Remaining)
	}

	bal, err := c.Balance(bobAddr.String())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.Balance != 10 {
		t.Errorf("bob balance = %d, want 10", bal.Balance)
	}

	list, err := c.ListBalances()
	if err != nil {
		t.Fatalf("ListBalances: %v", err)
	}
	if list.Count != 2 {
		t.Errorf("count = %d, want 2", list.Count)
	}

	info, err := c.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.TotalSupply != 17 {
		t.Errorf("supply = %d, want 17", info.TotalSupply)
	}
}

func TestClient_NonceAdvances(t *testing.T) {
	c := startNode(t)

	alice := newFundedKey(t, c, types.Coin)
	addr := crypto.AddressFromPubKey(alice.PublicKey())

	n1, err := c.Nonce(addr.String())
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}

	if _, err := c.Mint(alice, uint64(types.MilliCoin)); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	n2, err := c.Nonce(addr.String())
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if n2.Nonce != n1.Nonce+1 {
		t.Errorf("nonce = %d, want %d", n2.Nonce, n1.Nonce+1)
	}
}

func TestClient_ErrorCarriesData(t *testing.T) {
	c := startNode(t)

	alice := newFundedKey(t, c, types.Coin)

	// No credits yet; transferring must fail with structured data.
	_, err := c.Transfer(alice, types.Address{0x0B}, 5)
	if err == nil {
		t.Fatal("expected error")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("err = %T, want *RPCError", err)
	}
	if rpcErr.Code != rpc.CodeInsufficientBalance {
		t.Errorf("code = %d, want %d", rpcErr.Code, rpc.CodeInsufficientBalance)
	}
	if len(rpcErr.Data) == 0 {
		t.Error("error data is empty")
	}
}

func TestClient_BankBalance(t *testing.T) {
	c := startNode(t)

	addr := types.Address{0x01}
	if _, err := c.Fund(addr.String(), uint64(types.Coin)); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	bal, err := c.BankBalance(addr.String())
	if err != nil {
		t.Fatalf("BankBalance: %v", err)
	}
	if bal.Balance != uint64(types.Coin) {
		t.Errorf("balance = %d, want %d", bal.Balance, uint64(types.Coin))
	}
}
