// slice-cli is a command-line client for interacting with a sliceledgerd node.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/ovenworks/sliceledger/config"
	"github.com/ovenworks/sliceledger/internal/rpcclient"
	"github.com/ovenworks/sliceledger/internal/wallet"
	"github.com/ovenworks/sliceledger/pkg/crypto"
	"github.com/ovenworks/sliceledger/pkg/types"
)

// keystoreDir returns the keystore path matching sliceledgerd's layout:
// <datadir>/<network>/keystore
func keystoreDir(dataDir, network string) string {
	return filepath.Join(dataDir, network, "keystore")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := "http://127.0.0.1:8545"
	dataDir := config.DefaultDataDir()
	network := "mainnet"

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--testnet":
			network = "testnet"
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	// Set address HRP based on network.
	if network == "testnet" {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ksDir := keystoreDir(dataDir, network)
	client := rpcclient.New(rpcURL)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "info":
		cmdInfo(client)
	case "balance":
		cmdBalance(client, cmdArgs)
	case "balances":
		cmdBalances(client)
	case "nonce":
		cmdNonce(client, cmdArgs)
	case "dough":
		cmdDough(client, cmdArgs)
	case "fund":
		cmdFund(client, cmdArgs)
	case "mint":
		cmdMint(client, cmdArgs, ksDir)
	case "transfer":
		cmdTransfer(client, cmdArgs, ksDir)
	case "purchase":
		cmdPurchase(client, cmdArgs, ksDir)
	case "wallet":
		cmdWallet(cmdArgs, ksDir)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: slice-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:8545)
  --datadir <path>    Data directory (default: ~/.sliceledger)
  --network <net>     mainnet (default) or testnet
  --testnet           Shorthand for --network testnet

Commands:
  info                            Show ledger parameters and total supply
  balance <address>               Show credit balance
  balances                        List all non-zero credit balances
  nonce <address>                 Show next signing nonce
  dough <address>                 Show dough (native currency) balance

  fund --address <addr> --amount <doh>
                                  Request faucet dough (testnet only)

  mint --wallet <w> --payment <doh>
                                  Buy credits with attached dough payment
  transfer --wallet <w> --to <addr> --amount <n>
                                  Transfer credits
  purchase --wallet <w> --quantity <n>
                                  Redeem (burn) credits

  wallet create --name <n>        Create a new wallet
  wallet import --name <n> --mnemonic "..."
                                  Import wallet from mnemonic
  wallet list                     List wallets
  wallet address --wallet <w>     List wallet addresses
  wallet new-address --wallet <w> Derive the next account address
`)
}

// ── info ────────────────────────────────────────────────────────────────

func cmdInfo(client *rpcclient.Client) {
	info, err := client.Info()
	if err != nil {
		fatal("ledger_getInfo: %v", err)
	}

	fmt.Printf("Owner:       %s\n", info.Owner)
	fmt.Printf("Unit price:  %s DOH (%d base units)\n", info.UnitPriceText, info.UnitPrice)
	fmt.Printf("Supply:      %d credits\n", info.TotalSupply)
	fmt.Printf("Escrow:      %s\n", info.Escrow)
}

// ── balance ─────────────────────────────────────────────────────────────

func cmdBalance(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: slice-cli balance <address>")
	}

	bal, err := client.Balance(args[0])
	if err != nil {
		fatal("ledger_getBalance: %v", err)
	}
	fmt.Printf("%d credits\n", bal.Balance)
}

func cmdBalances(client *rpcclient.Client) {
	result, err := client.ListBalances()
	if err != nil {
		fatal("ledger_listBalances: %v", err)
	}

	if result.Count == 0 {
		fmt.Println("No credit balances.")
		return
	}
	for _, entry := range result.Balances {
		fmt.Printf("  %s  %d\n", entry.Address, entry.Balance)
	}
	fmt.Printf("Accounts: %d\n", result.Count)
}

// ── nonce ───────────────────────────────────────────────────────────────

func cmdNonce(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: slice-cli nonce <address>")
	}

	result, err := client.Nonce(args[0])
	if err != nil {
		fatal("ledger_getNonce: %v", err)
	}
	fmt.Printf("%d\n", result.Nonce)
}

// ── dough ───────────────────────────────────────────────────────────────

func cmdDough(client *rpcclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: slice-cli dough <address>")
	}

	bal, err := client.BankBalance(args[0])
	if err != nil {
		fatal("bank_getBalance: %v", err)
	}
	fmt.Printf("%s DOH (%d base units)\n", bal.BalanceText, bal.Balance)
}

// ── fund ────────────────────────────────────────────────────────────────

func cmdFund(client *rpcclient.Client, args []string) {
	fs := flag.NewFlagSet("fund", flag.ExitOnError)
	address := fs.String("address", "", "Recipient address")
	amountStr := fs.String("amount", "", "Dough amount (e.g. 1.5)")
	fs.Parse(args)

	if *address == "" || *amountStr == "" {
		fatal("Usage: slice-cli fund --address <addr> --amount <doh>")
	}

	amount, err := types.ParseAmount(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}

	bal, err := client.Fund(*address, uint64(amount))
	if err != nil {
		fatal("bank_fund: %v", err)
	}
	fmt.Printf("Funded. Balance: %s DOH\n", bal.BalanceText)
}

// ── mint ────────────────────────────────────────────────────────────────

func cmdMint(client *rpcclient.Client, args []string, ksDir string) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	paymentStr := fs.String("payment", "", "Attached dough payment (e.g. 0.001)")
	account := fs.Uint("account", 0, "Wallet account index")
	fs.Parse(args)

	if *walletName == "" || *paymentStr == "" {
		fatal("Usage: slice-cli mint --wallet <name> --payment <doh>")
	}

	payment, err := types.ParseAmount(*paymentStr)
	if err != nil {
		fatal("invalid payment: %v", err)
	}

	signer := loadSigner(ksDir, *walletName, uint32(*account))
	result, err := client.Mint(signer, uint64(payment))
	if err != nil {
		fatal("ledger_mint: %v", err)
	}

	fmt.Printf("Minted %d credits\n", result.Credited)
	fmt.Printf("  Cost:   %s DOH\n", types.Amount(result.Cost))
	fmt.Printf("  Refund: %s DOH\n", types.Amount(result.Refund))
}

// ── transfer ────────────────────────────────────────────────────────────

func cmdTransfer(client *rpcclient.Client, args []string, ksDir string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	toAddr := fs.String("to", "", "Recipient address")
	amount := fs.Uint64("amount", 0, "Credits to transfer")
	account := fs.Uint("account", 0, "Wallet account index")
	fs.Parse(args)

	if *walletName == "" || *toAddr == "" || *amount == 0 {
		fatal("Usage: slice-cli transfer --wallet <name> --to <addr> --amount <n>")
	}

	recipient, err := types.ParseAddress(*toAddr)
	if err != nil {
		fatal("invalid recipient address: %v", err)
	}

	signer := loadSigner(ksDir, *walletName, uint32(*account))
	result, err := client.Transfer(signer, recipient, *amount)
	if err != nil {
		fatal("ledger_transfer: %v", err)
	}

	fmt.Printf("Transferred %d credits to %s\n", result.Amount, result.To)
}

// ── purchase ────────────────────────────────────────────────────────────

func cmdPurchase(client *rpcclient.Client, args []string, ksDir string) {
	fs := flag.NewFlagSet("purchase", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	quantity := fs.Uint64("quantity", 0, "Credits to redeem")
	account := fs.Uint("account", 0, "Wallet account index")
	fs.Parse(args)

	if *walletName == "" || *quantity == 0 {
		fatal("Usage: slice-cli purchase --wallet <name> --quantity <n>")
	}

	signer := loadSigner(ksDir, *walletName, uint32(*account))
	result, err := client.Purchase(signer, *quantity)
	if err != nil {
		fatal("ledger_purchase: %v", err)
	}

	fmt.Printf("Redeemed %d credits (%d remaining)\n", result.Quantity, result.Remaining)
}

// ── wallet ──────────────────────────────────────────────────────────────

func cmdWallet(args []string, ksDir string) {
	if len(args) < 1 {
		fatal("Usage: slice-cli wallet <create|import|list|address|new-address> [flags]")
	}

	switch args[0] {
	case "create":
		cmdWalletCreate(args[1:], ksDir)
	case "import":
		cmdWalletImport(args[1:], ksDir)
	case "list":
		cmdWalletList(ksDir)
	case "address":
		cmdWalletAddress(args[1:], ksDir)
	case "new-address":
		cmdWalletNewAddress(args[1:], ksDir)
	default:
		fatal("Unknown wallet command: %s\nUsage: slice-cli wallet <create|import|list|address|new-address> [flags]", args[0])
	}
}

func cmdWalletCreate(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: slice-cli wallet create --name <name>")
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	// Derive account 0 address before encrypting.
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	hdKey, err := master.DeriveAccount(0)
	if err != nil {
		fatal("derive address: %v", err)
	}
	addr := hdKey.Address()

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("create keystore: %v", err)
	}

	if err := ks.Create(*name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}

	// Zero seed.
	for i := range seed {
		seed[i] = 0
	}

	if err := ks.AddAccount(*name, wallet.AccountEntry{
		Index:   0,
		Name:    "Default",
		Address: addr.String(),
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("\nWallet created: %s\n", *name)
	fmt.Printf("Address: %s\n", addr.String())
}

func cmdWalletImport(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic (24 words)")
	fs.Parse(args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: slice-cli wallet import --name <name> --mnemonic \"word1 word2 ...\"")
	}

	if !wallet.ValidateMnemonic(*mnemonic) {
		fatal("invalid mnemonic")
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(*mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	hdKey, err := master.DeriveAccount(0)
	if err != nil {
		fatal("derive address: %v", err)
	}
	addr := hdKey.Address()

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("create keystore: %v", err)
	}

	if err := ks.Create(*name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}

	// Zero seed.
	for i := range seed {
		seed[i] = 0
	}

	if err := ks.AddAccount(*name, wallet.AccountEntry{
		Index:   0,
		Name:    "Default",
		Address: addr.String(),
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("Wallet imported: %s\n", *name)
	fmt.Printf("Address: %s\n", addr.String())
}

func cmdWalletList(ksDir string) {
	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}

	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}

	if len(names) == 0 {
		fmt.Println("No wallets found.")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func cmdWalletAddress(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet address", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: slice-cli wallet address --wallet <name>")
	}

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}

	accounts, err := ks.ListAccounts(*walletName)
	if err != nil {
		fatal("list accounts: %v", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No addresses found.")
		return
	}
	for _, acct := range accounts {
		fmt.Printf("  [%d] %s\n", acct.Index, acct.Address)
	}
}

func cmdWalletNewAddress(args []string, ksDir string) {
	fs := flag.NewFlagSet("wallet new-address", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: slice-cli wallet new-address --wallet <name>")
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}

	seed, err := ks.Load(*walletName, password)
	if err != nil {
		fatal("load wallet: %v", err)
	}

	master, err := wallet.NewMasterKey(seed)
	for i := range seed {
		seed[i] = 0
	}
	if err != nil {
		fatal("derive master key: %v", err)
	}

	nextIdx, err := ks.NextIndex(*walletName)
	if err != nil {
		fatal("get account index: %v", err)
	}
	// Index 0 is the default account, new addresses start at 1.
	if nextIdx == 0 {
		nextIdx = 1
	}

	hdKey, err := master.DeriveAccount(nextIdx)
	if err != nil {
		fatal("derive address: %v", err)
	}
	addr := hdKey.Address()

	if err := ks.AddAccount(*walletName, wallet.AccountEntry{
		Index:   nextIdx,
		Name:    fmt.Sprintf("Address %d", nextIdx),
		Address: addr.String(),
	}); err != nil {
		fatal("add account: %v", err)
	}

	if err := ks.IncrementIndex(*walletName); err != nil {
		fatal("increment index: %v", err)
	}

	fmt.Printf("New address [%d]: %s\n", nextIdx, addr.String())
}

// ── Signer helper ───────────────────────────────────────────────────────

// loadSigner unlocks a wallet and derives the signing key for an account.
func loadSigner(ksDir, walletName string, index uint32) *crypto.PrivateKey {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}

	ks, err := wallet.NewKeystore(ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}

	seed, err := ks.Load(walletName, password)
	if err != nil {
		fatal("load wallet: %v", err)
	}

	master, err := wallet.NewMasterKey(seed)
	for i := range seed {
		seed[i] = 0
	}
	if err != nil {
		fatal("derive master key: %v", err)
	}

	hdKey, err := master.DeriveAccount(index)
	if err != nil {
		fatal("derive account key: %v", err)
	}

	signer, err := hdKey.Signer()
	if err != nil {
		fatal("derive signer: %v", err)
	}
	return signer
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
