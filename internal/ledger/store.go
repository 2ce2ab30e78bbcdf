package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ovenworks/sliceledger/internal/storage"
	"github.com/ovenworks/sliceledger/pkg/types"
)

// Key layout inside the ledger keyspace.
var (
	prefixBalance = []byte("b/") // b/<addr20> -> uint64 BE credit balance
	prefixNonce   = []byte("n/") // n/<addr20> -> uint64 BE next signing nonce
	keyOwner      = []byte("meta/owner")
	keyUnitPrice  = []byte("meta/unitprice")
)

// Store persists the credit balance mapping, the owner scalar, and
// per-account signing nonces. An absent balance key reads as zero.
type Store struct {
	db storage.DB
}

// NewStore creates a ledger store over the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// Balance returns the credit balance of an account, zero if never credited.
func (s *Store) Balance(addr types.Address) (uint64, error) {
	data, err := s.db.Get(balanceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance get: %w", err)
	}
	return decodeUint64(data)
}

// Credit adds n credits to an account's balance, rejecting overflow.
func (s *Store) Credit(addr types.Address, n uint64) error {
	bal, err := s.Balance(addr)
	if err != nil {
		return err
	}
	if bal+n < bal {
		return fmt.Errorf("balance overflow: %d + %d", bal, n)
	}
	if err := s.db.Put(balanceKey(addr), encodeUint64(bal+n)); err != nil {
		return fmt.Errorf("balance put: %w", err)
	}
	return nil
}

// Debit removes n credits from an account's balance. The caller must have
// verified sufficiency; an underflow here means the ledger is corrupt.
func (s *Store) Debit(addr types.Address, n uint64) error {
	bal, err := s.Balance(addr)
	if err != nil {
		return err
	}
	if bal < n {
		return fmt.Errorf("balance underflow: %d - %d", bal, n)
	}
	if err := s.db.Put(balanceKey(addr), encodeUint64(bal-n)); err != nil {
		return fmt.Errorf("balance put: %w", err)
	}
	return nil
}

// Move atomically debits from and credits to by n, using a single batch
// so the two writes cannot be partially applied.
func (s *Store) Move(from, to types.Address, n uint64) error {
	fromBal, err := s.Balance(from)
	if err != nil {
		return err
	}
	if fromBal < n {
		return fmt.Errorf("balance underflow: %d - %d", fromBal, n)
	}
	if from == to {
		return nil
	}
	toBal, err := s.Balance(to)
	if err != nil {
		return err
	}
	if toBal+n < toBal {
		return fmt.Errorf("balance overflow: %d + %d", toBal, n)
	}

	batch := storage.NewBatch(s.db)
	if err := batch.Put(balanceKey(from), encodeUint64(fromBal-n)); err != nil {
		return fmt.Errorf("balance batch put: %w", err)
	}
	if err := batch.Put(balanceKey(to), encodeUint64(toBal+n)); err != nil {
		return fmt.Errorf("balance batch put: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("balance batch commit: %w", err)
	}
	return nil
}

// ForEach iterates over all accounts with a stored balance.
// Return a non-nil error from fn to stop iteration early.
func (s *Store) ForEach(fn func(addr types.Address, balance uint64) error) error {
	return s.db.ForEach(prefixBalance, func(key, value []byte) error {
		if len(key) < len(prefixBalance)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		var addr types.Address
		copy(addr[:], key[len(prefixBalance):])

		bal, err := decodeUint64(value)
		if err != nil {
			return nil // Skip corrupt entries.
		}
		return fn(addr, bal)
	})
}

// TotalSupply sums all stored balances.
func (s *Store) TotalSupply() (uint64, error) {
	var total uint64
	err := s.ForEach(func(_ types.Address, bal uint64) error {
		if total+bal < total {
			return fmt.Errorf("total supply overflow")
		}
		total += bal
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Owner returns the persisted issuer address. ok is false when the ledger
// has not been initialized yet.
func (s *Store) Owner() (addr types.Address, ok bool, err error) {
	data, err := s.db.Get(keyOwner)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Address{}, false, nil
	}
	if err != nil {
		return types.Address{}, false, fmt.Errorf("owner get: %w", err)
	}
	if len(data) != types.AddressSize {
		return types.Address{}, false, fmt.Errorf("owner must be %d bytes, got %d", types.AddressSize, len(data))
	}
	copy(addr[:], data)
	return addr, true, nil
}

// SetOwner persists the issuer address. Called once at ledger init.
func (s *Store) SetOwner(addr types.Address) error {
	if err := s.db.Put(keyOwner, addr.Bytes()); err != nil {
		return fmt.Errorf("owner put: %w", err)
	}
	return nil
}

// UnitPrice returns the persisted credit price. ok is false when the ledger
// has not been initialized yet.
func (s *Store) UnitPrice() (price uint64, ok bool, err error) {
	data, err := s.db.Get(keyUnitPrice)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("unit price get: %w", err)
	}
	price, err = decodeUint64(data)
	if err != nil {
		return 0, false, fmt.Errorf("unit price decode: %w", err)
	}
	return price, true, nil
}

// SetUnitPrice persists the credit price. Called once at ledger init.
func (s *Store) SetUnitPrice(price uint64) error {
	if err := s.db.Put(keyUnitPrice, encodeUint64(price)); err != nil {
		return fmt.Errorf("unit price put: %w", err)
	}
	return nil
}

// NextNonce returns the next expected signing nonce for an account.
// Accounts that have never signed start at nonce 1.
func (s *Store) NextNonce(addr types.Address) (uint64, error) {
	data, err := s.db.Get(nonceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("nonce get: %w", err)
	}
	return decodeUint64(data)
}

// BumpNonce advances an account's next expected nonce by one.
func (s *Store) BumpNonce(addr types.Address) error {
	next, err := s.NextNonce(addr)
	if err != nil {
		return err
	}
	if err := s.db.Put(nonceKey(addr), encodeUint64(next+1)); err != nil {
		return fmt.Errorf("nonce put: %w", err)
	}
	return nil
}

func balanceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixBalance)+types.AddressSize)
	copy(key, prefixBalance)
	copy(key[len(prefixBalance):], addr[:])
	return key
}

func nonceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixNonce)+types.AddressSize)
	copy(key, prefixNonce)
	copy(key[len(prefixNonce):], addr[:])
	return key
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeUint64(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("value must be 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
