package state

import (
	"errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"sync"
)

var (
	ErrNotFound          = errors.New("state: key not found")
	ErrInsufficientFunds = errors.New("insufficient funds for transfer")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// Store is the committed ledger: per-account storage, native balances and the
// contract code (by name) deployed at each address. It is only mutated by
// committing a StagingArea.
type Store struct {
	mu       sync.RWMutex
	storage  map[common.Address]map[string][]byte
	balances map[common.Address]*uint256.Int
	code     map[common.Address]string
}

func NewStore() *Store {
	return &Store{
		storage:  make(map[common.Address]map[string][]byte),
		balances: make(map[common.Address]*uint256.Int),
		code:     make(map[common.Address]string),
	}
}

func (s *Store) get(addr common.Address, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket, ok := s.storage[addr]
	if !ok {
		return nil, false
	}
	value, ok := bucket[key]
	return value, ok
}

func (s *Store) Balance(addr common.Address) *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if balance, ok := s.balances[addr]; ok {
		return new(uint256.Int).Set(balance)
	}
	return new(uint256.Int)
}

func (s *Store) Code(addr common.Address) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code, ok := s.code[addr]
	return code, ok
}

// Credit mints native currency to an account outside of any transaction, used
// to pre-fund development accounts.
func (s *Store) Credit(addr common.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[addr]
	if !ok {
		balance = new(uint256.Int)
	}
	sum, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	s.balances[addr] = sum

	return nil
}

// NewStagingArea opens a unit of work over the store.
func (s *Store) NewStagingArea() *StagingArea {
	return &StagingArea{
		store:    s,
		toPut:    make(map[common.Address]map[string][]byte),
		toDelete: make(map[common.Address]map[string]struct{}),
		balances: make(map[common.Address]*uint256.Int),
		code:     make(map[common.Address]string),
	}
}
