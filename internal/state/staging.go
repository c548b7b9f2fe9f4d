package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// StagingArea buffers every write of a single transaction. Reads see staged
// writes first and fall through to the committed store. Nothing reaches the
// store until Commit; a discarded staging area leaves no trace.
type StagingArea struct {
	store     *Store
	parent    *StagingArea
	toPut     map[common.Address]map[string][]byte
	toDelete  map[common.Address]map[string]struct{}
	balances  map[common.Address]*uint256.Int
	code      map[common.Address]string
	committed bool
}

func (sa *StagingArea) Get(addr common.Address, key string) ([]byte, error) {
	if deleted, ok := sa.toDelete[addr]; ok {
		if _, ok := deleted[key]; ok {
			return nil, ErrNotFound
		}
	}
	if staged, ok := sa.toPut[addr]; ok {
		if value, ok := staged[key]; ok {
			return value, nil
		}
	}
	if sa.parent != nil {
		return sa.parent.Get(addr, key)
	}
	if value, ok := sa.store.get(addr, key); ok {
		return value, nil
	}

	return nil, ErrNotFound
}

func (sa *StagingArea) Has(addr common.Address, key string) bool {
	_, err := sa.Get(addr, key)
	return err == nil
}

func (sa *StagingArea) Put(addr common.Address, key string, value []byte) {
	if deleted, ok := sa.toDelete[addr]; ok {
		delete(deleted, key)
	}
	if _, ok := sa.toPut[addr]; !ok {
		sa.toPut[addr] = make(map[string][]byte)
	}
	sa.toPut[addr][key] = append([]byte(nil), value...)
}

func (sa *StagingArea) Delete(addr common.Address, key string) {
	if staged, ok := sa.toPut[addr]; ok {
		delete(staged, key)
	}
	if _, ok := sa.toDelete[addr]; !ok {
		sa.toDelete[addr] = make(map[string]struct{})
	}
	sa.toDelete[addr][key] = struct{}{}
}

// GetRLP decodes the value under key into v. It returns false when the key is
// absent, so "never written" is never confused with a zero value.
func (sa *StagingArea) GetRLP(addr common.Address, key string, v interface{}) (bool, error) {
	raw, err := sa.Get(addr, key)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, rlp.DecodeBytes(raw, v)
}

func (sa *StagingArea) PutRLP(addr common.Address, key string, v interface{}) error {
	raw, err := rlp.EncodeToBytes(v)
	if err != nil {
		return err
	}
	sa.Put(addr, key, raw)

	return nil
}

func (sa *StagingArea) Balance(addr common.Address) *uint256.Int {
	if balance, ok := sa.balances[addr]; ok {
		return new(uint256.Int).Set(balance)
	}
	if sa.parent != nil {
		return sa.parent.Balance(addr)
	}

	return sa.store.Balance(addr)
}

// Transfer moves native currency between two accounts inside the unit of work.
func (sa *StagingArea) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}

	fromBalance := sa.Balance(from)
	if fromBalance.Lt(amount) {
		return ErrInsufficientFunds
	}
	toBalance := sa.Balance(to)
	if from == to {
		return nil
	}

	sum, overflow := new(uint256.Int).AddOverflow(toBalance, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	sa.balances[from] = new(uint256.Int).Sub(fromBalance, amount)
	sa.balances[to] = sum

	return nil
}

func (sa *StagingArea) Code(addr common.Address) (string, bool) {
	if code, ok := sa.code[addr]; ok {
		return code, true
	}
	if sa.parent != nil {
		return sa.parent.Code(addr)
	}

	return sa.store.Code(addr)
}

func (sa *StagingArea) SetCode(addr common.Address, code string) {
	sa.code[addr] = code
}

func (sa *StagingArea) IsStaged() bool {
	return len(sa.toPut) != 0 ||
		len(sa.toDelete) != 0 ||
		len(sa.balances) != 0 ||
		len(sa.code) != 0
}

// Nest opens a child frame. Its writes are visible to itself only until it is
// committed, which folds them into the parent rather than the store.
func (sa *StagingArea) Nest() *StagingArea {
	child := sa.store.NewStagingArea()
	child.parent = sa

	return child
}

// Commit applies all staged writes in one step: to the store for a root
// staging area, to the parent for a nested one. It is a no-op when repeated.
func (sa *StagingArea) Commit() {
	if sa.committed {
		return
	}
	sa.committed = true

	if sa.parent != nil {
		sa.mergeInto(sa.parent)
		return
	}

	s := sa.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for addr, keys := range sa.toDelete {
		if bucket, ok := s.storage[addr]; ok {
			for key := range keys {
				delete(bucket, key)
			}
		}
	}
	for addr, values := range sa.toPut {
		bucket, ok := s.storage[addr]
		if !ok {
			bucket = make(map[string][]byte)
			s.storage[addr] = bucket
		}
		for key, value := range values {
			bucket[key] = value
		}
	}
	for addr, balance := range sa.balances {
		s.balances[addr] = balance
	}
	for addr, code := range sa.code {
		s.code[addr] = code
	}
}

func (sa *StagingArea) mergeInto(parent *StagingArea) {
	for addr, keys := range sa.toDelete {
		for key := range keys {
			parent.Delete(addr, key)
		}
	}
	for addr, values := range sa.toPut {
		for key, value := range values {
			parent.Put(addr, key, value)
		}
	}
	for addr, balance := range sa.balances {
		parent.balances[addr] = balance
	}
	for addr, code := range sa.code {
		parent.code[addr] = code
	}
}
