package chain

import (
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"sync"
)

type Options struct {
	Network        string
	Accounts       int
	InitialBalance *uint256.Int
	Seed           string
	Contracts      []Contract
	Events         *event.Manager
}

// Chain is an in-process, automining, Ethereum-style ledger. Transactions are
// serialized and atomic: each runs in its own staging area which is committed
// only when every frame of the call succeeded.
type Chain struct {
	mu          sync.RWMutex
	network     string
	store       *state.Store
	contracts   map[string]Contract
	accounts    []common.Address
	keys        map[common.Address]*ecdsa.PrivateKey
	nonces      map[common.Address]uint64
	blockNumber uint64
	receipts    *cache.Cache
	events      *event.Manager
}

func NewChain(opts Options) (*Chain, error) {
	c := &Chain{
		network:   opts.Network,
		store:     state.NewStore(),
		contracts: make(map[string]Contract),
		accounts:  make([]common.Address, 0, opts.Accounts),
		keys:      make(map[common.Address]*ecdsa.PrivateKey),
		nonces:    make(map[common.Address]uint64),
		receipts:  cache.New(cache.NoExpiration, 0),
		events:    opts.Events,
	}

	for _, contract := range opts.Contracts {
		c.Register(contract)
	}

	for i := 0; i < opts.Accounts; i++ {
		key, err := deriveKey(opts.Seed, i)
		if err != nil {
			return nil, fmt.Errorf("derive account %d: %w", i, err)
		}
		addr := crypto.PubkeyToAddress(key.PublicKey)
		c.accounts = append(c.accounts, addr)
		c.keys[addr] = key

		if opts.InitialBalance != nil {
			if err := c.store.Credit(addr, opts.InitialBalance); err != nil {
				return nil, err
			}
		}
	}

	zap.L().With(zap.String("network", opts.Network), zap.Int("accounts", len(c.accounts))).Debug("Chain: Started")

	return c, nil
}

func deriveKey(seed string, index int) (*ecdsa.PrivateKey, error) {
	idx := make([]byte, 8)
	binary.BigEndian.PutUint64(idx, uint64(index))

	return crypto.ToECDSA(crypto.Keccak256([]byte(seed), idx))
}

// Register makes contract code available for deployment under its name.
func (c *Chain) Register(contract Contract) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.contracts[contract.Name()] = contract
}

func (c *Chain) Network() string {
	return c.network
}

func (c *Chain) Accounts() []common.Address {
	accounts := make([]common.Address, len(c.accounts))
	copy(accounts, c.accounts)

	return accounts
}

// PrivateKey returns the key of a pre-funded development account.
func (c *Chain) PrivateKey(addr common.Address) (*ecdsa.PrivateKey, bool) {
	key, ok := c.keys[addr]
	return key, ok
}

func (c *Chain) BlockNumber() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.blockNumber
}

func (c *Chain) Balance(addr common.Address) *uint256.Int {
	return c.store.Balance(addr)
}

func (c *Chain) Nonce(addr common.Address) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.nonces[addr]
}

// CodeAt returns the name of the contract deployed at addr.
func (c *Chain) CodeAt(addr common.Address) (string, bool) {
	return c.store.Code(addr)
}

func (c *Chain) GetReceipt(hash common.Hash) (*entity.Receipt, error) {
	if item, found := c.receipts.Get(hash.Hex()); found {
		receipt := item.(entity.Receipt)
		return &receipt, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, hash.Hex())
}

// Deploy creates a new instance of the named contract. The address is derived
// from the sender and its nonce exactly like CREATE.
func (c *Chain) Deploy(ctx context.Context, from common.Address, name string, args ...interface{}) (*entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if from == (common.Address{}) {
		return nil, ErrZeroSender
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	contract, ok := c.contracts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, name)
	}

	nonce := c.nonces[from]
	c.nonces[from]++
	c.blockNumber++

	address := crypto.CreateAddress(from, nonce)
	receipt := entity.Receipt{
		TxHash:          txHash(from, nonce, common.Address{}, "constructor:"+name),
		BlockNumber:     c.blockNumber,
		From:            from,
		ContractAddress: address,
		Method:          "constructor",
		Logs:            make([]entity.EventLog, 0),
	}

	sa := c.store.NewStagingArea()
	sa.SetCode(address, name)
	frameCtx := &Context{
		chain:  c,
		sa:     sa,
		Caller: from,
		Origin: from,
		Self:   address,
		Value:  new(uint256.Int),
		Block:  c.blockNumber,
	}

	var err error
	if constructor, ok := contract.(Constructor); ok {
		err = asRevert(constructor.Construct(frameCtx, Args(args)))
	}

	if err != nil {
		receipt.Status = entity.ReceiptStatusFailed
		receipt.RevertReason, _ = RevertReason(err)
		receipt.ContractAddress = common.Address{}
		c.receipts.Set(receipt.TxHash.Hex(), receipt, cache.NoExpiration)

		zap.L().With(zap.String("contract", name), zap.Error(err)).Warn("Chain: Deployment reverted")
		return &receipt, err
	}

	sa.Commit()
	receipt.Status = entity.ReceiptStatusSuccessful
	receipt.Logs = append(receipt.Logs, frameCtx.logs...)
	c.receipts.Set(receipt.TxHash.Hex(), receipt, cache.NoExpiration)

	zap.L().With(
		zap.String("contract", name),
		zap.String("address", address.Hex()),
		zap.String("txHash", receipt.TxHash.Hex()),
	).Debug("Chain: Contract deployed")

	c.emit(event.ContractDeployedEvent, receipt)
	c.emit(event.ReceiptConfirmedEvent, receipt)

	return &receipt, nil
}

// Transact executes msg as a transaction. A receipt is produced for reverted
// transactions too; in that case the returned error is a *RevertError and no
// state, balance or log of the transaction survives.
func (c *Chain) Transact(ctx context.Context, msg entity.CallMsg) (*entity.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.From == (common.Address{}) {
		return nil, ErrZeroSender
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	nonce := c.nonces[msg.From]
	c.nonces[msg.From]++
	c.blockNumber++

	receipt := entity.Receipt{
		TxHash:      txHash(msg.From, nonce, msg.To, msg.Method),
		BlockNumber: c.blockNumber,
		From:        msg.From,
		To:          msg.To,
		Method:      msg.Method,
		Value:       msg.Value,
		Logs:        make([]entity.EventLog, 0),
	}

	sa := c.store.NewStagingArea()
	_, logs, err := c.execute(sa, frame{
		caller: msg.From,
		origin: msg.From,
		to:     msg.To,
		value:  msg.Value,
		method: msg.Method,
		args:   msg.Args,
		block:  c.blockNumber,
	})

	if err != nil {
		receipt.Status = entity.ReceiptStatusFailed
		receipt.RevertReason, _ = RevertReason(err)
		c.receipts.Set(receipt.TxHash.Hex(), receipt, cache.NoExpiration)

		zap.L().With(
			zap.String("txHash", receipt.TxHash.Hex()),
			zap.String("method", msg.Method),
			zap.String("reason", receipt.RevertReason),
		).Debug("Chain: Transaction reverted")
		return &receipt, err
	}

	sa.Commit()
	receipt.Status = entity.ReceiptStatusSuccessful
	receipt.Logs = append(receipt.Logs, logs...)
	c.receipts.Set(receipt.TxHash.Hex(), receipt, cache.NoExpiration)

	zap.L().With(
		zap.String("txHash", receipt.TxHash.Hex()),
		zap.String("method", msg.Method),
		zap.Int("logs", len(logs)),
	).Debug("Chain: Transaction confirmed")

	c.emit(event.ReceiptConfirmedEvent, receipt)

	return &receipt, nil
}

// Call executes msg against a throwaway staging area and returns its result.
// Nothing is ever committed.
func (c *Chain) Call(ctx context.Context, msg entity.CallMsg) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	result, _, err := c.execute(c.store.NewStagingArea(), frame{
		caller: msg.From,
		origin: msg.From,
		to:     msg.To,
		value:  msg.Value,
		method: msg.Method,
		args:   msg.Args,
		block:  c.blockNumber,
	})

	return result, err
}

type frame struct {
	caller common.Address
	origin common.Address
	to     common.Address
	value  *uint256.Int
	method string
	args   []interface{}
	block  uint64
	depth  int
}

// execute runs one call frame inside sa. It never commits sa; the caller does
// that when the returned error is nil.
func (c *Chain) execute(sa *state.StagingArea, f frame) (interface{}, []entity.EventLog, error) {
	if f.depth > maxCallDepth {
		return nil, nil, Revert("max call depth exceeded")
	}

	value := f.value
	if value == nil {
		value = new(uint256.Int)
	}

	code, hasCode := sa.Code(f.to)
	if !hasCode {
		if f.method != "" {
			return nil, nil, Revertf("no contract at %s", f.to.Hex())
		}
		if err := sa.Transfer(f.caller, f.to, value); err != nil {
			return nil, nil, asRevert(err)
		}
		return nil, nil, nil
	}

	contract, ok := c.contracts[code]
	if !ok {
		return nil, nil, Revertf("no code registered for %s", code)
	}

	ctx := &Context{
		chain:  c,
		sa:     sa,
		depth:  f.depth,
		Caller: f.caller,
		Origin: f.origin,
		Self:   f.to,
		Value:  value,
		Block:  f.block,
	}

	if f.method == "" {
		receiver, ok := contract.(Receiver)
		if !ok {
			return nil, nil, Revertf("%s does not accept native transfers", contract.Name())
		}
		if err := sa.Transfer(f.caller, f.to, value); err != nil {
			return nil, nil, asRevert(err)
		}
		if err := receiver.Receive(ctx); err != nil {
			return nil, nil, asRevert(err)
		}
		return nil, ctx.logs, nil
	}

	method, ok := contract.Methods()[f.method]
	if !ok {
		return nil, nil, Revertf("%s has no method %s", contract.Name(), f.method)
	}
	if !value.IsZero() && !method.Payable {
		return nil, nil, Revertf("%s.%s is not payable", contract.Name(), f.method)
	}
	if err := sa.Transfer(f.caller, f.to, value); err != nil {
		return nil, nil, asRevert(err)
	}

	result, err := method.Handler(ctx, Args(f.args))
	if err != nil {
		return nil, nil, asRevert(err)
	}

	return result, ctx.logs, nil
}

func (c *Chain) emit(eventType event.Type, receipt entity.Receipt) {
	if c.events != nil {
		c.events.EmitEvent(eventType, receipt)
	}
}

func txHash(from common.Address, nonce uint64, to common.Address, method string) common.Hash {
	n := make([]byte, 8)
	binary.BigEndian.PutUint64(n, nonce)

	return crypto.Keccak256Hash(from.Bytes(), n, to.Bytes(), []byte(method))
}
