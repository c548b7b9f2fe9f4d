package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// vault is a minimal contract exercising storage, value, nested calls and logs.
type vault struct {
	acceptsValue bool
}

func (v vault) Name() string {
	if v.acceptsValue {
		return "PayableVault"
	}
	return "Vault"
}

func (v vault) Construct(ctx *Context, args Args) error {
	if len(args) == 0 {
		return nil
	}
	label, err := args.String(0)
	if err != nil {
		return err
	}
	if label == "bad" {
		return Revert("Vault__BadLabel()")
	}
	ctx.Put("label", []byte(label))
	return nil
}

func (v vault) Methods() map[string]Method {
	return map[string]Method{
		"set": {Handler: func(ctx *Context, args Args) (interface{}, error) {
			key, err := args.String(0)
			if err != nil {
				return nil, err
			}
			ctx.Put(key, []byte{1})
			ctx.Emit("Set", entity.Param{VName: "key", Type: "string", Value: key})
			return nil, nil
		}},
		"has": {View: true, Handler: func(ctx *Context, args Args) (interface{}, error) {
			key, err := args.String(0)
			if err != nil {
				return nil, err
			}
			return ctx.Has(key), nil
		}},
		"setThenFail": {Handler: func(ctx *Context, args Args) (interface{}, error) {
			ctx.Put("partial", []byte{1})
			ctx.Emit("Set", entity.Param{VName: "key", Type: "string", Value: "partial"})
			return nil, Revert("Vault__Failed()")
		}},
		"deposit": {Payable: true, Handler: func(ctx *Context, args Args) (interface{}, error) {
			return ctx.Value, nil
		}},
		"callOther": {Handler: func(ctx *Context, args Args) (interface{}, error) {
			other, err := args.Address(0)
			if err != nil {
				return nil, err
			}
			method, err := args.String(1)
			if err != nil {
				return nil, err
			}
			ctx.Put("before", []byte{1})
			_, callErr := ctx.Call(other, method, args[2:]...)
			return callErr == nil, nil
		}},
		"send": {Handler: func(ctx *Context, args Args) (interface{}, error) {
			to, err := args.Address(0)
			if err != nil {
				return nil, err
			}
			amount, err := args.Uint256(1)
			if err != nil {
				return nil, err
			}
			if err := ctx.Transfer(to, amount); err != nil {
				return nil, Revert("Vault__TransferFailed()")
			}
			return nil, nil
		}},
	}
}

type payableVault struct{ vault }

func (p payableVault) Receive(ctx *Context) error {
	ctx.Put("received", ctx.Value.Bytes())
	return nil
}

func newTestChain(t *testing.T, events *event.Manager) *Chain {
	c, err := NewChain(Options{
		Network:        "hardhat",
		Accounts:       3,
		InitialBalance: uint256.NewInt(1000),
		Seed:           "test",
		Contracts:      []Contract{vault{}, payableVault{vault{acceptsValue: true}}},
		Events:         events,
	})
	require.NoError(t, err)
	return c
}

func deploy(t *testing.T, c *Chain, name string, args ...interface{}) common.Address {
	r, err := c.Deploy(context.Background(), c.Accounts()[0], name, args...)
	require.NoError(t, err)
	return r.ContractAddress
}

func TestNewChain_Accounts(t *testing.T) {
	c := newTestChain(t, nil)
	again := newTestChain(t, nil)

	require.Len(t, c.Accounts(), 3)
	require.Equal(t, c.Accounts(), again.Accounts())
	for _, acc := range c.Accounts() {
		require.Equal(t, uint64(1000), c.Balance(acc).Uint64())
		key, ok := c.PrivateKey(acc)
		require.True(t, ok)
		require.Equal(t, acc, crypto.PubkeyToAddress(key.PublicKey))
	}
}

func TestChain_Deploy(t *testing.T) {
	c := newTestChain(t, nil)
	from := c.Accounts()[0]
	ctx := context.Background()

	t.Run("address follows sender nonce", func(t *testing.T) {
		r, err := c.Deploy(ctx, from, "Vault", "label")
		require.NoError(t, err)
		require.True(t, r.Succeeded())
		require.Equal(t, crypto.CreateAddress(from, 0), r.ContractAddress)
		name, ok := c.CodeAt(r.ContractAddress)
		require.True(t, ok)
		require.Equal(t, "Vault", name)
	})
	t.Run("unknown contract", func(t *testing.T) {
		_, err := c.Deploy(ctx, from, "Nope")
		require.ErrorIs(t, err, ErrUnknownContract)
	})
	t.Run("reverting constructor", func(t *testing.T) {
		r, err := c.Deploy(ctx, from, "Vault", "bad")
		require.True(t, IsRevertWith(err, "Vault__BadLabel()"))
		require.False(t, r.Succeeded())
		_, ok := c.CodeAt(crypto.CreateAddress(from, 1))
		require.False(t, ok)
	})
	t.Run("zero sender", func(t *testing.T) {
		_, err := c.Deploy(ctx, common.Address{}, "Vault")
		require.ErrorIs(t, err, ErrZeroSender)
	})
}

func TestChain_Transact(t *testing.T) {
	c := newTestChain(t, nil)
	ctx := context.Background()
	from := c.Accounts()[1]
	addr := deploy(t, c, "Vault")

	has := func(key string) bool {
		res, err := c.Call(ctx, entity.CallMsg{From: from, To: addr, Method: "has", Args: []interface{}{key}})
		require.NoError(t, err)
		return res.(bool)
	}

	t.Run("success commits and logs", func(t *testing.T) {
		r, err := c.Transact(ctx, entity.CallMsg{From: from, To: addr, Method: "set", Args: []interface{}{"a"}})
		require.NoError(t, err)
		require.True(t, r.Succeeded())
		require.Len(t, r.GetEventLogs("Set"), 1)
		require.True(t, has("a"))

		stored, err := c.GetReceipt(r.TxHash)
		require.NoError(t, err)
		require.Equal(t, r.TxHash, stored.TxHash)
	})
	t.Run("revert discards everything", func(t *testing.T) {
		nonce := c.Nonce(from)
		r, err := c.Transact(ctx, entity.CallMsg{From: from, To: addr, Method: "setThenFail"})
		require.True(t, IsRevertWith(err, "Vault__Failed()"))
		require.False(t, r.Succeeded())
		require.Equal(t, "Vault__Failed()", r.RevertReason)
		require.Empty(t, r.Logs)
		require.False(t, has("partial"))
		require.Equal(t, nonce+1, c.Nonce(from))
	})
	t.Run("unknown method", func(t *testing.T) {
		_, err := c.Transact(ctx, entity.CallMsg{From: from, To: addr, Method: "nope"})
		require.True(t, IsRevert(err))
	})
	t.Run("value to non-payable method", func(t *testing.T) {
		_, err := c.Transact(ctx, entity.CallMsg{From: from, To: addr, Method: "set", Value: uint256.NewInt(1), Args: []interface{}{"b"}})
		require.True(t, IsRevert(err))
		require.Equal(t, uint64(1000), c.Balance(from).Uint64())
		require.False(t, has("b"))
	})
	t.Run("payable method moves value", func(t *testing.T) {
		_, err := c.Transact(ctx, entity.CallMsg{From: from, To: addr, Method: "deposit", Value: uint256.NewInt(10)})
		require.NoError(t, err)
		require.Equal(t, uint64(990), c.Balance(from).Uint64())
		require.Equal(t, uint64(10), c.Balance(addr).Uint64())
	})
	t.Run("insufficient funds", func(t *testing.T) {
		_, err := c.Transact(ctx, entity.CallMsg{From: from, To: addr, Method: "deposit", Value: uint256.NewInt(5000)})
		require.True(t, IsRevert(err))
	})
	t.Run("plain transfer to account", func(t *testing.T) {
		to := c.Accounts()[2]
		_, err := c.Transact(ctx, entity.CallMsg{From: from, To: to, Value: uint256.NewInt(5)})
		require.NoError(t, err)
		require.Equal(t, uint64(1005), c.Balance(to).Uint64())
	})
	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.Transact(cctx, entity.CallMsg{From: from, To: addr, Method: "set", Args: []interface{}{"c"}})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestChain_NestedCalls(t *testing.T) {
	c := newTestChain(t, nil)
	ctx := context.Background()
	from := c.Accounts()[0]
	outer := deploy(t, c, "Vault")
	inner := deploy(t, c, "Vault")
	payable := deploy(t, c, "PayableVault")

	t.Run("failed callee rolls back alone", func(t *testing.T) {
		r, err := c.Transact(ctx, entity.CallMsg{From: from, To: outer, Method: "callOther", Args: []interface{}{inner, "setThenFail"}})
		require.NoError(t, err)
		require.Empty(t, r.GetEventLogs("Set"))

		res, err := c.Call(ctx, entity.CallMsg{From: from, To: inner, Method: "has", Args: []interface{}{"partial"}})
		require.NoError(t, err)
		require.False(t, res.(bool))
		res, err = c.Call(ctx, entity.CallMsg{From: from, To: outer, Method: "has", Args: []interface{}{"before"}})
		require.NoError(t, err)
		require.True(t, res.(bool))
	})
	t.Run("successful callee logs bubble up", func(t *testing.T) {
		r, err := c.Transact(ctx, entity.CallMsg{From: from, To: outer, Method: "callOther", Args: []interface{}{inner, "set", "x"}})
		require.NoError(t, err)
		ev, err := r.GetEventLogForAddr(inner, "Set")
		require.NoError(t, err)
		require.Equal(t, "x", ev.Params[0].Value)
	})
	t.Run("transfer to rejecting contract", func(t *testing.T) {
		_, err := c.Transact(ctx, entity.CallMsg{From: from, To: outer, Method: "deposit", Value: uint256.NewInt(50)})
		require.NoError(t, err)

		_, err = c.Transact(ctx, entity.CallMsg{From: from, To: outer, Method: "send", Args: []interface{}{inner, uint64(10)}})
		require.True(t, IsRevertWith(err, "Vault__TransferFailed()"))
		require.Equal(t, uint64(50), c.Balance(outer).Uint64())
		require.True(t, c.Balance(inner).IsZero())
	})
	t.Run("transfer to receiving contract", func(t *testing.T) {
		_, err := c.Transact(ctx, entity.CallMsg{From: from, To: outer, Method: "send", Args: []interface{}{payable, uint64(10)}})
		require.NoError(t, err)
		require.Equal(t, uint64(40), c.Balance(outer).Uint64())
		require.Equal(t, uint64(10), c.Balance(payable).Uint64())
	})
	t.Run("transfer to account", func(t *testing.T) {
		to := c.Accounts()[2]
		_, err := c.Transact(ctx, entity.CallMsg{From: from, To: outer, Method: "send", Args: []interface{}{to.Hex(), "10"}})
		require.NoError(t, err)
		require.Equal(t, uint64(1010), c.Balance(to).Uint64())
	})
}

func TestChain_Call_DoesNotCommit(t *testing.T) {
	c := newTestChain(t, nil)
	ctx := context.Background()
	from := c.Accounts()[0]
	addr := deploy(t, c, "Vault")
	block := c.BlockNumber()

	_, err := c.Call(ctx, entity.CallMsg{From: from, To: addr, Method: "set", Args: []interface{}{"k"}})
	require.NoError(t, err)

	res, err := c.Call(ctx, entity.CallMsg{From: from, To: addr, Method: "has", Args: []interface{}{"k"}})
	require.NoError(t, err)
	require.False(t, res.(bool))
	require.Equal(t, block, c.BlockNumber())
}

func TestChain_EmitsReceipts(t *testing.T) {
	events := event.NewManager()
	defer events.Close()

	received := make(chan entity.Receipt, 10)
	events.AddEventListener(event.ReceiptConfirmedEvent, func(msg interface{}) {
		received <- msg.(entity.Receipt)
	})

	c := newTestChain(t, events)
	addr := deploy(t, c, "Vault")
	_, err := c.Transact(context.Background(), entity.CallMsg{From: c.Accounts()[0], To: addr, Method: "set", Args: []interface{}{"k"}})
	require.NoError(t, err)
	_, err = c.Transact(context.Background(), entity.CallMsg{From: c.Accounts()[0], To: addr, Method: "setThenFail"})
	require.Error(t, err)

	select {
	case r := <-received:
		require.Equal(t, "constructor", r.Method)
	case <-time.After(time.Second):
		t.Fatal("deploy receipt not emitted")
	}
	select {
	case r := <-received:
		require.Equal(t, "set", r.Method)
	case <-time.After(time.Second):
		t.Fatal("transaction receipt not emitted")
	}
	select {
	case r := <-received:
		t.Fatalf("reverted transaction emitted: %v", r.TxHash)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRevertReason(t *testing.T) {
	reason, ok := RevertReason(Revert("X()"))
	require.True(t, ok)
	require.Equal(t, "X()", reason)

	reason, ok = RevertReason(errors.New("rpc: 3: execution reverted: Y()"))
	require.True(t, ok)
	require.Equal(t, "Y()", reason)

	_, ok = RevertReason(errors.New("boom"))
	require.False(t, ok)
	_, ok = RevertReason(nil)
	require.False(t, ok)
}
