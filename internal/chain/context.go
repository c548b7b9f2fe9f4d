package chain

import (
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const maxCallDepth = 64

// Context is a single call frame. Storage accessors are scoped to Self; every
// write lands in the frame's staging area and is discarded with it on failure.
type Context struct {
	chain  *Chain
	sa     *state.StagingArea
	logs   []entity.EventLog
	depth  int
	Caller common.Address
	Origin common.Address
	Self   common.Address
	Value  *uint256.Int
	Block  uint64
}

func (ctx *Context) Get(key string) ([]byte, error) {
	return ctx.sa.Get(ctx.Self, key)
}

func (ctx *Context) Has(key string) bool {
	return ctx.sa.Has(ctx.Self, key)
}

func (ctx *Context) Put(key string, value []byte) {
	ctx.sa.Put(ctx.Self, key, value)
}

func (ctx *Context) Delete(key string) {
	ctx.sa.Delete(ctx.Self, key)
}

func (ctx *Context) GetRLP(key string, v interface{}) (bool, error) {
	return ctx.sa.GetRLP(ctx.Self, key, v)
}

func (ctx *Context) PutRLP(key string, v interface{}) error {
	return ctx.sa.PutRLP(ctx.Self, key, v)
}

func (ctx *Context) Balance(addr common.Address) *uint256.Int {
	return ctx.sa.Balance(addr)
}

// Emit records an event log for Self. Logs of a failed frame are dropped.
func (ctx *Context) Emit(name string, params ...entity.Param) {
	ctx.logs = append(ctx.logs, entity.EventLog{
		EventName: name,
		Address:   ctx.Self,
		Params:    params,
	})
}

// Call invokes another contract with Self as msg.sender. The callee runs in a
// nested frame: if it fails, only its own effects are rolled back and the
// error is returned to the caller, who decides whether to revert.
func (ctx *Context) Call(to common.Address, method string, args ...interface{}) (interface{}, error) {
	return ctx.CallWithValue(to, nil, method, args...)
}

func (ctx *Context) CallWithValue(to common.Address, value *uint256.Int, method string, args ...interface{}) (interface{}, error) {
	child := ctx.sa.Nest()
	result, logs, err := ctx.chain.execute(child, frame{
		caller: ctx.Self,
		origin: ctx.Origin,
		to:     to,
		value:  value,
		method: method,
		args:   args,
		block:  ctx.Block,
		depth:  ctx.depth + 1,
	})
	if err != nil {
		return nil, err
	}

	child.Commit()
	ctx.logs = append(ctx.logs, logs...)

	return result, nil
}

// Transfer sends native currency from Self. Externally owned accounts always
// accept; contracts accept only through a successful Receive.
func (ctx *Context) Transfer(to common.Address, amount *uint256.Int) error {
	_, err := ctx.CallWithValue(to, amount, "")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}

	return nil
}
