package binding

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/chain"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
)

// Backend executes contract calls. *chain.Chain satisfies it in process and
// rpcclient.Provider satisfies it over JSON-RPC, where results arrive as
// decoded JSON instead of Go values.
type Backend interface {
	Transact(ctx context.Context, msg entity.CallMsg) (*entity.Receipt, error)
	Call(ctx context.Context, msg entity.CallMsg) (interface{}, error)
}

// Reason returns the revert reason carried by err, whichever backend
// produced it.
func Reason(err error) (string, bool) {
	return chain.RevertReason(err)
}

type contract struct {
	backend Backend
	address common.Address
	from    common.Address
}

func (c contract) Address() common.Address {
	return c.address
}

func (c contract) transact(ctx context.Context, method string, args ...interface{}) (*entity.Receipt, error) {
	return c.backend.Transact(ctx, entity.CallMsg{From: c.from, To: c.address, Method: method, Args: args})
}

func (c contract) call(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	res, err := c.backend.Call(ctx, entity.CallMsg{From: c.from, To: c.address, Method: method, Args: args})
	if err != nil {
		return err
	}

	return decode(res, out)
}

// decode stores res in out. Go values from the in-process chain and JSON
// values from a remote node take the same path through encoding/json.
func decode(res interface{}, out interface{}) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode call result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode call result %s: %w", string(raw), err)
	}

	return nil
}
