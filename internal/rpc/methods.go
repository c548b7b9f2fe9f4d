package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/ZilDuck/nft-marketplace/internal/binding"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func (s *Server) accounts(context.Context, []json.RawMessage) (interface{}, error) {
	return s.chain.Accounts(), nil
}

func (s *Server) namedAccounts(context.Context, []json.RawMessage) (interface{}, error) {
	return s.env.NamedAccounts()
}

func (s *Server) blockNumber(context.Context, []json.RawMessage) (interface{}, error) {
	return s.chain.BlockNumber(), nil
}

func (s *Server) getBalance(_ context.Context, params []json.RawMessage) (interface{}, error) {
	var addr common.Address
	if err := param(params, 0, &addr); err != nil {
		return nil, err
	}

	return s.chain.Balance(addr), nil
}

func (s *Server) sendTransaction(ctx context.Context, params []json.RawMessage) (interface{}, error) {
	var msg entity.CallMsg
	if err := param(params, 0, &msg); err != nil {
		return nil, err
	}

	receipt, err := s.chain.Transact(ctx, msg)
	if err != nil {
		return nil, revertedTx{err: err, receipt: receipt}
	}

	return receipt, nil
}

func (s *Server) call(ctx context.Context, params []json.RawMessage) (interface{}, error) {
	var msg entity.CallMsg
	if err := param(params, 0, &msg); err != nil {
		return nil, err
	}

	return s.chain.Call(ctx, msg)
}

func (s *Server) getTransactionReceipt(_ context.Context, params []json.RawMessage) (interface{}, error) {
	var hash common.Hash
	if err := param(params, 0, &hash); err != nil {
		return nil, err
	}

	return s.chain.GetReceipt(hash)
}

func (s *Server) getDeployment(_ context.Context, params []json.RawMessage) (interface{}, error) {
	var name string
	if err := param(params, 0, &name); err != nil {
		return nil, err
	}

	return s.env.Get(name)
}

// getNft reads owner and token uri of a BasicNft token in one round trip.
func (s *Server) getNft(ctx context.Context, params []json.RawMessage) (interface{}, error) {
	var contract common.Address
	if err := param(params, 0, &contract); err != nil {
		return nil, err
	}
	var tokenId uint64
	if err := param(params, 1, &tokenId); err != nil {
		return nil, err
	}

	var from common.Address
	if accounts := s.chain.Accounts(); len(accounts) != 0 {
		from = accounts[0]
	}
	nft := binding.NewBasicNft(s.chain, contract, from)

	owner, err := nft.OwnerOf(ctx, uint256.NewInt(tokenId))
	if err != nil {
		return nil, err
	}
	tokenUri, err := nft.TokenUri(ctx, uint256.NewInt(tokenId))
	if err != nil {
		return nil, err
	}

	return entity.Nft{Contract: contract, TokenId: tokenId, TokenUri: tokenUri, Owner: owner}, nil
}

// param decodes params[i] into v. Numbers are kept as json.Number so call
// arguments never lose precision.
func param(params []json.RawMessage, i int, v interface{}) error {
	if i >= len(params) {
		return newError(CodeInvalidParams, "missing param %d", i)
	}

	decoder := json.NewDecoder(bytes.NewReader(params[i]))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return newError(CodeInvalidParams, "param %d: %v", i, err)
	}

	return nil
}
