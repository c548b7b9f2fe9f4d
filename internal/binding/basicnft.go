package binding

import (
	"context"
	"errors"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrNoMintEvent = errors.New("receipt has no mint Transfer event")

type BasicNft struct {
	contract
}

func NewBasicNft(backend Backend, address, from common.Address) *BasicNft {
	return &BasicNft{contract{backend: backend, address: address, from: from}}
}

// Connect returns the same binding sending from another account.
func (n *BasicNft) Connect(from common.Address) *BasicNft {
	return NewBasicNft(n.backend, n.address, from)
}

func (n *BasicNft) Mint(ctx context.Context) (*entity.Receipt, error) {
	return n.transact(ctx, "mint")
}

// MintedTokenId reads the id of the token minted in receipt.
func (n *BasicNft) MintedTokenId(receipt *entity.Receipt) (*uint256.Int, error) {
	for _, ev := range receipt.GetEventLogs(entity.NftTransferEvent) {
		if ev.Address != n.address {
			continue
		}
		from, err := ev.Params.GetParam("from")
		if err != nil {
			return nil, err
		}
		if from.Value != (common.Address{}).Hex() {
			continue
		}
		tokenId, err := ev.Params.GetParam("tokenId")
		if err != nil {
			return nil, err
		}
		return tokenId.Uint256()
	}

	return nil, ErrNoMintEvent
}

func (n *BasicNft) GetTokenCounter(ctx context.Context) (*uint256.Int, error) {
	var counter *uint256.Int
	err := n.call(ctx, &counter, "getTokenCounter")
	return counter, err
}

// FixedTokenUri is the TOKEN_URI constant shared by every token.
func (n *BasicNft) FixedTokenUri(ctx context.Context) (string, error) {
	var uri string
	err := n.call(ctx, &uri, "TOKEN_URI")
	return uri, err
}

func (n *BasicNft) TokenUri(ctx context.Context, tokenId *uint256.Int) (string, error) {
	var uri string
	err := n.call(ctx, &uri, "tokenURI", tokenId)
	return uri, err
}

func (n *BasicNft) Name(ctx context.Context) (string, error) {
	var name string
	err := n.call(ctx, &name, "name")
	return name, err
}

func (n *BasicNft) Symbol(ctx context.Context) (string, error) {
	var symbol string
	err := n.call(ctx, &symbol, "symbol")
	return symbol, err
}

func (n *BasicNft) BalanceOf(ctx context.Context, owner common.Address) (*uint256.Int, error) {
	var balance *uint256.Int
	err := n.call(ctx, &balance, "balanceOf", owner)
	return balance, err
}

func (n *BasicNft) OwnerOf(ctx context.Context, tokenId *uint256.Int) (common.Address, error) {
	var owner common.Address
	err := n.call(ctx, &owner, "ownerOf", tokenId)
	return owner, err
}

func (n *BasicNft) Approve(ctx context.Context, to common.Address, tokenId *uint256.Int) (*entity.Receipt, error) {
	return n.transact(ctx, "approve", to, tokenId)
}

func (n *BasicNft) GetApproved(ctx context.Context, tokenId *uint256.Int) (common.Address, error) {
	var approved common.Address
	err := n.call(ctx, &approved, "getApproved", tokenId)
	return approved, err
}

func (n *BasicNft) SetApprovalForAll(ctx context.Context, operator common.Address, approved bool) (*entity.Receipt, error) {
	return n.transact(ctx, "setApprovalForAll", operator, approved)
}

func (n *BasicNft) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	var approved bool
	err := n.call(ctx, &approved, "isApprovedForAll", owner, operator)
	return approved, err
}

func (n *BasicNft) TransferFrom(ctx context.Context, from, to common.Address, tokenId *uint256.Int) (*entity.Receipt, error) {
	return n.transact(ctx, "transferFrom", from, to, tokenId)
}
