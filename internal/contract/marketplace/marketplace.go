package marketplace

import (
	"github.com/ZilDuck/nft-marketplace/internal/chain"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"math/big"
)

const ContractName = string(entity.NftMarketplace)

// NftMarketplace lists ERC-721 tokens for sale without taking custody. The
// seller keeps the token and the marketplace approval; the token only moves
// inside buyItem. Sale revenue accrues as proceeds until withdrawn.
type NftMarketplace struct{}

func NewNftMarketplace() NftMarketplace {
	return NftMarketplace{}
}

// listingRecord is the stored form of a listing. Its absence means "not
// listed"; a stored price is never zero.
type listingRecord struct {
	Seller common.Address
	Price  *big.Int
}

func (m NftMarketplace) Name() string {
	return ContractName
}

func (m NftMarketplace) Methods() map[string]chain.Method {
	return map[string]chain.Method{
		"listItem":         {Handler: m.listItem},
		"updateListing":    {Handler: m.listItem},
		"cancelListing":    {Handler: m.cancelListing},
		"buyItem":          {Payable: true, Handler: m.buyItem},
		"getListing":       {View: true, Handler: m.getListing},
		"getProceeds":      {View: true, Handler: m.getProceeds},
		"withdrawProceeds": {Handler: m.withdrawProceeds},
	}
}

func (m NftMarketplace) listItem(ctx *chain.Context, args chain.Args) (interface{}, error) {
	nft, tokenId, err := listingArgs(args)
	if err != nil {
		return nil, err
	}
	price, err := args.Uint256(2)
	if err != nil {
		return nil, err
	}

	if price.IsZero() {
		return nil, ListingPriceCannotBeZero.Revert()
	}

	owner, err := ctx.Call(nft, "ownerOf", tokenId)
	if err != nil {
		return nil, err
	}
	if addr, ok := owner.(common.Address); !ok || addr != ctx.Caller {
		return nil, NotOwner.Revert()
	}

	approved, err := isApproved(ctx, nft, tokenId, ctx.Caller)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, NotApprovedForMint.Revert()
	}

	if err := putListing(ctx, nft, tokenId, listingRecord{Seller: ctx.Caller, Price: price.ToBig()}); err != nil {
		return nil, err
	}

	ctx.Emit(entity.MpItemListedEvent,
		entity.AddressParam("seller", ctx.Caller),
		entity.AddressParam("nftAddress", nft),
		entity.UintParam("tokenId", tokenId),
		entity.UintParam("price", price),
	)

	return nil, nil
}

func (m NftMarketplace) cancelListing(ctx *chain.Context, args chain.Args) (interface{}, error) {
	nft, tokenId, err := listingArgs(args)
	if err != nil {
		return nil, err
	}

	listing, err := requireListing(ctx, nft, tokenId)
	if err != nil {
		return nil, err
	}
	if listing.Seller != ctx.Caller {
		return nil, NotOwner.Revert()
	}

	ctx.Delete(listingKey(nft, tokenId))
	ctx.Emit(entity.MpItemCanceledEvent,
		entity.AddressParam("seller", ctx.Caller),
		entity.AddressParam("nftAddress", nft),
		entity.UintParam("tokenId", tokenId),
	)

	return nil, nil
}

func (m NftMarketplace) buyItem(ctx *chain.Context, args chain.Args) (interface{}, error) {
	nft, tokenId, err := listingArgs(args)
	if err != nil {
		return nil, err
	}

	listing, err := requireListing(ctx, nft, tokenId)
	if err != nil {
		return nil, err
	}
	price, _ := uint256.FromBig(listing.Price)
	if ctx.Value.Lt(price) {
		return nil, PriceNotMet.Revert()
	}

	if err := addProceeds(ctx, listing.Seller, ctx.Value); err != nil {
		return nil, err
	}
	ctx.Delete(listingKey(nft, tokenId))

	if _, err := ctx.Call(nft, "transferFrom", listing.Seller, ctx.Caller, tokenId); err != nil {
		zap.L().With(
			zap.String("nft", nft.Hex()),
			zap.String("tokenId", tokenId.Dec()),
			zap.Error(err),
		).Debug("NftMarketplace: Token transfer failed")
		return nil, err
	}

	ctx.Emit(entity.MpItemBoughtEvent,
		entity.AddressParam("buyer", ctx.Caller),
		entity.AddressParam("nftAddress", nft),
		entity.UintParam("tokenId", tokenId),
		entity.UintParam("price", price),
		entity.UintParam("value", ctx.Value),
	)

	return nil, nil
}

func (m NftMarketplace) getListing(ctx *chain.Context, args chain.Args) (interface{}, error) {
	nft, tokenId, err := listingArgs(args)
	if err != nil {
		return nil, err
	}

	listing, err := requireListing(ctx, nft, tokenId)
	if err != nil {
		return nil, err
	}
	price, _ := uint256.FromBig(listing.Price)

	return entity.Listing{
		NftAddress: nft,
		TokenId:    tokenId,
		Seller:     listing.Seller,
		Price:      price,
	}, nil
}

func (m NftMarketplace) getProceeds(ctx *chain.Context, args chain.Args) (interface{}, error) {
	seller, err := args.Address(0)
	if err != nil {
		return nil, err
	}

	return proceeds(ctx, seller)
}

// withdrawProceeds zeroes the balance before paying out. A failed payout
// reverts the transaction, so the balance is only ever gone once the funds
// have actually arrived.
func (m NftMarketplace) withdrawProceeds(ctx *chain.Context, _ chain.Args) (interface{}, error) {
	amount, err := proceeds(ctx, ctx.Caller)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, NoProceeds.Revert()
	}

	if err := ctx.PutRLP(proceedsKey(ctx.Caller), new(big.Int)); err != nil {
		return nil, err
	}
	if err := ctx.Transfer(ctx.Caller, amount); err != nil {
		zap.L().With(zap.String("seller", ctx.Caller.Hex()), zap.Error(err)).Warn("NftMarketplace: Withdrawal transfer failed")
		return nil, TransferFailed.Revert()
	}

	return nil, nil
}

func listingArgs(args chain.Args) (common.Address, *uint256.Int, error) {
	nft, err := args.Address(0)
	if err != nil {
		return common.Address{}, nil, err
	}
	tokenId, err := args.Uint256(1)
	if err != nil {
		return common.Address{}, nil, err
	}

	return nft, tokenId, nil
}

func isApproved(ctx *chain.Context, nft common.Address, tokenId *uint256.Int, owner common.Address) (bool, error) {
	approved, err := ctx.Call(nft, "getApproved", tokenId)
	if err != nil {
		return false, err
	}
	if addr, ok := approved.(common.Address); ok && addr == ctx.Self {
		return true, nil
	}

	operator, err := ctx.Call(nft, "isApprovedForAll", owner, ctx.Self)
	if err != nil {
		return false, err
	}

	ok, _ := operator.(bool)
	return ok, nil
}

func listingKey(nft common.Address, tokenId *uint256.Int) string {
	return state.Key("listing", state.AddressPart(nft), state.UintPart(tokenId))
}

func proceedsKey(seller common.Address) string {
	return state.Key("proceeds", state.AddressPart(seller))
}

func requireListing(ctx *chain.Context, nft common.Address, tokenId *uint256.Int) (listingRecord, error) {
	var listing listingRecord
	ok, err := ctx.GetRLP(listingKey(nft, tokenId), &listing)
	if err != nil {
		return listingRecord{}, err
	}
	if !ok {
		return listingRecord{}, NotListed.Revert()
	}

	return listing, nil
}

func putListing(ctx *chain.Context, nft common.Address, tokenId *uint256.Int, listing listingRecord) error {
	return ctx.PutRLP(listingKey(nft, tokenId), listing)
}

func proceeds(ctx *chain.Context, seller common.Address) (*uint256.Int, error) {
	var amount big.Int
	if _, err := ctx.GetRLP(proceedsKey(seller), &amount); err != nil {
		return nil, err
	}

	v, _ := uint256.FromBig(&amount)
	return v, nil
}

func addProceeds(ctx *chain.Context, seller common.Address, amount *uint256.Int) error {
	current, err := proceeds(ctx, seller)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return chain.Revert("proceeds overflow")
	}

	return ctx.PutRLP(proceedsKey(seller), sum.ToBig())
}
