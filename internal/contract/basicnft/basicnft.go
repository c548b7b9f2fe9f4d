package basicnft

import (
	"github.com/ZilDuck/nft-marketplace/internal/chain"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"math/big"
)

const (
	ContractName = "BasicNft"

	Name      = "Dogie"
	Symbol    = "DOG"
	TokenUri  = "ipfs://bafybeig37ioir76s7mg5oobetncojcm3c3hxasyd4rvid4jqhy4gkaheg4/?filename=0-PUG.json"
	keyCount  = "tokenCounter"
	keyOwner  = "owner"
	keyBal    = "balance"
	keyApprov = "approved"
	keyOp     = "operator"
)

const (
	ReasonNonexistentUri   = "ERC721Metadata: URI query for nonexistent token"
	ReasonInvalidToken     = "ERC721: invalid token ID"
	ReasonZeroAddress      = "ERC721: address zero is not a valid owner"
	ReasonApproveToOwner   = "ERC721: approval to current owner"
	ReasonApproveNotOwner  = "ERC721: approve caller is not token owner or approved for all"
	ReasonApproveToCaller  = "ERC721: approve to caller"
	ReasonNotOwnerApproved = "ERC721: caller is not token owner or approved"
	ReasonFromIncorrect    = "ERC721: transfer from incorrect owner"
	ReasonTransferToZero   = "ERC721: transfer to the zero address"
)

// BasicNft is an ERC-721 collection where every token shares one metadata uri.
// The uri is fixed per deployment; NewBasicNft("") uses TokenUri.
type BasicNft struct {
	tokenUri string
}

func NewBasicNft(tokenUri string) BasicNft {
	if tokenUri == "" {
		tokenUri = TokenUri
	}
	return BasicNft{tokenUri: tokenUri}
}

func (n BasicNft) Name() string {
	return ContractName
}

func (n BasicNft) Construct(ctx *chain.Context, _ chain.Args) error {
	return putUint(ctx, keyCount, new(uint256.Int))
}

func (n BasicNft) Methods() map[string]chain.Method {
	return map[string]chain.Method{
		"mint":              {Handler: n.mint},
		"getTokenCounter":   {View: true, Handler: n.getTokenCounter},
		"TOKEN_URI":         {View: true, Handler: n.constant(n.tokenUri)},
		"tokenURI":          {View: true, Handler: n.tokenURI},
		"name":              {View: true, Handler: n.constant(Name)},
		"symbol":            {View: true, Handler: n.constant(Symbol)},
		"balanceOf":         {View: true, Handler: n.balanceOf},
		"ownerOf":           {View: true, Handler: n.ownerOf},
		"approve":           {Handler: n.approve},
		"getApproved":       {View: true, Handler: n.getApproved},
		"setApprovalForAll": {Handler: n.setApprovalForAll},
		"isApprovedForAll":  {View: true, Handler: n.isApprovedForAll},
		"transferFrom":      {Handler: n.transferFrom},
	}
}

func (n BasicNft) constant(v string) chain.Handler {
	return func(*chain.Context, chain.Args) (interface{}, error) {
		return v, nil
	}
}

func (n BasicNft) mint(ctx *chain.Context, _ chain.Args) (interface{}, error) {
	tokenId, err := getUint(ctx, keyCount)
	if err != nil {
		return nil, err
	}

	if err := putAddress(ctx, ownerKey(tokenId), ctx.Caller); err != nil {
		return nil, err
	}
	if err := addBalance(ctx, ctx.Caller, 1); err != nil {
		return nil, err
	}
	next := new(uint256.Int).AddUint64(tokenId, 1)
	if err := putUint(ctx, keyCount, next); err != nil {
		return nil, err
	}

	ctx.Emit(entity.NftTransferEvent,
		entity.AddressParam("from", common.Address{}),
		entity.AddressParam("to", ctx.Caller),
		entity.UintParam("tokenId", tokenId),
	)

	return tokenId, nil
}

func (n BasicNft) getTokenCounter(ctx *chain.Context, _ chain.Args) (interface{}, error) {
	return getUint(ctx, keyCount)
}

func (n BasicNft) tokenURI(ctx *chain.Context, args chain.Args) (interface{}, error) {
	tokenId, err := args.Uint256(0)
	if err != nil {
		return nil, err
	}
	if _, ok, err := getAddress(ctx, ownerKey(tokenId)); err != nil {
		return nil, err
	} else if !ok {
		return nil, chain.Revert(ReasonNonexistentUri)
	}

	return n.tokenUri, nil
}

func (n BasicNft) balanceOf(ctx *chain.Context, args chain.Args) (interface{}, error) {
	owner, err := args.Address(0)
	if err != nil {
		return nil, err
	}
	if owner == (common.Address{}) {
		return nil, chain.Revert(ReasonZeroAddress)
	}

	return getUint(ctx, balanceKey(owner))
}

func (n BasicNft) ownerOf(ctx *chain.Context, args chain.Args) (interface{}, error) {
	tokenId, err := args.Uint256(0)
	if err != nil {
		return nil, err
	}

	return requireOwner(ctx, tokenId)
}

func (n BasicNft) approve(ctx *chain.Context, args chain.Args) (interface{}, error) {
	to, err := args.Address(0)
	if err != nil {
		return nil, err
	}
	tokenId, err := args.Uint256(1)
	if err != nil {
		return nil, err
	}

	owner, err := requireOwner(ctx, tokenId)
	if err != nil {
		return nil, err
	}
	if to == owner {
		return nil, chain.Revert(ReasonApproveToOwner)
	}
	if ctx.Caller != owner && !isOperator(ctx, owner, ctx.Caller) {
		return nil, chain.Revert(ReasonApproveNotOwner)
	}

	if err := putAddress(ctx, approvedKey(tokenId), to); err != nil {
		return nil, err
	}
	ctx.Emit(entity.NftApprovalEvent,
		entity.AddressParam("owner", owner),
		entity.AddressParam("approved", to),
		entity.UintParam("tokenId", tokenId),
	)

	return nil, nil
}

func (n BasicNft) getApproved(ctx *chain.Context, args chain.Args) (interface{}, error) {
	tokenId, err := args.Uint256(0)
	if err != nil {
		return nil, err
	}
	if _, err := requireOwner(ctx, tokenId); err != nil {
		return nil, err
	}

	approved, _, err := getAddress(ctx, approvedKey(tokenId))
	return approved, err
}

func (n BasicNft) setApprovalForAll(ctx *chain.Context, args chain.Args) (interface{}, error) {
	operator, err := args.Address(0)
	if err != nil {
		return nil, err
	}
	approved, err := args.Bool(1)
	if err != nil {
		return nil, err
	}
	if operator == ctx.Caller {
		return nil, chain.Revert(ReasonApproveToCaller)
	}

	key := operatorKey(ctx.Caller, operator)
	if approved {
		ctx.Put(key, []byte{1})
	} else {
		ctx.Delete(key)
	}
	ctx.Emit(entity.NftApprovalForAllEvent,
		entity.AddressParam("owner", ctx.Caller),
		entity.AddressParam("operator", operator),
		entity.BoolParam("approved", approved),
	)

	return nil, nil
}

func (n BasicNft) isApprovedForAll(ctx *chain.Context, args chain.Args) (interface{}, error) {
	owner, err := args.Address(0)
	if err != nil {
		return nil, err
	}
	operator, err := args.Address(1)
	if err != nil {
		return nil, err
	}

	return isOperator(ctx, owner, operator), nil
}

func (n BasicNft) transferFrom(ctx *chain.Context, args chain.Args) (interface{}, error) {
	from, err := args.Address(0)
	if err != nil {
		return nil, err
	}
	to, err := args.Address(1)
	if err != nil {
		return nil, err
	}
	tokenId, err := args.Uint256(2)
	if err != nil {
		return nil, err
	}

	owner, err := requireOwner(ctx, tokenId)
	if err != nil {
		return nil, err
	}
	approved, _, err := getAddress(ctx, approvedKey(tokenId))
	if err != nil {
		return nil, err
	}
	if ctx.Caller != owner && ctx.Caller != approved && !isOperator(ctx, owner, ctx.Caller) {
		return nil, chain.Revert(ReasonNotOwnerApproved)
	}
	if owner != from {
		return nil, chain.Revert(ReasonFromIncorrect)
	}
	if to == (common.Address{}) {
		return nil, chain.Revert(ReasonTransferToZero)
	}

	ctx.Delete(approvedKey(tokenId))
	if err := addBalance(ctx, from, -1); err != nil {
		return nil, err
	}
	if err := addBalance(ctx, to, 1); err != nil {
		return nil, err
	}
	if err := putAddress(ctx, ownerKey(tokenId), to); err != nil {
		return nil, err
	}

	ctx.Emit(entity.NftTransferEvent,
		entity.AddressParam("from", from),
		entity.AddressParam("to", to),
		entity.UintParam("tokenId", tokenId),
	)

	return nil, nil
}

func requireOwner(ctx *chain.Context, tokenId *uint256.Int) (common.Address, error) {
	owner, ok, err := getAddress(ctx, ownerKey(tokenId))
	if err != nil {
		return common.Address{}, err
	}
	if !ok {
		return common.Address{}, chain.Revert(ReasonInvalidToken)
	}

	return owner, nil
}

func isOperator(ctx *chain.Context, owner, operator common.Address) bool {
	return ctx.Has(operatorKey(owner, operator))
}

func ownerKey(tokenId *uint256.Int) string {
	return state.Key(keyOwner, state.UintPart(tokenId))
}

func approvedKey(tokenId *uint256.Int) string {
	return state.Key(keyApprov, state.UintPart(tokenId))
}

func balanceKey(owner common.Address) string {
	return state.Key(keyBal, state.AddressPart(owner))
}

func operatorKey(owner, operator common.Address) string {
	return state.Key(keyOp, state.AddressPart(owner), state.AddressPart(operator))
}

func getUint(ctx *chain.Context, key string) (*uint256.Int, error) {
	var v big.Int
	if _, err := ctx.GetRLP(key, &v); err != nil {
		return nil, err
	}

	u, _ := uint256.FromBig(&v)
	return u, nil
}

func putUint(ctx *chain.Context, key string, v *uint256.Int) error {
	return ctx.PutRLP(key, v.ToBig())
}

func addBalance(ctx *chain.Context, owner common.Address, delta int64) error {
	balance, err := getUint(ctx, balanceKey(owner))
	if err != nil {
		return err
	}
	if delta >= 0 {
		balance.AddUint64(balance, uint64(delta))
	} else {
		balance.SubUint64(balance, uint64(-delta))
	}

	return putUint(ctx, balanceKey(owner), balance)
}

func getAddress(ctx *chain.Context, key string) (common.Address, bool, error) {
	var addr common.Address
	ok, err := ctx.GetRLP(key, &addr)

	return addr, ok, err
}

func putAddress(ctx *chain.Context, key string, addr common.Address) error {
	return ctx.PutRLP(key, addr)
}
