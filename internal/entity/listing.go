package entity

import (
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
	"github.com/holiman/uint256"
)

type Listing struct {
	NftAddress common.Address `json:"nftAddress"`
	TokenId    *uint256.Int   `json:"tokenId"`
	Seller     common.Address `json:"seller"`
	Price      *uint256.Int   `json:"price"`
}

func (l Listing) Slug() string {
	return CreateListingSlug(l.NftAddress, l.TokenId)
}

func CreateListingSlug(nftAddress common.Address, tokenId *uint256.Int) string {
	return slug.Make(fmt.Sprintf("listing-%s-%s", nftAddress.Hex(), tokenId.Dec()))
}
