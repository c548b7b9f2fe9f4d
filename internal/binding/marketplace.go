package binding

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type NftMarketplace struct {
	contract
}

func NewNftMarketplace(backend Backend, address, from common.Address) *NftMarketplace {
	return &NftMarketplace{contract{backend: backend, address: address, from: from}}
}

func (m *NftMarketplace) Connect(from common.Address) *NftMarketplace {
	return NewNftMarketplace(m.backend, m.address, from)
}

func (m *NftMarketplace) ListItem(ctx context.Context, nft common.Address, tokenId, price *uint256.Int) (*entity.Receipt, error) {
	return m.transact(ctx, "listItem", nft, tokenId, price)
}

func (m *NftMarketplace) UpdateListing(ctx context.Context, nft common.Address, tokenId, newPrice *uint256.Int) (*entity.Receipt, error) {
	return m.transact(ctx, "updateListing", nft, tokenId, newPrice)
}

func (m *NftMarketplace) CancelListing(ctx context.Context, nft common.Address, tokenId *uint256.Int) (*entity.Receipt, error) {
	return m.transact(ctx, "cancelListing", nft, tokenId)
}

// BuyItem pays value for the listed token.
func (m *NftMarketplace) BuyItem(ctx context.Context, nft common.Address, tokenId, value *uint256.Int) (*entity.Receipt, error) {
	return m.backend.Transact(ctx, entity.CallMsg{
		From:   m.from,
		To:     m.address,
		Value:  value,
		Method: "buyItem",
		Args:   []interface{}{nft, tokenId},
	})
}

// GetListing fails with a NotListed revert when nothing is listed.
func (m *NftMarketplace) GetListing(ctx context.Context, nft common.Address, tokenId *uint256.Int) (*entity.Listing, error) {
	var listing entity.Listing
	if err := m.call(ctx, &listing, "getListing", nft, tokenId); err != nil {
		return nil, err
	}

	return &listing, nil
}

func (m *NftMarketplace) GetProceeds(ctx context.Context, seller common.Address) (*uint256.Int, error) {
	var proceeds *uint256.Int
	err := m.call(ctx, &proceeds, "getProceeds", seller)
	return proceeds, err
}

func (m *NftMarketplace) WithdrawProceeds(ctx context.Context) (*entity.Receipt, error) {
	return m.transact(ctx, "withdrawProceeds")
}
