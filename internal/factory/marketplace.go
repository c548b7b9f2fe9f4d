package factory

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

const feeBasisPoints = 10000

type NftMarketplaceFactory struct {
	nftActionRepo repository.ActionRepository
}

func NewNftMarketplaceFactory(nftActionRepo repository.ActionRepository) NftMarketplaceFactory {
	return NftMarketplaceFactory{nftActionRepo}
}

func (f NftMarketplaceFactory) CreateListing(receipt entity.Receipt, logIndex int, log entity.EventLog) (*entity.NftAction, error) {
	nftAddress, tokenId, err := getListingParams(log.Params)
	if err != nil {
		zap.L().With(zap.String("txId", receipt.TxHash.Hex()), zap.Error(err)).Error("NftMarketplace listing: Failed to read params")
		return nil, err
	}
	seller, err := getAddress(log.Params, "seller")
	if err != nil {
		return nil, err
	}
	price, err := getUint(log.Params, "price")
	if err != nil {
		zap.L().With(zap.String("txId", receipt.TxHash.Hex()), zap.Error(err)).Error("NftMarketplace listing: Failed to get price")
		return nil, err
	}

	action := CreateMarketplaceListingAction(entity.NftMarketplace, receipt, logIndex, nftAddress, tokenId, seller, price)
	return &action, nil
}

func (f NftMarketplaceFactory) CreateDelisting(receipt entity.Receipt, logIndex int, log entity.EventLog) (*entity.NftAction, error) {
	nftAddress, tokenId, err := getListingParams(log.Params)
	if err != nil {
		zap.L().With(zap.String("txId", receipt.TxHash.Hex()), zap.Error(err)).Error("NftMarketplace delisting: Failed to read params")
		return nil, err
	}
	seller, err := getAddress(log.Params, "seller")
	if err != nil {
		return nil, err
	}

	action := CreateMarketplaceDelistingAction(entity.NftMarketplace, receipt, logIndex, nftAddress, tokenId, seller)
	return &action, nil
}

// CreateSale resolves the seller from the token's Transfer in the same
// receipt, falling back to the last recorded owner.
func (f NftMarketplaceFactory) CreateSale(ctx context.Context, receipt entity.Receipt, logIndex int, log entity.EventLog) (*entity.NftAction, error) {
	nftAddress, tokenId, err := getListingParams(log.Params)
	if err != nil {
		zap.L().With(zap.String("txId", receipt.TxHash.Hex()), zap.Error(err)).Error("NftMarketplace sale: Failed to read params")
		return nil, err
	}
	buyer, err := getAddress(log.Params, "buyer")
	if err != nil {
		return nil, err
	}
	// value is what the seller was credited; price is the listing price
	costParam := "price"
	if log.Params.HasParam("value") {
		costParam = "value"
	}
	cost, err := getUint(log.Params, costParam)
	if err != nil {
		zap.L().With(zap.String("txId", receipt.TxHash.Hex()), zap.Error(err)).Error("NftMarketplace sale: Failed to get price")
		return nil, err
	}

	seller, err := f.getSeller(ctx, receipt, nftAddress, tokenId)
	if err != nil {
		zap.L().With(zap.String("txId", receipt.TxHash.Hex()), zap.Error(err)).Error("NftMarketplace sale: Failed to get seller")
		return nil, err
	}

	action := CreateMarketplaceSaleAction(entity.NftMarketplace, receipt, logIndex, nftAddress, tokenId, buyer.Hex(), seller, cost, PlatformFee(cost))
	return &action, nil
}

func (f NftMarketplaceFactory) getSeller(ctx context.Context, receipt entity.Receipt, nftAddress common.Address, tokenId *uint256.Int) (string, error) {
	for _, log := range receipt.GetEventLogs(entity.NftTransferEvent) {
		if log.Address != nftAddress {
			continue
		}
		params, err := getTransferParams(log.Params)
		if err == nil && params.tokenId.Eq(tokenId) {
			return params.from.Hex(), nil
		}
	}

	return f.nftActionRepo.GetNftOwnerBeforeBlockNum(ctx, nftAddress.Hex(), tokenId.Dec(), receipt.BlockNumber)
}

// PlatformFee is the marketplace's cut of cost, in basis points.
func PlatformFee(cost *uint256.Int) *uint256.Int {
	fee := new(uint256.Int).Mul(cost, uint256.NewInt(uint64(entity.NftMarketplacePlatformFee)))
	return fee.Div(fee, uint256.NewInt(feeBasisPoints))
}

func getListingParams(params entity.Params) (common.Address, *uint256.Int, error) {
	nftAddress, err := getAddress(params, "nftAddress")
	if err != nil {
		return common.Address{}, nil, err
	}
	tokenId, err := getUint(params, "tokenId")
	if err != nil {
		return common.Address{}, nil, err
	}

	return nftAddress, tokenId, nil
}
