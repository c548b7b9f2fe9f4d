package factory

import (
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func newAction(receipt entity.Receipt, logIndex int, contract common.Address, tokenId *uint256.Int, action entity.ActionType) entity.NftAction {
	return entity.NftAction{
		Contract: contract.Hex(),
		TokenId:  tokenId.Dec(),
		TxID:     receipt.TxHash.Hex(),
		BlockNum: receipt.BlockNumber,
		LogIndex: logIndex,
		Action:   action,
	}
}

func CreateMintAction(receipt entity.Receipt, logIndex int, contract common.Address, tokenId *uint256.Int, owner common.Address) entity.NftAction {
	action := newAction(receipt, logIndex, contract, tokenId, entity.MintAction)
	action.To = owner.Hex()

	return action
}

func CreateTransferAction(receipt entity.Receipt, logIndex int, contract common.Address, tokenId *uint256.Int, prevOwner, owner common.Address) entity.NftAction {
	action := newAction(receipt, logIndex, contract, tokenId, entity.TransferAction)
	action.From = prevOwner.Hex()
	action.To = owner.Hex()

	return action
}

func CreateMarketplaceListingAction(marketplace entity.Marketplace, receipt entity.Receipt, logIndex int, contract common.Address, tokenId *uint256.Int, seller common.Address, cost *uint256.Int) entity.NftAction {
	action := newAction(receipt, logIndex, contract, tokenId, entity.MarketplaceListingAction)
	action.Marketplace = string(marketplace)
	action.From = seller.Hex()
	action.Cost = cost.Dec()

	return action
}

func CreateMarketplaceDelistingAction(marketplace entity.Marketplace, receipt entity.Receipt, logIndex int, contract common.Address, tokenId *uint256.Int, seller common.Address) entity.NftAction {
	action := newAction(receipt, logIndex, contract, tokenId, entity.MarketplaceDelistingAction)
	action.Marketplace = string(marketplace)
	action.From = seller.Hex()

	return action
}

func CreateMarketplaceSaleAction(marketplace entity.Marketplace, receipt entity.Receipt, logIndex int, contract common.Address, tokenId *uint256.Int, buyer, seller string, cost, fee *uint256.Int) entity.NftAction {
	action := newAction(receipt, logIndex, contract, tokenId, entity.MarketplaceSaleAction)
	action.Marketplace = string(marketplace)
	action.From = seller
	action.To = buyer
	action.Cost = cost.Dec()
	action.Fee = fee.Dec()

	return action
}
