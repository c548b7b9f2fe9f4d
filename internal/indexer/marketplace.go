package indexer

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/factory"
	"go.uber.org/zap"
)

type MarketplaceIndexer interface {
	IndexLog(ctx context.Context, receipt entity.Receipt, logIndex int, log entity.EventLog) (*entity.NftAction, error)
}

type marketplaceIndexer struct {
	factory factory.NftMarketplaceFactory
}

func NewMarketplaceIndexer(factory factory.NftMarketplaceFactory) MarketplaceIndexer {
	return marketplaceIndexer{factory}
}

func (i marketplaceIndexer) IndexLog(ctx context.Context, receipt entity.Receipt, logIndex int, log entity.EventLog) (*entity.NftAction, error) {
	var action *entity.NftAction
	var err error

	switch log.EventName {
	case entity.MpItemListedEvent:
		action, err = i.factory.CreateListing(receipt, logIndex, log)
	case entity.MpItemCanceledEvent:
		action, err = i.factory.CreateDelisting(receipt, logIndex, log)
	case entity.MpItemBoughtEvent:
		action, err = i.factory.CreateSale(ctx, receipt, logIndex, log)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	zap.L().With(
		zap.String("marketplace", action.Marketplace),
		zap.String("txId", action.TxID),
		zap.String("contractAddr", action.Contract),
		zap.String("tokenId", action.TokenId),
		zap.String("from", action.From),
		zap.String("to", action.To),
		zap.String("cost", action.Cost),
		zap.String("fee", action.Fee),
	).Info("Marketplace " + string(action.Action))

	return action, nil
}
