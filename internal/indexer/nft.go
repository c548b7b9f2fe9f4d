package indexer

import (
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/factory"
	"go.uber.org/zap"
)

type NftIndexer interface {
	IndexLog(receipt entity.Receipt, logIndex int, log entity.EventLog) (*entity.NftAction, error)
}

type nftIndexer struct{}

func NewNftIndexer() NftIndexer {
	return nftIndexer{}
}

func (i nftIndexer) IndexLog(receipt entity.Receipt, logIndex int, log entity.EventLog) (*entity.NftAction, error) {
	if log.EventName != entity.NftTransferEvent {
		return nil, nil
	}

	action, err := factory.CreateNftAction(receipt, logIndex, log)
	if err != nil {
		return nil, err
	}

	zap.L().With(
		zap.String("txId", action.TxID),
		zap.String("contractAddr", action.Contract),
		zap.String("tokenId", action.TokenId),
		zap.String("action", string(action.Action)),
	).Info("Nft " + string(action.Action))

	return action, nil
}
