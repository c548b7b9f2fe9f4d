package indexer

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ContractResolver names the contract deployed at an address.
type ContractResolver interface {
	CodeAt(addr common.Address) (string, bool)
}

type Indexer interface {
	IndexReceipt(ctx context.Context, receipt entity.Receipt) ([]entity.NftAction, error)
	Subscribe(ctx context.Context, events *event.Manager)
}

type indexer struct {
	contracts          ContractResolver
	nftIndexer         NftIndexer
	marketplaceIndexer MarketplaceIndexer
	actionRepo         repository.ActionRepository
}

func NewIndexer(
	contracts ContractResolver,
	nftIndexer NftIndexer,
	marketplaceIndexer MarketplaceIndexer,
	actionRepo repository.ActionRepository,
) Indexer {
	return indexer{contracts, nftIndexer, marketplaceIndexer, actionRepo}
}

// IndexReceipt records the actions of a confirmed receipt. Marketplace events
// only count when emitted by an NftMarketplace contract.
func (i indexer) IndexReceipt(ctx context.Context, receipt entity.Receipt) ([]entity.NftAction, error) {
	actions := make([]entity.NftAction, 0)
	if !receipt.Succeeded() {
		return actions, nil
	}

	for logIndex, log := range receipt.Logs {
		action, err := i.indexLog(ctx, receipt, logIndex, log)
		if err != nil {
			zap.L().With(
				zap.String("txId", receipt.TxHash.Hex()),
				zap.String("event", log.EventName),
				zap.Error(err),
			).Error("Indexer: Failed to index event")
			return nil, err
		}
		if action != nil {
			actions = append(actions, *action)
		}
	}

	if err := i.actionRepo.Save(ctx, actions...); err != nil {
		zap.L().With(zap.String("txId", receipt.TxHash.Hex()), zap.Error(err)).Error("Indexer: Failed to save actions")
		return nil, err
	}

	return actions, nil
}

func (i indexer) indexLog(ctx context.Context, receipt entity.Receipt, logIndex int, log entity.EventLog) (*entity.NftAction, error) {
	if name, ok := i.contracts.CodeAt(log.Address); ok && name == string(entity.NftMarketplace) {
		return i.marketplaceIndexer.IndexLog(ctx, receipt, logIndex, log)
	}

	return i.nftIndexer.IndexLog(receipt, logIndex, log)
}

// Subscribe indexes every confirmed receipt the manager emits.
func (i indexer) Subscribe(ctx context.Context, events *event.Manager) {
	events.AddEventListener(event.ReceiptConfirmedEvent, func(msg interface{}) {
		receipt, ok := msg.(entity.Receipt)
		if !ok {
			zap.L().Warn("Indexer: Unexpected event payload")
			return
		}
		if _, err := i.IndexReceipt(ctx, receipt); err != nil {
			zap.L().With(zap.Error(err)).Error("Indexer: Failed to index receipt")
		}
	})
}
