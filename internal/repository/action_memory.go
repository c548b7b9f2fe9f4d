package repository

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/patrickmn/go-cache"
	"strings"
)

type memoryActionRepository struct {
	cache *cache.Cache
}

// NewMemoryActionRepository keeps actions in process, keyed by slug, for dev
// nodes that run without Elasticsearch.
func NewMemoryActionRepository() ActionRepository {
	return memoryActionRepository{cache.New(cache.NoExpiration, 0)}
}

func (r memoryActionRepository) Save(_ context.Context, actions ...entity.NftAction) error {
	for _, action := range actions {
		r.cache.Set(action.Slug(), action, cache.NoExpiration)
	}

	return nil
}

func (r memoryActionRepository) GetActionsForToken(_ context.Context, contract, tokenId string) ([]entity.NftAction, error) {
	return r.filter(func(a entity.NftAction) bool {
		return strings.EqualFold(a.Contract, contract) && a.TokenId == tokenId
	}), nil
}

func (r memoryActionRepository) GetActionsByType(_ context.Context, contract string, action entity.ActionType) ([]entity.NftAction, error) {
	return r.filter(func(a entity.NftAction) bool {
		return strings.EqualFold(a.Contract, contract) && a.Action == action
	}), nil
}

func (r memoryActionRepository) GetNftOwnerBeforeBlockNum(_ context.Context, contract, tokenId string, blockNum uint64) (string, error) {
	actions := r.filter(func(a entity.NftAction) bool {
		return strings.EqualFold(a.Contract, contract) &&
			a.TokenId == tokenId &&
			a.BlockNum < blockNum &&
			isOwnershipAction(a.Action)
	})
	if len(actions) == 0 {
		return "", ErrNftActionNotFound
	}

	return actions[len(actions)-1].To, nil
}

func (r memoryActionRepository) filter(match func(entity.NftAction) bool) []entity.NftAction {
	actions := make([]entity.NftAction, 0)
	for _, item := range r.cache.Items() {
		if action := item.Object.(entity.NftAction); match(action) {
			actions = append(actions, action)
		}
	}
	sortActions(actions)

	return actions
}
