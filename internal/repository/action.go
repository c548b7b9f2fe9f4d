package repository

import (
	"context"
	"errors"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"sort"
)

var (
	ErrNftActionNotFound = errors.New("nft action not found")
)

// ActionRepository stores the marketplace history of every token.
type ActionRepository interface {
	Save(ctx context.Context, actions ...entity.NftAction) error

	GetActionsForToken(ctx context.Context, contract, tokenId string) ([]entity.NftAction, error)
	GetActionsByType(ctx context.Context, contract string, action entity.ActionType) ([]entity.NftAction, error)
	GetNftOwnerBeforeBlockNum(ctx context.Context, contract, tokenId string, blockNum uint64) (string, error)
}

var ownershipActions = []entity.ActionType{entity.MintAction, entity.TransferAction}

func sortActions(actions []entity.NftAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].BlockNum != actions[j].BlockNum {
			return actions[i].BlockNum < actions[j].BlockNum
		}
		return actions[i].LogIndex < actions[j].LogIndex
	})
}

func isOwnershipAction(action entity.ActionType) bool {
	for _, a := range ownershipActions {
		if a == action {
			return true
		}
	}
	return false
}
