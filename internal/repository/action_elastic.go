package repository

import (
	"context"
	"encoding/json"
	"github.com/ZilDuck/nft-marketplace/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/olivere/elastic/v7"
	"time"
)

const maxResults = 1000

type elasticActionRepository struct {
	elastic    elastic_search.Index
	retryDelay time.Duration
}

func NewElasticActionRepository(elastic elastic_search.Index, retryDelay time.Duration) ActionRepository {
	return elasticActionRepository{elastic, retryDelay}
}

// Save buffers the actions in the index and flushes them in one bulk request.
func (r elasticActionRepository) Save(ctx context.Context, actions ...entity.NftAction) error {
	if len(actions) == 0 {
		return nil
	}

	for _, action := range actions {
		r.elastic.AddIndexRequest(r.elastic.Name(elastic_search.NftActionIndex), action)
	}

	_, err := r.elastic.Persist(ctx)
	return err
}

func (r elasticActionRepository) GetActionsForToken(ctx context.Context, contract, tokenId string) ([]entity.NftAction, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("contract", contract),
		elastic.NewTermQuery("tokenId", tokenId),
	)

	return r.findMany(ctx, query, maxResults)
}

func (r elasticActionRepository) GetActionsByType(ctx context.Context, contract string, action entity.ActionType) ([]entity.NftAction, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("contract", contract),
		elastic.NewTermQuery("action", string(action)),
	)

	return r.findMany(ctx, query, maxResults)
}

func (r elasticActionRepository) GetNftOwnerBeforeBlockNum(ctx context.Context, contract, tokenId string, blockNum uint64) (string, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewRangeQuery("blockNum").Lt(blockNum),
		elastic.NewTermQuery("contract", contract),
		elastic.NewTermQuery("tokenId", tokenId),
		elastic.NewTermsQuery("action", string(entity.MintAction), string(entity.TransferAction)),
	)

	results, err := r.search(ctx, query, 1, false)
	action, err := r.findOne(results, err)
	if err != nil {
		return "", err
	}

	return action.To, nil
}

func (r elasticActionRepository) findMany(ctx context.Context, query elastic.Query, size int) ([]entity.NftAction, error) {
	results, err := r.search(ctx, query, size, true)
	if err != nil {
		return nil, err
	}

	actions := make([]entity.NftAction, 0, len(results.Hits.Hits))
	for _, hit := range results.Hits.Hits {
		var action entity.NftAction
		if err := json.Unmarshal(hit.Source, &action); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	sortActions(actions)

	return actions, nil
}

func (r elasticActionRepository) findOne(results *elastic.SearchResult, err error) (*entity.NftAction, error) {
	if err != nil {
		return nil, err
	}

	if len(results.Hits.Hits) == 0 {
		return nil, ErrNftActionNotFound
	}

	var action entity.NftAction
	if err := json.Unmarshal(results.Hits.Hits[0].Source, &action); err != nil {
		return nil, err
	}

	return &action, nil
}

func (r elasticActionRepository) search(ctx context.Context, query elastic.Query, size int, ascending bool) (*elastic.SearchResult, error) {
	var result *elastic.SearchResult
	err := elastic_search.Retry(ctx, r.retryDelay, func() error {
		var err error
		result, err = r.elastic.GetClient().
			Search(r.elastic.Name(elastic_search.NftActionIndex)).
			Query(query).
			Sort("blockNum", ascending).
			Sort("logIndex", ascending).
			Size(size).
			Do(ctx)
		return err
	})

	return result, err
}
