package elastic_search

import (
	"context"
	"fmt"
	"testing"

	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/elastic_search/estest"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, bulkPersistCount int) (Index, *estest.Server) {
	srv := estest.NewServer()
	t.Cleanup(srv.Close)

	idx, err := New(&config.Config{
		Network: "hardhat",
		Index:   "marketplace",
		ElasticSearch: config.ElasticSearchConfig{
			Hosts:            []string{srv.URL},
			BulkPersistCount: bulkPersistCount,
			RetryDelayMs:     1,
		},
	})
	require.NoError(t, err)

	return idx, srv
}

func action(tokenId int) entity.NftAction {
	return entity.NftAction{
		Contract: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		TokenId:  fmt.Sprint(tokenId),
		TxID:     fmt.Sprintf("0x%02x", tokenId),
		BlockNum: uint64(tokenId),
		Action:   entity.MintAction,
		To:       "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	}
}

func TestNew_RequiresHosts(t *testing.T) {
	_, err := New(&config.Config{})
	require.ErrorIs(t, err, ErrNoHosts)
}

func TestIndices_Get(t *testing.T) {
	require.Equal(t, "sepolia.marketplace.nftaction", NftActionIndex.Get("sepolia", "marketplace"))
}

func TestIndex_InstallMappings(t *testing.T) {
	idx, srv := newTestIndex(t, 10)
	ctx := context.Background()

	require.NoError(t, idx.InstallMappings(ctx))

	mapping, ok := srv.Mapping("hardhat.marketplace.nftaction")
	require.True(t, ok)
	require.Contains(t, mapping, `"tokenId"`)

	// existing indices are left alone
	require.NoError(t, idx.InstallMappings(ctx))
}

func TestIndex_Persist(t *testing.T) {
	idx, srv := newTestIndex(t, 2)
	ctx := context.Background()
	name := idx.Name(NftActionIndex)

	for i := 0; i < 5; i++ {
		idx.AddIndexRequest(name, action(i))
	}
	require.True(t, idx.HasRequest(action(3)))
	require.Len(t, idx.GetRequests(), 5)
	require.NotNil(t, idx.GetRequest(action(1).Slug()))
	require.Nil(t, idx.GetRequest("missing"))

	persisted, err := idx.Persist(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, persisted)
	require.Equal(t, 3, srv.BulkRequests())
	require.Len(t, srv.Docs(name), 5)
	require.Empty(t, idx.GetRequests())

	doc := srv.Docs(name)[action(4).Slug()]
	require.Equal(t, "4", doc["tokenId"])
	require.Equal(t, "mint", doc["action"])
}

func TestIndex_BatchPersist(t *testing.T) {
	idx, srv := newTestIndex(t, 3)
	ctx := context.Background()
	name := idx.Name(NftActionIndex)

	idx.AddIndexRequest(name, action(1))
	idx.AddIndexRequest(name, action(2))
	persisted, err := idx.BatchPersist(ctx)
	require.NoError(t, err)
	require.False(t, persisted)
	require.Empty(t, srv.Docs(name))

	idx.AddIndexRequest(name, action(3))
	persisted, err = idx.BatchPersist(ctx)
	require.NoError(t, err)
	require.True(t, persisted)
	require.Len(t, srv.Docs(name), 3)
}

func TestIndex_RetriesTooManyRequests(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers", func(t *testing.T) {
		idx, srv := newTestIndex(t, 10)
		name := idx.Name(NftActionIndex)
		srv.Throttle(2)

		idx.AddIndexRequest(name, action(1))
		_, err := idx.Persist(ctx)
		require.NoError(t, err)
		require.Len(t, srv.Docs(name), 1)
	})

	t.Run("gives up", func(t *testing.T) {
		idx, srv := newTestIndex(t, 10)
		name := idx.Name(NftActionIndex)
		srv.Throttle(saveAttempts)

		idx.AddIndexRequest(name, action(1))
		_, err := idx.Persist(ctx)
		require.Error(t, err)
		require.True(t, idx.HasRequest(action(1)), "failed requests stay buffered")
	})

	t.Run("single save", func(t *testing.T) {
		idx, srv := newTestIndex(t, 10)
		name := idx.Name(NftActionIndex)
		srv.Throttle(1)

		require.NoError(t, idx.Save(ctx, name, action(7)))
		require.Contains(t, srv.Docs(name), action(7).Slug())
	})
}

func TestIndex_ClearRequests(t *testing.T) {
	idx, _ := newTestIndex(t, 10)

	idx.AddIndexRequest(idx.Name(NftActionIndex), action(1))
	idx.ClearRequests()
	require.Empty(t, idx.GetRequests())
}
