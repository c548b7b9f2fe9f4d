package di

import (
	"github.com/ZilDuck/nft-marketplace/internal/chain"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/contract/basicnft"
	"github.com/ZilDuck/nft-marketplace/internal/contract/marketplace"
	"github.com/ZilDuck/nft-marketplace/internal/deploy"
	"github.com/ZilDuck/nft-marketplace/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/factory"
	"github.com/ZilDuck/nft-marketplace/internal/indexer"
	"github.com/ZilDuck/nft-marketplace/internal/repository"
	"github.com/ZilDuck/nft-marketplace/internal/rpc"
	"github.com/ZilDuck/nft-marketplace/internal/rpcclient"
	"github.com/ZilDuck/nft-marketplace/internal/verify"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
	"time"
)

func Definitions(cfg *config.Config) []di.Def {
	return []di.Def{
		{
			Name:  "config",
			Build: func(di.Container) (interface{}, error) { return cfg, nil },
		},
		{
			Name:  "events",
			Build: func(di.Container) (interface{}, error) { return event.NewManager(), nil },
			Close: func(obj interface{}) error {
				obj.(*event.Manager).Close()
				return nil
			},
		},
		{
			Name: "chain",
			Build: func(ctn di.Container) (interface{}, error) {
				return deploy.NewChain(cfg, ctn.Get("events").(*event.Manager))
			},
		},
		{
			Name: "store",
			Build: func(di.Container) (interface{}, error) {
				return deploy.NewStore(cfg.DeploymentsDir), nil
			},
		},
		{
			Name: "verifier",
			Build: func(di.Container) (interface{}, error) {
				if cfg.Etherscan.ApiKey == "" {
					zap.L().Debug("Container: No explorer api key, verification disabled")
					return nil, nil
				}

				return verify.NewService(verify.Options{
					Url:             cfg.Etherscan.Url,
					ApiKey:          cfg.Etherscan.ApiKey,
					Timeout:         cfg.Etherscan.Timeout,
					PollInterval:    time.Duration(cfg.Etherscan.PollInterval) * time.Second,
					PollAttempts:    cfg.Etherscan.PollAttempts,
					CompilerVersion: cfg.Etherscan.CompilerVersion,
					Sources:         verify.LoadSources(cfg.Etherscan.SourcesDir, basicnft.ContractName, marketplace.ContractName),
				})
			},
		},
		{
			Name: "environment",
			Build: func(ctn di.Container) (interface{}, error) {
				verifier, _ := ctn.Get("verifier").(verify.Service)
				return deploy.NewEnvironment(cfg, ctn.Get("chain").(*chain.Chain), ctn.Get("store").(deploy.Store), verifier, nil), nil
			},
		},
		{
			Name: "runner",
			Build: func(ctn di.Container) (interface{}, error) {
				return deploy.NewRunner(ctn.Get("environment").(deploy.Environment), deploy.DefaultScripts()...), nil
			},
		},
		{
			Name: "rpc.server",
			Build: func(ctn di.Container) (interface{}, error) {
				return rpc.NewServer(ctn.Get("chain").(*chain.Chain), ctn.Get("environment").(deploy.Environment)), nil
			},
		},
		{
			Name: "rpc.provider",
			Build: func(di.Container) (interface{}, error) {
				client, err := rpcclient.NewClient(cfg.Rpc.Url, cfg.Rpc.Timeout, cfg.Rpc.Debug)
				if err != nil {
					return nil, err
				}
				return rpcclient.NewProvider(client), nil
			},
		},
		{
			Name: "elastic",
			Build: func(di.Container) (interface{}, error) {
				return elastic_search.New(cfg)
			},
		},
		{
			Name: "action.repository",
			Build: func(ctn di.Container) (interface{}, error) {
				if !cfg.ElasticSearch.Enabled {
					return repository.NewMemoryActionRepository(), nil
				}

				idx, err := ctn.SafeGet("elastic")
				if err != nil {
					return nil, err
				}
				retryDelay := time.Duration(cfg.ElasticSearch.RetryDelayMs) * time.Millisecond
				return repository.NewElasticActionRepository(idx.(elastic_search.Index), retryDelay), nil
			},
		},
		{
			Name: "indexer",
			Build: func(ctn di.Container) (interface{}, error) {
				actionRepo := ctn.Get("action.repository").(repository.ActionRepository)
				return indexer.NewIndexer(
					ctn.Get("chain").(*chain.Chain),
					indexer.NewNftIndexer(),
					indexer.NewMarketplaceIndexer(factory.NewNftMarketplaceFactory(actionRepo)),
					actionRepo,
				), nil
			},
		},
	}
}
