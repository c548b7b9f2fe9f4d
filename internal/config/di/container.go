package di

import (
	"github.com/ZilDuck/nft-marketplace/internal/chain"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/deploy"
	"github.com/ZilDuck/nft-marketplace/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/indexer"
	"github.com/ZilDuck/nft-marketplace/internal/repository"
	"github.com/ZilDuck/nft-marketplace/internal/rpc"
	"github.com/ZilDuck/nft-marketplace/internal/rpcclient"
	"github.com/sarulabs/di/v2"
)

// Container wraps the app scope with typed getters. Getters panic when a
// definition fails to build, the Safe variants return the error instead.
type Container struct {
	ctn di.Container
}

func NewContainer(cfg *config.Config) (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}
	if err := builder.Add(Definitions(cfg)...); err != nil {
		return nil, err
	}

	return &Container{builder.Build()}, nil
}

func (c *Container) Delete() error {
	return c.ctn.Delete()
}

func (c *Container) GetConfig() *config.Config {
	return c.ctn.Get("config").(*config.Config)
}

func (c *Container) GetEvents() *event.Manager {
	return c.ctn.Get("events").(*event.Manager)
}

func (c *Container) GetChain() *chain.Chain {
	return c.ctn.Get("chain").(*chain.Chain)
}

func (c *Container) SafeGetChain() (*chain.Chain, error) {
	obj, err := c.ctn.SafeGet("chain")
	if err != nil {
		return nil, err
	}
	return obj.(*chain.Chain), nil
}

func (c *Container) GetStore() deploy.Store {
	return c.ctn.Get("store").(deploy.Store)
}

func (c *Container) GetEnvironment() deploy.Environment {
	return c.ctn.Get("environment").(deploy.Environment)
}

func (c *Container) GetRunner() deploy.Runner {
	return c.ctn.Get("runner").(deploy.Runner)
}

func (c *Container) GetRpcServer() *rpc.Server {
	return c.ctn.Get("rpc.server").(*rpc.Server)
}

func (c *Container) SafeGetProvider() (*rpcclient.Provider, error) {
	obj, err := c.ctn.SafeGet("rpc.provider")
	if err != nil {
		return nil, err
	}
	return obj.(*rpcclient.Provider), nil
}

func (c *Container) SafeGetElastic() (elastic_search.Index, error) {
	obj, err := c.ctn.SafeGet("elastic")
	if err != nil {
		return nil, err
	}
	return obj.(elastic_search.Index), nil
}

func (c *Container) SafeGetActionRepository() (repository.ActionRepository, error) {
	obj, err := c.ctn.SafeGet("action.repository")
	if err != nil {
		return nil, err
	}
	return obj.(repository.ActionRepository), nil
}

func (c *Container) SafeGetIndexer() (indexer.Indexer, error) {
	obj, err := c.ctn.SafeGet("indexer")
	if err != nil {
		return nil, err
	}
	return obj.(indexer.Indexer), nil
}
