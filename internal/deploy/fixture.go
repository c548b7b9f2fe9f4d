package deploy

import (
	"context"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/chain"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/contract/basicnft"
	"github.com/ZilDuck/nft-marketplace/internal/contract/marketplace"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/units"
)

// NewChain starts a chain for cfg with both contracts registered and the
// configured accounts funded.
func NewChain(cfg *config.Config, events *event.Manager) (*chain.Chain, error) {
	balance, err := units.ParseEther(cfg.Chain.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("initial balance: %w", err)
	}

	return chain.NewChain(chain.Options{
		Network:        cfg.Network,
		Accounts:       cfg.Chain.Accounts,
		InitialBalance: balance,
		Seed:           cfg.Chain.Seed,
		Contracts: []chain.Contract{
			basicnft.NewBasicNft(cfg.Chain.TokenUri),
			marketplace.NewNftMarketplace(),
		},
		Events: events,
	})
}

type Fixture struct {
	Chain *chain.Chain
	Env   Environment
	Store Store
}

// NewFixture deploys the scripts matching tags onto a fresh in-memory chain.
func NewFixture(ctx context.Context, cfg *config.Config, tags ...string) (*Fixture, error) {
	c, err := NewChain(cfg, nil)
	if err != nil {
		return nil, err
	}

	store := NewStore("")
	env := NewEnvironment(cfg, c, store, nil, nil)
	if _, err := NewRunner(env, DefaultScripts()...).Run(ctx, tags...); err != nil {
		return nil, err
	}

	return &Fixture{Chain: c, Env: env, Store: store}, nil
}
