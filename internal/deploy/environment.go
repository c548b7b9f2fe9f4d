package deploy

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/chain"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/verify"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	ErrUnknownAccount = errors.New("unknown named account")
	ErrNoVerifier     = errors.New("no verification service configured")
)

type DeployOptions struct {
	From common.Address
	Args []interface{}
	Log  bool
}

// Environment is what a deploy script sees of the network it deploys to.
type Environment interface {
	Network() string
	IsDevelopment() bool
	NamedAccounts() (map[string]common.Address, error)
	NamedAccount(name string) (common.Address, error)
	ExplorerApiKey() string
	Deploy(ctx context.Context, name string, opts DeployOptions) (*entity.Deployment, error)
	Get(name string) (*entity.Deployment, error)
	Verify(ctx context.Context, d *entity.Deployment) error
	Log(msg string)
}

type environment struct {
	cfg      *config.Config
	chain    *chain.Chain
	store    Store
	verifier verify.Service
	logger   *zap.Logger
}

// NewEnvironment binds scripts to c. verifier may be nil; logger defaults to
// the global logger.
func NewEnvironment(cfg *config.Config, c *chain.Chain, store Store, verifier verify.Service, logger *zap.Logger) Environment {
	if logger == nil {
		logger = zap.L()
	}

	return &environment{cfg: cfg, chain: c, store: store, verifier: verifier, logger: logger}
}

func (e *environment) Network() string {
	return e.cfg.Network
}

func (e *environment) IsDevelopment() bool {
	return e.cfg.IsDevelopment()
}

func (e *environment) NamedAccounts() (map[string]common.Address, error) {
	accounts := make(map[string]common.Address, len(e.cfg.NamedAccounts))
	for name := range e.cfg.NamedAccounts {
		addr, err := e.NamedAccount(name)
		if err != nil {
			return nil, err
		}
		accounts[name] = addr
	}

	return accounts, nil
}

func (e *environment) NamedAccount(name string) (common.Address, error) {
	idx, ok := e.cfg.NamedAccounts[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrUnknownAccount, name)
	}

	accounts := e.chain.Accounts()
	if idx >= len(accounts) {
		return common.Address{}, fmt.Errorf("%w: %s is account %d of %d", ErrUnknownAccount, name, idx, len(accounts))
	}

	return accounts[idx], nil
}

func (e *environment) ExplorerApiKey() string {
	return e.cfg.Etherscan.ApiKey
}

func (e *environment) Deploy(ctx context.Context, name string, opts DeployOptions) (*entity.Deployment, error) {
	from := opts.From
	if from == (common.Address{}) {
		deployer, err := e.NamedAccount("deployer")
		if err != nil {
			return nil, err
		}
		from = deployer
	}

	receipt, err := e.chain.Deploy(ctx, from, name, opts.Args...)
	if err != nil {
		e.logger.With(zap.String("contract", name), zap.Error(err)).Error("Deploy: Failed to deploy contract")
		return nil, fmt.Errorf("deploy %s: %w", name, err)
	}

	d := entity.Deployment{
		Name:        name,
		Network:     e.Network(),
		Address:     receipt.ContractAddress,
		Deployer:    from,
		Args:        stringArgs(opts.Args),
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
	}
	if err := e.store.Save(d); err != nil {
		return nil, err
	}

	if opts.Log {
		e.Log(fmt.Sprintf("deploying %q (tx: %s)...: deployed at %s", name, d.TxHash.Hex(), d.Address.Hex()))
	}

	return &d, nil
}

func (e *environment) Get(name string) (*entity.Deployment, error) {
	return e.store.Get(e.Network(), name)
}

// Verify publishes d on the block explorer and records the result.
func (e *environment) Verify(ctx context.Context, d *entity.Deployment) error {
	if e.verifier == nil {
		return ErrNoVerifier
	}
	if err := e.verifier.Verify(ctx, d.Address, d.Name, d.Args); err != nil {
		return err
	}

	d.Verified = true
	return e.store.Save(*d)
}

func (e *environment) Log(msg string) {
	e.logger.Info(msg)
}

func stringArgs(args []interface{}) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case common.Address:
			out = append(out, v.Hex())
		case fmt.Stringer:
			out = append(out, v.String())
		default:
			out = append(out, fmt.Sprintf("%v", v))
		}
	}

	return out
}
