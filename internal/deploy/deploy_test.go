package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/contract/basicnft"
	"github.com/ZilDuck/nft-marketplace/internal/contract/marketplace"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeVerifier struct {
	calls []string
	err   error
}

func (v *fakeVerifier) Verify(_ context.Context, address common.Address, name string, _ []string) error {
	v.calls = append(v.calls, name+"@"+address.Hex())
	return v.err
}

func testConfig(network, apiKey string) *config.Config {
	return &config.Config{
		Network:           network,
		DevelopmentChains: []string{"hardhat", "localhost"},
		NamedAccounts:     map[string]int{"deployer": 0, "player": 1},
		Chain: config.ChainConfig{
			Accounts:       2,
			InitialBalance: "100",
			Seed:           "deploy",
			TokenUri:       config.DefaultTokenUri,
		},
		Etherscan: config.EtherscanConfig{ApiKey: apiKey},
	}
}

func newEnv(t *testing.T, cfg *config.Config, verifier *fakeVerifier, store Store) (Environment, *observer.ObservedLogs) {
	c, err := NewChain(cfg, nil)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	if store == nil {
		store = NewStore("")
	}
	if verifier == nil {
		return NewEnvironment(cfg, c, store, nil, zap.New(core)), logs
	}
	return NewEnvironment(cfg, c, store, verifier, zap.New(core)), logs
}

func messages(logs *observer.ObservedLogs) []string {
	out := make([]string, 0)
	for _, entry := range logs.All() {
		out = append(out, entry.Message)
	}
	return out
}

func TestNewFixture(t *testing.T) {
	f, err := NewFixture(context.Background(), testConfig("hardhat", ""), "all")
	require.NoError(t, err)

	deployments, err := f.Store.All("hardhat")
	require.NoError(t, err)
	require.Len(t, deployments, 2)
	require.Equal(t, basicnft.ContractName, deployments[0].Name)
	require.Equal(t, marketplace.ContractName, deployments[1].Name)

	deployer, err := f.Env.NamedAccount("deployer")
	require.NoError(t, err)
	for _, d := range deployments {
		require.Equal(t, deployer, d.Deployer)
		code, ok := f.Chain.CodeAt(d.Address)
		require.True(t, ok)
		require.Equal(t, d.Name, code)
		require.False(t, d.Verified)
	}
}

func TestRunner_Tags(t *testing.T) {
	for _, tc := range []struct {
		tags     []string
		executed []string
	}{
		{tags: []string{"all"}, executed: []string{"01-deploy-basicNft", "02-deploy-nftMarketplace"}},
		{tags: []string{"main"}, executed: []string{"01-deploy-basicNft", "02-deploy-nftMarketplace"}},
		{tags: []string{"basicNft"}, executed: []string{"01-deploy-basicNft"}},
		{tags: []string{"nftMarketplace"}, executed: []string{"02-deploy-nftMarketplace"}},
		{tags: nil, executed: []string{"01-deploy-basicNft", "02-deploy-nftMarketplace"}},
		{tags: []string{"unknown"}, executed: nil},
	} {
		env, _ := newEnv(t, testConfig("hardhat", ""), nil, nil)
		executed, err := NewRunner(env, DefaultScripts()...).Run(context.Background(), tc.tags...)
		require.NoError(t, err)
		require.Equal(t, tc.executed, executed, "tags %v", tc.tags)
	}
}

func TestRunner_Dependencies(t *testing.T) {
	env, _ := newEnv(t, testConfig("hardhat", ""), nil, nil)
	var order []string
	script := func(name string, tags []string, deps ...string) Script {
		return Script{Name: name, Tags: tags, Dependencies: deps, Func: func(context.Context, Environment) error {
			order = append(order, name)
			return nil
		}}
	}

	r := NewRunner(env)
	r.Register(
		script("market", []string{"market"}, "token"),
		script("token", []string{"token"}),
		script("extra", []string{"extra"}, "market"),
	)

	executed, err := r.Run(context.Background(), "extra", "market")
	require.NoError(t, err)
	require.Equal(t, []string{"token", "market", "extra"}, executed)
	require.Equal(t, executed, order)

	t.Run("cycle", func(t *testing.T) {
		r := NewRunner(env, script("a", []string{"a"}, "b"), script("b", []string{"b"}, "a"))
		_, err := r.Run(context.Background(), "a")
		require.ErrorIs(t, err, ErrDependencyCycle)
	})
	t.Run("failure stops the run", func(t *testing.T) {
		boom := errors.New("boom")
		r := NewRunner(env,
			Script{Name: "fails", Tags: []string{"x"}, Func: func(context.Context, Environment) error { return boom }},
			script("after", []string{"x"}),
		)
		executed, err := r.Run(context.Background(), "x")
		require.ErrorIs(t, err, boom)
		require.Empty(t, executed)
	})
}

func TestScripts_Logging(t *testing.T) {
	env, logs := newEnv(t, testConfig("hardhat", ""), nil, nil)
	_, err := NewRunner(env, BasicNftScript()).Run(context.Background(), "basicNft")
	require.NoError(t, err)

	d, err := env.Get(basicnft.ContractName)
	require.NoError(t, err)

	require.Equal(t, []string{
		"---------------------",
		"Deploying BasicNft...",
		"deploying \"BasicNft\" (tx: " + d.TxHash.Hex() + ")...: deployed at " + d.Address.Hex(),
		"DEPLOYED",
		"--------",
	}, messages(logs))
}

func TestScripts_Verification(t *testing.T) {
	t.Run("skipped on development network", func(t *testing.T) {
		verifier := &fakeVerifier{}
		env, _ := newEnv(t, testConfig("hardhat", "key"), verifier, nil)
		_, err := NewRunner(env, DefaultScripts()...).Run(context.Background(), "all")
		require.NoError(t, err)
		require.Empty(t, verifier.calls)
	})
	t.Run("skipped without api key", func(t *testing.T) {
		verifier := &fakeVerifier{}
		env, _ := newEnv(t, testConfig("goerli", ""), verifier, nil)
		_, err := NewRunner(env, DefaultScripts()...).Run(context.Background(), "all")
		require.NoError(t, err)
		require.Empty(t, verifier.calls)
	})
	t.Run("verifies on live network", func(t *testing.T) {
		verifier := &fakeVerifier{}
		env, logs := newEnv(t, testConfig("goerli", "key"), verifier, nil)
		_, err := NewRunner(env, DefaultScripts()...).Run(context.Background(), "all")
		require.NoError(t, err)
		require.Len(t, verifier.calls, 2)
		require.Contains(t, messages(logs), "verified")

		d, err := env.Get(marketplace.ContractName)
		require.NoError(t, err)
		require.True(t, d.Verified)
	})
	t.Run("verifier failure does not fail deployment", func(t *testing.T) {
		verifier := &fakeVerifier{err: errors.New("explorer down")}
		env, logs := newEnv(t, testConfig("goerli", "key"), verifier, nil)
		executed, err := NewRunner(env, DefaultScripts()...).Run(context.Background(), "all")
		require.NoError(t, err)
		require.Len(t, executed, 2)
		require.Contains(t, messages(logs), "DEPLOYED")

		d, err := env.Get(basicnft.ContractName)
		require.NoError(t, err)
		require.False(t, d.Verified)
	})
	t.Run("no verifier configured", func(t *testing.T) {
		env, _ := newEnv(t, testConfig("goerli", "key"), nil, nil)
		_, err := NewRunner(env, DefaultScripts()...).Run(context.Background(), "all")
		require.NoError(t, err)
	})
}

func TestEnvironment_NamedAccounts(t *testing.T) {
	cfg := testConfig("hardhat", "")
	cfg.NamedAccounts["ghost"] = 9
	env, _ := newEnv(t, cfg, nil, nil)

	_, err := env.NamedAccount("ghost")
	require.ErrorIs(t, err, ErrUnknownAccount)
	_, err = env.NamedAccount("nobody")
	require.ErrorIs(t, err, ErrUnknownAccount)
	_, err = env.NamedAccounts()
	require.ErrorIs(t, err, ErrUnknownAccount)

	delete(cfg.NamedAccounts, "ghost")
	accounts, err := env.NamedAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.NotEqual(t, accounts["deployer"], accounts["player"])
}

func TestStore_Files(t *testing.T) {
	dir := t.TempDir()
	env, _ := newEnv(t, testConfig("hardhat", ""), nil, NewStore(dir))
	_, err := NewRunner(env, DefaultScripts()...).Run(context.Background(), "all")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "hardhat", "BasicNft.json"))
	require.NoError(t, err)

	reopened := NewStore(dir)
	d, err := reopened.Get("hardhat", marketplace.ContractName)
	require.NoError(t, err)
	expected, err := env.Get(marketplace.ContractName)
	require.NoError(t, err)
	require.Equal(t, expected, d)

	all, err := reopened.All("hardhat")
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = reopened.Get("goerli", marketplace.ContractName)
	require.ErrorIs(t, err, ErrDeploymentNotFound)
}

func TestStore_Memory(t *testing.T) {
	s := NewStore("")
	require.NoError(t, s.Save(entity.Deployment{Name: "B", Network: "hardhat"}))
	require.NoError(t, s.Save(entity.Deployment{Name: "A", Network: "hardhat"}))
	require.NoError(t, s.Save(entity.Deployment{Name: "C", Network: "goerli"}))

	all, err := s.All("hardhat")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "A", all[0].Name)

	_, err = s.Get("hardhat", "C")
	require.ErrorIs(t, err, ErrDeploymentNotFound)
}
