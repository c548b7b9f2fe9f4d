package deploy

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/contract/basicnft"
	"github.com/ZilDuck/nft-marketplace/internal/contract/marketplace"
	"go.uber.org/zap"
)

func BasicNftScript() Script {
	return Script{
		Name: "01-deploy-basicNft",
		Tags: []string{"all", "basicNft", "main"},
		Func: deployContract(basicnft.ContractName),
	}
}

func NftMarketplaceScript() Script {
	return Script{
		Name: "02-deploy-nftMarketplace",
		Tags: []string{"all", "nftMarketplace", "main"},
		Func: deployContract(marketplace.ContractName),
	}
}

func DefaultScripts() []Script {
	return []Script{BasicNftScript(), NftMarketplaceScript()}
}

func deployContract(name string) func(ctx context.Context, env Environment) error {
	return func(ctx context.Context, env Environment) error {
		deployer, err := env.NamedAccount("deployer")
		if err != nil {
			return err
		}

		env.Log("---------------------")
		env.Log("Deploying " + name + "...")

		d, err := env.Deploy(ctx, name, DeployOptions{From: deployer, Args: []interface{}{}, Log: true})
		if err != nil {
			return err
		}

		if !env.IsDevelopment() && env.ExplorerApiKey() != "" {
			if err := env.Verify(ctx, d); err != nil {
				zap.L().With(zap.String("contract", name), zap.String("address", d.Address.Hex()), zap.Error(err)).
					Warn("Deploy: Verification failed")
			} else {
				env.Log("verified")
			}
		}

		env.Log("DEPLOYED")
		env.Log("--------")

		return nil
	}
}
