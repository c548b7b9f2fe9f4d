package main

import (
	"context"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/config/di"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
)

func main() {
	config.Init()
	cfg := config.Get()

	app := &cli.App{
		Name:  "deploy",
		Usage: "run the deploy scripts matching the given tags",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "tags", Value: cli.NewStringSlice(cfg.DeployTags...), Usage: "script tags to run"},
			&cli.StringFlag{Name: "network", Value: cfg.Network, Usage: "network to deploy to"},
			&cli.StringFlag{Name: "out", Value: cfg.DeploymentsDir, Usage: "directory for deployment records"},
		},
		Action: func(c *cli.Context) error {
			cfg.Network = c.String("network")
			cfg.DeploymentsDir = c.String("out")
			return deploy(c.Context, cfg, c.StringSlice("tags"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Deploy failed")
	}
}

func deploy(ctx context.Context, cfg *config.Config, tags []string) error {
	container, err := di.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Delete()

	if _, err := container.SafeGetChain(); err != nil {
		return err
	}

	scripts, err := container.GetRunner().Run(ctx, tags...)
	if err != nil {
		return err
	}
	zap.L().With(zap.Strings("scripts", scripts), zap.String("network", cfg.Network)).Info("Deploy: Complete")

	deployments, err := container.GetStore().All(cfg.Network)
	if err != nil {
		return err
	}
	for _, d := range deployments {
		fmt.Printf("%s\t%s\t%s\n", d.Name, d.Address.Hex(), d.TxHash.Hex())
	}

	return nil
}
