package main

import (
	"context"
	"errors"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/config/di"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	config.Init()
	cfg := config.Get()

	container, err := di.NewContainer(cfg)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	defer container.Delete()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ElasticSearch.Enabled {
		elastic, err := container.SafeGetElastic()
		if err != nil {
			zap.L().With(zap.Error(err)).Fatal("Failed to start ES")
		}
		if err := elastic.InstallMappings(ctx); err != nil {
			zap.L().With(zap.Error(err)).Fatal("Failed to install mappings")
		}
	}

	idx, err := container.SafeGetIndexer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start indexer")
	}
	idx.Subscribe(ctx, container.GetEvents())
	container.GetEvents().AddEventListener(event.ContractDeployedEvent, contractDeployed)

	if cfg.IsDevelopment() {
		if _, err := container.GetRunner().Run(ctx, cfg.DeployTags...); err != nil {
			zap.L().With(zap.Error(err)).Fatal("Failed to deploy fixture")
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Rpc.Port,
		Handler:           container.GetRpcServer().Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().With(zap.Error(err)).Warn("Node: Shutdown failed")
		}
	}()

	zap.L().With(
		zap.String("port", cfg.Rpc.Port),
		zap.String("network", cfg.Network),
		zap.Strings("accounts", accounts(container)),
	).Info("Node Started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().With(zap.Error(err)).Fatal("Failed to start node")
	}
}

func accounts(container *di.Container) []string {
	addrs := make([]string, 0)
	for _, addr := range container.GetChain().Accounts() {
		addrs = append(addrs, addr.Hex())
	}
	return addrs
}

func contractDeployed(msg interface{}) {
	if receipt, ok := msg.(entity.Receipt); ok {
		zap.L().With(
			zap.String("address", receipt.ContractAddress.Hex()),
			zap.String("txHash", receipt.TxHash.Hex()),
			zap.Uint64("block", receipt.BlockNumber),
		).Info("Node: Contract deployed")
	}
}
