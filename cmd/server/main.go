package main

import (
	"context"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/fleshka4/swap-widget/internal/config"
	"github.com/fleshka4/swap-widget/internal/infra/aggregator"
	"github.com/fleshka4/swap-widget/internal/infra/erc20"
	"github.com/fleshka4/swap-widget/internal/infra/evm"
	"github.com/fleshka4/swap-widget/internal/registry"
	"github.com/fleshka4/swap-widget/internal/service"
	"github.com/fleshka4/swap-widget/internal/swap"
	transport "github.com/fleshka4/swap-widget/internal/transport/http"
)

func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "cfg/config.yaml"
	}

	cfg := config.Load(path)
	logger := newLogger(cfg.Log)

	provider, err := evm.NewProvider(context.Background(), cfg.RPCURL, cfg.PrivateKey, cfg.RPCTimeout, logger)
	if err != nil {
		logger.Fatalf("evm.NewProvider: %v", err)
	}
	defer provider.Close()

	account := provider.Account()
	if !provider.CanSign() {
		logger.Warn("no private key configured, running read-only")
	}
	if account.ChainID != cfg.ChainID {
		logger.WithFields(logrus.Fields{
			"connected":  account.ChainID,
			"configured": cfg.ChainID,
		}).Warn("rpc endpoint is on an unsupported network")
	}

	tokens, err := erc20.NewClient(provider, provider, account.Address, cfg.RPCTimeout)
	if err != nil {
		logger.Fatalf("erc20.NewClient: %v", err)
	}

	reg, err := registry.New(cfg.NativeToken(), cfg.TokenList(), tokens, cfg.TokenCacheSize, logger)
	if err != nil {
		logger.Fatalf("registry.New: %v", err)
	}

	agg, err := aggregator.NewClient(aggregator.Config{
		BaseURL:           cfg.Aggregator.BaseURL,
		Chain:             cfg.Aggregator.Chain,
		ClientID:          cfg.Aggregator.ClientID,
		RequestsPerSecond: cfg.Aggregator.RequestsPerSecond,
		Timeout:           cfg.Aggregator.Timeout,
	}, nil, logger)
	if err != nil {
		logger.Fatalf("aggregator.NewClient: %v", err)
	}

	tokenIn := common.HexToAddress(cfg.DefaultTokenIn)
	engine := swap.NewQuoteEngine(agg, reg, account, swap.QuoteConfig{
		TokenIn:         tokenIn,
		TokenOut:        common.HexToAddress(cfg.DefaultTokenOut),
		SlippageBps:     cfg.DefaultSlippageBps,
		DeadlineMinutes: cfg.DefaultDeadlineMinutes,
		Logger:          logger,
	})
	allowance := swap.NewAllowance(tokens, provider,
		swap.AllowanceParams{Token: tokenIn, Owner: account.Address},
		swap.AllowanceConfig{
			PollInterval: cfg.ApprovalPollInterval,
			WatchTimeout: cfg.WatchTimeout,
			Logger:       logger,
		})
	tracker := swap.NewTracker(provider, swap.TrackerConfig{
		PollInterval: cfg.TxPollInterval,
		WatchTimeout: cfg.WatchTimeout,
		Logger:       logger,
	})

	session := service.NewSession(account, engine, allowance, tracker, reg, service.Options{
		ChainID:     cfg.ChainID,
		Sources:     cfg.Sources,
		ExplorerURL: cfg.ExplorerURL,
		Logger:      logger,
	})
	defer session.Close()

	srv := transport.NewServer(session, cfg, logger)
	if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Errorf("srv.ListenAndServe: %v", err)
	}
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
