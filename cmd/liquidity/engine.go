package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/chain"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/config"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/dex"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/health"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/pricing"
)

// buildEngine wires the chain client, token registry, cache, and discovery
// engine from configuration. The caller owns closing the returned client.
func buildEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pricing.Engine, *chain.Client, error) {
	if cfg.RPCURL == "" {
		return nil, nil, fmt.Errorf("rpc url is required")
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.CallTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	registry, err := dex.NewTokenRegistry(chainClient, cfg.Tokens, logger)
	if err != nil {
		chainClient.Close()
		return nil, nil, err
	}

	engineCfg := pricing.Config{FeeTiers: cfg.FeeTiers}

	if cfg.Factory != "" {
		if !common.IsHexAddress(cfg.Factory) {
			chainClient.Close()
			return nil, nil, fmt.Errorf("invalid factory address %q", cfg.Factory)
		}
		engineCfg.Factory = common.HexToAddress(cfg.Factory)
	}
	if cfg.Quoter != "" {
		if !common.IsHexAddress(cfg.Quoter) {
			chainClient.Close()
			return nil, nil, fmt.Errorf("invalid quoter address %q", cfg.Quoter)
		}
		engineCfg.Quoter = common.HexToAddress(cfg.Quoter)
	}

	primary, err := registry.AddressOf(cfg.PrimaryQuote)
	if err != nil {
		chainClient.Close()
		return nil, nil, fmt.Errorf("primary quote: %w", err)
	}
	engineCfg.PrimaryQuote = primary

	if cfg.SecondaryQuote != "" {
		if secondary, err := registry.AddressOf(cfg.SecondaryQuote); err == nil {
			engineCfg.SecondaryQuote = secondary
		} else {
			logger.Warn("secondary quote asset not configured", zap.String("symbol", cfg.SecondaryQuote))
		}
	}

	for _, symbol := range cfg.Intermediates {
		mid, err := registry.AddressOf(symbol)
		if err != nil {
			logger.Warn("intermediate asset not configured", zap.String("symbol", symbol))
			continue
		}
		engineCfg.Intermediates = append(engineCfg.Intermediates, mid)
	}

	cache := pricing.NewCache(cfg.CacheTTL, nil)
	engine := pricing.NewEngine(engineCfg, chainClient, registry, cache, logger)
	return engine, chainClient, nil
}

func buildAnalyzer(cfg config.Config, engine *pricing.Engine, logger *zap.Logger) (*health.Analyzer, error) {
	primary, err := engine.Registry().AddressOf(cfg.PrimaryQuote)
	if err != nil {
		return nil, fmt.Errorf("primary quote: %w", err)
	}

	analyzerCfg := health.DefaultConfig(primary)
	if cfg.RebalanceTickThreshold > 0 {
		analyzerCfg.RebalanceTickThreshold = cfg.RebalanceTickThreshold
	}
	if cfg.CollectMinFeeRatio > 0 {
		analyzerCfg.CollectMinFeeRatio = cfg.CollectMinFeeRatio
	}
	if cfg.ExitILCeilingPct > 0 {
		analyzerCfg.ExitILCeilingPct = cfg.ExitILCeilingPct
	}

	return health.NewAnalyzer(engine, analyzerCfg, logger), nil
}
