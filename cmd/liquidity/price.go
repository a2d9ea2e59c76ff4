package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/config"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		return fmt.Errorf("token is required")
	}
	quoteToken, _ := cmd.Flags().GetString("quote")
	if quoteToken == "" {
		quoteToken = cfg.PrimaryQuote
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, chainClient, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	price, err := engine.PriceOfSymbols(ctx, token, quoteToken)
	if err != nil {
		return err
	}

	logger.Info("price discovered",
		zap.String("token", token),
		zap.String("quote", quoteToken),
		zap.String("source", price.Source),
	)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(price)
}

func runPools(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		return fmt.Errorf("token is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, chainClient, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	tokenAddr, err := engine.Registry().AddressOf(token)
	if err != nil {
		return err
	}

	refs, err := engine.PoolsFor(ctx, tokenAddr)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(refs)
}
