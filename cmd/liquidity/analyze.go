package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/config"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/health"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/storage"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/storage/postgres"
)

// analyzeInput is the snapshot file layout: the caller fetches pool and
// position state, the engine only evaluates it.
type analyzeInput struct {
	Items []health.Item `json:"items"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
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

	inPath, _ := cmd.Flags().GetString("in")
	if inPath == "" {
		return fmt.Errorf("input file is required")
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var input analyzeInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	if len(input.Items) == 0 {
		return fmt.Errorf("no positions in %s", inPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, chainClient, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	analyzer, err := buildAnalyzer(cfg, engine, logger)
	if err != nil {
		return err
	}

	results := analyzer.AnalyzeAll(ctx, input.Items)

	records := make([]model.AnalysisRecord, 0, len(results))
	generatedAt := time.Now().UTC().Format(time.RFC3339)
	for i, result := range results {
		if result.Report == nil {
			continue
		}
		records = append(records, model.AnalysisRecord{
			PoolAddress: input.Items[i].Pool.Address,
			Position:    input.Items[i].Position,
			Report:      *result.Report,
			GeneratedAt: generatedAt,
		})
	}

	if err := sinkRecords(ctx, cfg, records, logger); err != nil {
		return err
	}

	logger.Info("analysis complete",
		zap.Int("positions", len(input.Items)),
		zap.Int("reports", len(records)),
	)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func sinkRecords(ctx context.Context, cfg config.Config, records []model.AnalysisRecord, logger *zap.Logger) error {
	if len(records) == 0 {
		return nil
	}

	var sinks []storage.Storage
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	for _, sink := range sinks {
		if err := sink.PutReportBatch(records); err != nil {
			return fmt.Errorf("write reports: %w", err)
		}
	}
	if len(sinks) > 0 {
		logger.Debug("reports persisted", zap.Int("records", len(records)), zap.Int("sinks", len(sinks)))
	}
	return nil
}
