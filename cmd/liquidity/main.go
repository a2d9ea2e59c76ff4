package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "liquidity",
		Short:        "Liquidity pricing and position health engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute a constant-product swap quote",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "input amount in smallest units")
	quoteCmd.Flags().String("reserve-in", "", "input-side pool reserve")
	quoteCmd.Flags().String("reserve-out", "", "output-side pool reserve")
	quoteCmd.Flags().Uint16("fee-bps", 30, "pool fee in basis points")
	quoteCmd.Flags().Uint16("slippage-bps", 50, "slippage tolerance in basis points")

	root.AddCommand(quoteCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Discover a token price",
		RunE:  runPrice,
	}

	priceCmd.Flags().String("rpc", "", "chain RPC URL")
	priceCmd.Flags().String("token", "", "token symbol to price")
	priceCmd.Flags().String("quote", "", "quote token symbol (defaults to the primary quote asset)")
	priceCmd.Flags().String("factory", "", "V3 factory address")
	priceCmd.Flags().String("quoter", "", "QuoterV2 address")
	priceCmd.Flags().Duration("call-timeout", 0, "per-call chain query timeout")
	priceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(priceCmd)

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "List counter-asset pools for a token",
		RunE:  runPools,
	}

	poolsCmd.Flags().String("rpc", "", "chain RPC URL")
	poolsCmd.Flags().String("token", "", "token symbol")
	poolsCmd.Flags().String("factory", "", "V3 factory address")
	poolsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(poolsCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze position health from a snapshot file",
		RunE:  runAnalyze,
	}

	analyzeCmd.Flags().String("rpc", "", "chain RPC URL")
	analyzeCmd.Flags().String("in", "", "input positions JSON file")
	analyzeCmd.Flags().String("out", "", "optional JSONL report sink")
	analyzeCmd.Flags().String("pg-dsn", "", "optional Postgres report sink DSN")
	analyzeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(analyzeCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pricing and health API over HTTP",
		RunE:  runServe,
	}

	serveCmd.Flags().String("rpc", "", "chain RPC URL")
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("factory", "", "V3 factory address")
	serveCmd.Flags().String("quoter", "", "QuoterV2 address")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
