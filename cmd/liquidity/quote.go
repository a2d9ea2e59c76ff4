package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/swap"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	amountInStr, _ := cmd.Flags().GetString("amount-in")
	reserveInStr, _ := cmd.Flags().GetString("reserve-in")
	reserveOutStr, _ := cmd.Flags().GetString("reserve-out")
	feeBps, _ := cmd.Flags().GetUint16("fee-bps")
	slippageBps, _ := cmd.Flags().GetUint16("slippage-bps")

	amountIn, err := model.ParseBigInt(amountInStr)
	if err != nil {
		return fmt.Errorf("amount-in: %w", err)
	}
	reserveIn, err := model.ParseBigInt(reserveInStr)
	if err != nil {
		return fmt.Errorf("reserve-in: %w", err)
	}
	reserveOut, err := model.ParseBigInt(reserveOutStr)
	if err != nil {
		return fmt.Errorf("reserve-out: %w", err)
	}

	quote, err := swap.ComputeQuote(amountIn, reserveIn, reserveOut, feeBps, slippageBps)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(quote)
}
