package model

import (
	"fmt"
	"math/big"
)

// Position is a concentrated-liquidity position as read from chain. Big
// integers are carried as decimal strings, matching the JSON snapshots the
// callers pass in. The engine only reads positions, never mutates them.
type Position struct {
	TickLower                int32  `json:"tick_lower"`
	TickUpper                int32  `json:"tick_upper"`
	Liquidity                string `json:"liquidity"`
	TokensOwed0              string `json:"tokens_owed0"`
	TokensOwed1              string `json:"tokens_owed1"`
	FeeGrowthInside0LastX128 string `json:"fee_growth_inside0_last_x128"`
	FeeGrowthInside1LastX128 string `json:"fee_growth_inside1_last_x128"`

	// EntryTick is the pool tick at deposit time when the caller knows it.
	// When nil, impermanent loss falls back to the range midpoint as the
	// entry estimate.
	EntryTick *int32 `json:"entry_tick,omitempty"`
}

// Validate checks tick ordering and integer fields.
func (p Position) Validate() error {
	if p.TickLower >= p.TickUpper {
		return fmt.Errorf("%w: tick_lower %d must be below tick_upper %d", ErrInvalidInput, p.TickLower, p.TickUpper)
	}
	for _, field := range []string{p.Liquidity, p.TokensOwed0, p.TokensOwed1} {
		if _, err := ParseBigInt(field); err != nil {
			return err
		}
	}
	return nil
}

// LiquidityInt parses the position liquidity.
func (p Position) LiquidityInt() (*big.Int, error) {
	return ParseBigInt(p.Liquidity)
}

// Owed parses the uncollected token amounts.
func (p Position) Owed() (*big.Int, *big.Int, error) {
	owed0, err := ParseBigInt(p.TokensOwed0)
	if err != nil {
		return nil, nil, fmt.Errorf("tokens_owed0: %w", err)
	}
	owed1, err := ParseBigInt(p.TokensOwed1)
	if err != nil {
		return nil, nil, fmt.Errorf("tokens_owed1: %w", err)
	}
	return owed0, owed1, nil
}
