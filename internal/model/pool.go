package model

import (
	"fmt"
	"math/big"
)

// ReservePool is a constant-product pool snapshot. Reserves are smallest-unit
// integers encoded as decimal strings; the engine never mutates a snapshot.
type ReservePool struct {
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
	FeeBps   uint16 `json:"fee_bps"`
}

// ConcentratedPool is a concentrated-liquidity pool snapshot.
type ConcentratedPool struct {
	Address        string `json:"address"`
	Token0         string `json:"token0"`
	Token1         string `json:"token1"`
	Fee            uint32 `json:"fee"`
	TickSpacing    int32  `json:"tick_spacing"`
	SqrtPriceX96   string `json:"sqrt_price_x96"`
	Tick           int32  `json:"tick"`
	Token0Decimals uint8  `json:"token0_decimals"`
	Token1Decimals uint8  `json:"token1_decimals"`
	Liquidity      string `json:"liquidity"`
}

// SqrtPrice parses the packed sqrt price. An initialized pool always has a
// positive value.
func (p ConcentratedPool) SqrtPrice() (*big.Int, error) {
	value, err := ParseBigInt(p.SqrtPriceX96)
	if err != nil {
		return nil, fmt.Errorf("sqrt price: %w", err)
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("%w: sqrt price must be positive", ErrInvalidInput)
	}
	return value, nil
}

// LiquidityInt parses the pool liquidity.
func (p ConcentratedPool) LiquidityInt() (*big.Int, error) {
	value, err := ParseBigInt(p.Liquidity)
	if err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}
	return value, nil
}

// PoolRef reports whether a configured counter-asset pair has an initialized
// pool. Diagnostic output, not on the hot path.
type PoolRef struct {
	Token       string `json:"token"`
	Counter     string `json:"counter"`
	Fee         uint32 `json:"fee"`
	PoolAddress string `json:"pool_address,omitempty"`
	Initialized bool   `json:"initialized"`
}

// ParseBigInt parses a decimal string into a big.Int. Empty means zero.
func ParseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid int %q", ErrInvalidInput, value)
	}
	return parsed, nil
}
