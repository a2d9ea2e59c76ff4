package pricing

import (
	"fmt"
	"math/big"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

// Tick bounds of the concentrated-liquidity tick space.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// Q96 is 2^96, the fixed-point scale of sqrtPriceX96.
var Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// sqrtRatioMultipliers are the Q128 constants for sqrt(1.0001)^(2^i), the
// same bit-decomposition the on-chain tick math uses so results match the
// pool contract exactly.
var sqrtRatioMultipliers = []string{
	"fffcb933bd6fad37aa2d162d1a594001",
	"fff97272373d413259a46990580e213a",
	"fff2e50f5f656932ef12357cf3c7fdcc",
	"ffe5caca7e10e4e61c3624eaa0941cd0",
	"ffcb9843d60f6159c9db58835c926644",
	"ff973b41fa98c081472e6896dfb254c0",
	"ff2ea16466c96a3843ec78b326b52861",
	"fe5dee046a99a2a811c461f1969c3053",
	"fcbe86c7900a88aedcffc83b479aa3a4",
	"f987a7253ac413176f2b074cf7815e54",
	"f3392b0822b70005940c7a398e4b70f3",
	"e7159475a2c29b7443b29c7fa6e889d9",
	"d097f3bdfd2022b8845ad8f792aa5825",
	"a9f746462d870fdf8a65dc1f90e061e5",
	"70d869a156d2a1b890bb3df62baf32f7",
	"31be135f97d08fd981231505542fcfa6",
	"9aa508b5b7a84e1c677de54f3e99bc9",
	"5d6af8dedb81196699c329225ee604",
	"2216e584f5fa1ea926041bedfe98",
	"48a170391f7dc42444e8fa2",
}

// TickToSqrtPriceX96 converts a tick to sqrt(1.0001^tick) in Q96.
func TickToSqrtPriceX96(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: tick %d out of range", model.ErrInvalidInput, tick)
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(big.Int).Lsh(big.NewInt(1), 128)
	for i := 0; i < len(sqrtRatioMultipliers); i++ {
		if absTick&(1<<uint(i)) != 0 {
			mul, _ := new(big.Int).SetString(sqrtRatioMultipliers[i], 16)
			ratio.Mul(ratio, mul)
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
		ratio = max.Div(max, ratio)
	}

	// Round up, then drop from Q128 to Q96.
	ratio.Add(ratio, new(big.Int).SetUint64(0xFFFFFFFF))
	ratio.Rsh(ratio, 32)

	return ratio, nil
}

// AmountsForLiquidity returns the token0/token1 amounts backing a position
// with the given liquidity between tickLower and tickUpper at the current
// sqrt price. All-token0 below the range, all-token1 above it.
func AmountsForLiquidity(sqrtPriceX96 *big.Int, tickLower, tickUpper int32, liquidity *big.Int) (*big.Int, *big.Int, error) {
	if liquidity == nil || liquidity.Sign() < 0 {
		return nil, nil, fmt.Errorf("%w: liquidity must be non-negative", model.ErrInvalidInput)
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: sqrt price must be positive", model.ErrInvalidInput)
	}
	if tickLower >= tickUpper {
		return nil, nil, fmt.Errorf("%w: tick range [%d, %d)", model.ErrInvalidInput, tickLower, tickUpper)
	}

	sqrtLower, err := TickToSqrtPriceX96(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtUpper, err := TickToSqrtPriceX96(tickUpper)
	if err != nil {
		return nil, nil, err
	}

	sqrtCurrent := new(big.Int).Set(sqrtPriceX96)
	if sqrtCurrent.Cmp(sqrtLower) < 0 {
		sqrtCurrent.Set(sqrtLower)
	}
	if sqrtCurrent.Cmp(sqrtUpper) > 0 {
		sqrtCurrent.Set(sqrtUpper)
	}

	// amount0 = L * (sqrtUpper - sqrtCurrent) * Q96 / (sqrtCurrent * sqrtUpper)
	amount0 := new(big.Int).Sub(sqrtUpper, sqrtCurrent)
	amount0.Mul(amount0, liquidity)
	amount0.Mul(amount0, Q96)
	amount0.Quo(amount0, new(big.Int).Mul(sqrtCurrent, sqrtUpper))

	// amount1 = L * (sqrtCurrent - sqrtLower) / Q96
	amount1 := new(big.Int).Sub(sqrtCurrent, sqrtLower)
	amount1.Mul(amount1, liquidity)
	amount1.Quo(amount1, Q96)

	return amount0, amount1, nil
}
