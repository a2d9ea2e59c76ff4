// Package swap implements the constant-product swap engine: output amount,
// price impact, and slippage-bounded minimum received over a pool snapshot.
// All math is integer or rational, so identical inputs always produce
// bit-identical outputs.
package swap

import (
	"fmt"
	"math/big"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

const bpsDenominator = 10_000

const executionPriceScale = 18

// ComputeQuote prices a swap of amountIn against a constant-product pool with
// the given reserves. The fee is taken from the input; minimumReceived rounds
// down, never in the user's favor. Reserves can reach 1e30 in smallest units,
// so every intermediate product stays in big.Int.
func ComputeQuote(amountIn, reserveIn, reserveOut *big.Int, feeBps, slippageBps uint16) (model.Quote, error) {
	if err := validateQuoteInput(amountIn, reserveIn, reserveOut, feeBps, slippageBps); err != nil {
		return model.Quote{}, err
	}

	// amountOut = amountIn * (10000 - fee) * reserveOut
	//           / (reserveIn * 10000 + amountIn * (10000 - fee))
	// Single division keeps rounding drift out of the intermediate steps.
	inAfterFee := new(big.Int).Mul(amountIn, big.NewInt(bpsDenominator-int64(feeBps)))
	numerator := new(big.Int).Mul(inAfterFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(bpsDenominator))
	denominator.Add(denominator, inAfterFee)
	amountOut := new(big.Int).Quo(numerator, denominator)

	impactBps := priceImpactBps(amountIn, amountOut, reserveIn, reserveOut)

	minReceived := new(big.Int).Mul(amountOut, big.NewInt(bpsDenominator-int64(slippageBps)))
	minReceived.Quo(minReceived, big.NewInt(bpsDenominator))

	execPrice := new(big.Rat).SetFrac(amountOut, amountIn)

	return model.Quote{
		AmountIn:        amountIn.String(),
		AmountOut:       amountOut.String(),
		ExecutionPrice:  execPrice.FloatString(executionPriceScale),
		PriceImpactBps:  impactBps,
		MinimumReceived: minReceived.String(),
		FeeBps:          feeBps,
		SlippageBps:     slippageBps,
	}, nil
}

func validateQuoteInput(amountIn, reserveIn, reserveOut *big.Int, feeBps, slippageBps uint16) error {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return fmt.Errorf("%w: amount in must be positive", model.ErrInvalidInput)
	}
	if reserveIn == nil || reserveIn.Sign() <= 0 {
		return fmt.Errorf("%w: reserve in must be positive", model.ErrInvalidInput)
	}
	if reserveOut == nil || reserveOut.Sign() <= 0 {
		return fmt.Errorf("%w: reserve out must be positive", model.ErrInvalidInput)
	}
	if feeBps >= bpsDenominator {
		return fmt.Errorf("%w: fee %d bps", model.ErrInvalidInput, feeBps)
	}
	if slippageBps > bpsDenominator {
		return fmt.Errorf("%w: slippage %d bps", model.ErrInvalidInput, slippageBps)
	}
	return nil
}

// priceImpactBps compares the pre-trade marginal price reserveOut/reserveIn
// against the post-trade marginal price (reserveOut-out)/(reserveIn+in) and
// returns the relative difference in basis points, never negative.
func priceImpactBps(amountIn, amountOut, reserveIn, reserveOut *big.Int) uint32 {
	pre := new(big.Rat).SetFrac(reserveOut, reserveIn)
	post := new(big.Rat).SetFrac(
		new(big.Int).Sub(reserveOut, amountOut),
		new(big.Int).Add(reserveIn, amountIn),
	)

	diff := new(big.Rat).Sub(pre, post)
	if diff.Sign() < 0 {
		return 0
	}
	diff.Quo(diff, pre)
	diff.Mul(diff, new(big.Rat).SetInt64(bpsDenominator))

	bps := new(big.Int).Quo(diff.Num(), diff.Denom())
	if !bps.IsUint64() || bps.Uint64() > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(bps.Uint64())
}

// QuotePool is ComputeQuote over a ReservePool snapshot, swapping token0 in
// when zeroForOne is set.
func QuotePool(pool model.ReservePool, amountIn *big.Int, zeroForOne bool, slippageBps uint16) (model.Quote, error) {
	reserve0, err := model.ParseBigInt(pool.Reserve0)
	if err != nil {
		return model.Quote{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := model.ParseBigInt(pool.Reserve1)
	if err != nil {
		return model.Quote{}, fmt.Errorf("reserve1: %w", err)
	}
	if zeroForOne {
		return ComputeQuote(amountIn, reserve0, reserve1, pool.FeeBps, slippageBps)
	}
	return ComputeQuote(amountIn, reserve1, reserve0, pool.FeeBps, slippageBps)
}
