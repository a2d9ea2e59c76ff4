// Package pricing discovers spot prices from concentrated-liquidity pools. It
// decodes the packed sqrt price representation, walks an ordered chain of
// discovery strategies, and memoizes results behind a TTL cache.
package pricing

import (
	"fmt"
	"math/big"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

// sqrtPricePrec is the big.Float mantissa width used for the decode.
// sqrtPriceX96 spans up to 160 bits, so the squared intermediate needs well
// over double precision; float64 only appears at the final display step.
const sqrtPricePrec = 256

// DecodeSqrtPriceX96 converts a packed sqrt price into the price of token0
// denominated in token1, adjusted for token decimals:
//
//	price = (sqrtPriceX96 / 2^96)^2 * 10^(decimals0 - decimals1)
func DecodeSqrtPriceX96(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) (*big.Float, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return nil, fmt.Errorf("%w: sqrt price must be positive", model.ErrInvalidInput)
	}

	ratio := new(big.Float).SetPrec(sqrtPricePrec).SetInt(sqrtPriceX96)
	ratio.Quo(ratio, new(big.Float).SetPrec(sqrtPricePrec).SetInt(Q96))
	price := new(big.Float).SetPrec(sqrtPricePrec).Mul(ratio, ratio)

	applyDecimalShift(price, int(decimals0)-int(decimals1))
	return price, nil
}

// EncodeSqrtPriceX96 is the inverse of DecodeSqrtPriceX96:
//
//	sqrtPriceX96 = sqrt(price * 10^(decimals1 - decimals0)) * 2^96
func EncodeSqrtPriceX96(price *big.Float, decimals0, decimals1 uint8) (*big.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", model.ErrInvalidInput)
	}

	scaled := new(big.Float).SetPrec(sqrtPricePrec).Set(price)
	applyDecimalShift(scaled, int(decimals1)-int(decimals0))

	scaled.Sqrt(scaled)
	scaled.Mul(scaled, new(big.Float).SetPrec(sqrtPricePrec).SetInt(Q96))

	encoded, _ := scaled.Int(nil)
	if encoded.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price underflows sqrt encoding", model.ErrInvalidInput)
	}
	return encoded, nil
}

// InvertPrice returns 1/price, used when the queried token is the pool's
// token1.
func InvertPrice(price *big.Float) (*big.Float, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: cannot invert non-positive price", model.ErrInvalidInput)
	}
	one := new(big.Float).SetPrec(sqrtPricePrec).SetInt64(1)
	return one.Quo(one, price), nil
}

func applyDecimalShift(value *big.Float, shift int) {
	if shift == 0 {
		return
	}
	abs := shift
	if abs < 0 {
		abs = -abs
	}
	scale := new(big.Float).SetPrec(sqrtPricePrec).SetInt(
		new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs)), nil),
	)
	if shift > 0 {
		value.Mul(value, scale)
	} else {
		value.Quo(value, scale)
	}
}
