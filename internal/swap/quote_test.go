package swap

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

func TestComputeQuoteBasicScenario(t *testing.T) {
	quote, err := ComputeQuote(big.NewInt(1000), big.NewInt(1_000_000), big.NewInt(2_000_000), 30, 50)
	require.NoError(t, err)

	// amountOut = 1000*9970*2000000 / (1000000*10000 + 1000*9970)
	require.Equal(t, "1992", quote.AmountOut)
	require.Equal(t, "1982", quote.MinimumReceived)
	require.Equal(t, uint32(19), quote.PriceImpactBps)
	require.Equal(t, uint16(30), quote.FeeBps)
}

func TestComputeQuoteInvalidInput(t *testing.T) {
	cases := []struct {
		name       string
		amountIn   *big.Int
		reserveIn  *big.Int
		reserveOut *big.Int
		feeBps     uint16
		slippage   uint16
	}{
		{"zero amount", big.NewInt(0), big.NewInt(100), big.NewInt(100), 30, 0},
		{"negative amount", big.NewInt(-5), big.NewInt(100), big.NewInt(100), 30, 0},
		{"zero reserve in", big.NewInt(10), big.NewInt(0), big.NewInt(100), 30, 0},
		{"zero reserve out", big.NewInt(10), big.NewInt(100), big.NewInt(0), 30, 0},
		{"nil amount", nil, big.NewInt(100), big.NewInt(100), 30, 0},
		{"fee too high", big.NewInt(10), big.NewInt(100), big.NewInt(100), 10_000, 0},
		{"slippage too high", big.NewInt(10), big.NewInt(100), big.NewInt(100), 30, 10_001},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeQuote(tc.amountIn, tc.reserveIn, tc.reserveOut, tc.feeBps, tc.slippage)
			require.True(t, errors.Is(err, model.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestComputeQuoteOutputInvariants(t *testing.T) {
	reserveIn := new(big.Int)
	reserveIn.SetString("1000000000000000000000000000000", 10) // 1e30
	reserveOut := new(big.Int)
	reserveOut.SetString("500000000000000000000000", 10)

	amounts := []*big.Int{
		big.NewInt(1),
		big.NewInt(1_000_000),
		new(big.Int).Set(reserveIn),
		new(big.Int).Mul(reserveIn, big.NewInt(1000)),
	}

	for _, amountIn := range amounts {
		quote, err := ComputeQuote(amountIn, reserveIn, reserveOut, 30, 100)
		require.NoError(t, err)

		amountOut, err := model.ParseBigInt(quote.AmountOut)
		require.NoError(t, err)

		// The pool can never be drained by a finite input.
		require.True(t, amountOut.Cmp(reserveOut) < 0, "amountOut %s >= reserveOut", amountOut)
		require.True(t, amountOut.Sign() >= 0)
	}
}

func TestComputeQuoteImpactMonotonic(t *testing.T) {
	reserveIn := big.NewInt(10_000_000)
	reserveOut := big.NewInt(30_000_000)

	prev := uint32(0)
	for _, amountIn := range []int64{100, 1_000, 10_000, 100_000, 1_000_000, 5_000_000} {
		quote, err := ComputeQuote(big.NewInt(amountIn), reserveIn, reserveOut, 30, 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, quote.PriceImpactBps, prev, "impact decreased at amountIn=%d", amountIn)
		prev = quote.PriceImpactBps
	}
}

func TestComputeQuoteFeeConsistency(t *testing.T) {
	reserveIn := big.NewInt(1_000_000)
	reserveOut := big.NewInt(2_000_000)

	for _, amountIn := range []int64{1, 777, 12_345, 500_000} {
		noFee, err := ComputeQuote(big.NewInt(amountIn), reserveIn, reserveOut, 0, 0)
		require.NoError(t, err)
		withFee, err := ComputeQuote(big.NewInt(amountIn), reserveIn, reserveOut, 30, 0)
		require.NoError(t, err)

		outNoFee, _ := model.ParseBigInt(noFee.AmountOut)
		outWithFee, _ := model.ParseBigInt(withFee.AmountOut)
		require.True(t, outNoFee.Cmp(outWithFee) >= 0, "fee-free output below fee output at %d", amountIn)
	}
}

func TestComputeQuoteSlippageBound(t *testing.T) {
	reserveIn := big.NewInt(1_000_000)
	reserveOut := big.NewInt(2_000_000)

	for _, slippage := range []uint16{0, 1, 50, 500, 10_000} {
		quote, err := ComputeQuote(big.NewInt(1000), reserveIn, reserveOut, 30, slippage)
		require.NoError(t, err)

		amountOut, _ := model.ParseBigInt(quote.AmountOut)
		minReceived, _ := model.ParseBigInt(quote.MinimumReceived)
		require.True(t, minReceived.Cmp(amountOut) <= 0)
		if slippage == 0 {
			require.Equal(t, amountOut.String(), minReceived.String())
		} else {
			require.True(t, minReceived.Cmp(amountOut) < 0)
		}
	}
}

func TestComputeQuoteDeterministic(t *testing.T) {
	first, err := ComputeQuote(big.NewInt(123_456), big.NewInt(9_999_999), big.NewInt(7_777_777), 25, 75)
	require.NoError(t, err)
	second, err := ComputeQuote(big.NewInt(123_456), big.NewInt(9_999_999), big.NewInt(7_777_777), 25, 75)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestQuotePoolDirection(t *testing.T) {
	pool := model.ReservePool{Reserve0: "1000000", Reserve1: "2000000", FeeBps: 30}

	forward, err := QuotePool(pool, big.NewInt(1000), true, 0)
	require.NoError(t, err)
	backward, err := QuotePool(pool, big.NewInt(1000), false, 0)
	require.NoError(t, err)

	outForward, _ := model.ParseBigInt(forward.AmountOut)
	outBackward, _ := model.ParseBigInt(backward.AmountOut)
	// token1 is cheaper per token0, so the reverse direction returns less.
	require.True(t, outForward.Cmp(outBackward) > 0)
}

func TestQuotePoolBadReserves(t *testing.T) {
	pool := model.ReservePool{Reserve0: "not-a-number", Reserve1: "2000000", FeeBps: 30}
	_, err := QuotePool(pool, big.NewInt(1000), true, 0)
	require.Error(t, err)
}
