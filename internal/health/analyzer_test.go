package health

import (
	"context"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/pricing"
)

var (
	testToken0 = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	testToken1 = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	testQuote  = testToken1
)

// staticPrices values tokens from a fixed map; anything absent is unpriceable.
type staticPrices struct {
	values map[common.Address]float64
}

func (s staticPrices) PriceOf(_ context.Context, token, quoteToken common.Address) (model.Price, error) {
	if value, ok := s.values[token]; ok {
		return model.Price{Token: token.Hex(), QuoteToken: quoteToken.Hex(), Value: value, Source: model.PriceSourcePool}, nil
	}
	return model.Price{}, fmt.Errorf("%w: %s", model.ErrPriceUnavailable, token.Hex())
}

func bothPriced() staticPrices {
	return staticPrices{values: map[common.Address]float64{
		testToken0: 2500,
		testToken1: 1,
	}}
}

func poolAtTick(t *testing.T, tick int32) model.ConcentratedPool {
	t.Helper()
	sqrtPrice, err := pricing.TickToSqrtPriceX96(tick)
	require.NoError(t, err)
	return model.ConcentratedPool{
		Address:        "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8",
		Token0:         testToken0.Hex(),
		Token1:         testToken1.Hex(),
		Fee:            3000,
		TickSpacing:    60,
		SqrtPriceX96:   sqrtPrice.String(),
		Tick:           tick,
		Token0Decimals: 18,
		Token1Decimals: 6,
		Liquidity:      "1000000000000000000",
	}
}

func basicPosition(lower, upper int32) model.Position {
	return model.Position{
		TickLower:   lower,
		TickUpper:   upper,
		Liquidity:   "1000000000000000",
		TokensOwed0: "0",
		TokensOwed1: "0",
	}
}

func lastAction(t *testing.T, report model.HealthReport) model.SuggestedAction {
	t.Helper()
	require.NotEmpty(t, report.SuggestedActions)
	return report.SuggestedActions[len(report.SuggestedActions)-1]
}

func TestAnalyzeInRange(t *testing.T) {
	analyzer := NewAnalyzer(bothPriced(), DefaultConfig(testQuote), nil)

	report, err := analyzer.Analyze(context.Background(), basicPosition(-1000, 1000), poolAtTick(t, 0), nil)
	require.NoError(t, err)

	require.True(t, report.InRange)
	require.InDelta(t, 0, report.ImpermanentLossPct, 1e-9, "entry at the range midpoint means no divergence yet")
	require.NotNil(t, report.FeesEarnedUSD)
	require.NotNil(t, report.PositionValueUSD)
	require.Greater(t, *report.PositionValueUSD, 0.0)
	require.GreaterOrEqual(t, report.HealthScore, 70.0)
	require.LessOrEqual(t, report.HealthScore, 100.0)
	require.Empty(t, report.Notes)

	hold := lastAction(t, report)
	require.Equal(t, model.ActionHold, hold.Type)
	require.Equal(t, model.PriorityLow, hold.Priority)
}

func TestAnalyzeRangeBoundaries(t *testing.T) {
	analyzer := NewAnalyzer(bothPriced(), DefaultConfig(testQuote), nil)
	position := basicPosition(-50, 50)

	report, err := analyzer.Analyze(context.Background(), position, poolAtTick(t, -50), nil)
	require.NoError(t, err)
	require.True(t, report.InRange, "lower bound is inclusive")

	report, err = analyzer.Analyze(context.Background(), position, poolAtTick(t, 50), nil)
	require.NoError(t, err)
	require.False(t, report.InRange, "upper bound is exclusive")

	report, err = analyzer.Analyze(context.Background(), position, poolAtTick(t, 49), nil)
	require.NoError(t, err)
	require.True(t, report.InRange)
}

func TestAnalyzeOutOfRangeSuggestsRebalance(t *testing.T) {
	analyzer := NewAnalyzer(bothPriced(), DefaultConfig(testQuote), nil)

	report, err := analyzer.Analyze(context.Background(), basicPosition(-50, 50), poolAtTick(t, 100), nil)
	require.NoError(t, err)

	require.False(t, report.InRange)
	require.Equal(t, model.ActionRebalance, report.SuggestedActions[0].Type)
	require.Equal(t, model.PriorityHigh, report.SuggestedActions[0].Priority)
	require.Contains(t, report.SuggestedActions[0].Rationale, "51 ticks")
	require.Equal(t, model.ActionHold, lastAction(t, report).Type)
}

func TestAnalyzeJustOutOfRangeHoldsBelowThreshold(t *testing.T) {
	cfg := DefaultConfig(testQuote)
	analyzer := NewAnalyzer(bothPriced(), cfg, nil)

	// 5 ticks past the upper bound, under the 10 tick rebalance threshold.
	report, err := analyzer.Analyze(context.Background(), basicPosition(-50, 50), poolAtTick(t, 54), nil)
	require.NoError(t, err)

	require.False(t, report.InRange)
	for _, action := range report.SuggestedActions {
		require.NotEqual(t, model.ActionRebalance, action.Type)
	}
}

func TestAnalyzeRecordedEntryTickDrivesIL(t *testing.T) {
	analyzer := NewAnalyzer(bothPriced(), DefaultConfig(testQuote), nil)

	entry := int32(0)
	position := basicPosition(9000, 11000)
	position.EntryTick = &entry

	report, err := analyzer.Analyze(context.Background(), position, poolAtTick(t, 10000), nil)
	require.NoError(t, err)

	// 1.0001^10000 is about e, which works out to roughly -11.3% divergence.
	require.InDelta(t, -11.32, report.ImpermanentLossPct, 0.05)

	var exit *model.SuggestedAction
	for i := range report.SuggestedActions {
		if report.SuggestedActions[i].Type == model.ActionExit {
			exit = &report.SuggestedActions[i]
		}
	}
	require.NotNil(t, exit, "IL past the ceiling must suggest exiting")
	require.Equal(t, model.PriorityHigh, exit.Priority)
}

func TestAnalyzeCollectAndScoreCeiling(t *testing.T) {
	analyzer := NewAnalyzer(bothPriced(), DefaultConfig(testQuote), nil)

	// No principal, all value in uncollected fees: collect is clearly due and
	// every score component maxes out, so the market nudge must clamp at 100.
	position := model.Position{
		TickLower:   -1000,
		TickUpper:   1000,
		Liquidity:   "0",
		TokensOwed0: "0",
		TokensOwed1: "1000000000", // 1000 USDC
	}
	market := &MarketData{Volume24hUSD: 2_000_000, TrendPct: 8}

	report, err := analyzer.Analyze(context.Background(), position, poolAtTick(t, 0), market)
	require.NoError(t, err)

	require.NotNil(t, report.FeesEarnedUSD)
	require.InDelta(t, 1000, *report.FeesEarnedUSD, 1e-6)
	require.Equal(t, 100.0, report.HealthScore)

	var collect *model.SuggestedAction
	for i := range report.SuggestedActions {
		if report.SuggestedActions[i].Type == model.ActionCollect {
			collect = &report.SuggestedActions[i]
		}
	}
	require.NotNil(t, collect)
	require.Equal(t, model.PriorityMedium, collect.Priority)
}

func TestAnalyzeScoreFloor(t *testing.T) {
	// Nothing priceable, deep out of range, heavy IL, negative market trend:
	// the score must clamp at zero, never go negative.
	analyzer := NewAnalyzer(staticPrices{}, DefaultConfig(testQuote), nil)

	entry := int32(-20000)
	position := basicPosition(-50, 50)
	position.EntryTick = &entry
	market := &MarketData{TrendPct: -10}

	report, err := analyzer.Analyze(context.Background(), position, poolAtTick(t, 500), market)
	require.NoError(t, err)
	require.Equal(t, 0.0, report.HealthScore)
}

func TestAnalyzePartialReportWhenUnpriceable(t *testing.T) {
	// token0 cannot be priced; the report still comes back with the USD
	// fields omitted and a note attached.
	prices := staticPrices{values: map[common.Address]float64{testToken1: 1}}
	analyzer := NewAnalyzer(prices, DefaultConfig(testQuote), nil)

	report, err := analyzer.Analyze(context.Background(), basicPosition(-1000, 1000), poolAtTick(t, 0), nil)
	require.NoError(t, err)

	require.Nil(t, report.FeesEarnedUSD)
	require.Nil(t, report.PositionValueUSD)
	require.NotEmpty(t, report.Notes)
	require.Contains(t, report.Notes[0], "price data unavailable for")
	require.Contains(t, report.Notes[0], testToken0.Hex())
	require.True(t, report.InRange)
	require.Equal(t, model.ActionHold, lastAction(t, report).Type)
}

func TestAnalyzeInvalidPosition(t *testing.T) {
	analyzer := NewAnalyzer(bothPriced(), DefaultConfig(testQuote), nil)

	_, err := analyzer.Analyze(context.Background(), basicPosition(1000, -1000), poolAtTick(t, 0), nil)
	require.ErrorIs(t, err, model.ErrInvalidInput)

	bad := basicPosition(-1000, 1000)
	bad.Liquidity = "not-a-number"
	_, err = analyzer.Analyze(context.Background(), bad, poolAtTick(t, 0), nil)
	require.ErrorIs(t, err, model.ErrInvalidInput)

	pool := poolAtTick(t, 0)
	pool.SqrtPriceX96 = "bogus"
	_, err = analyzer.Analyze(context.Background(), basicPosition(-1000, 1000), pool, nil)
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestAnalyzeAllIsolatesFailures(t *testing.T) {
	analyzer := NewAnalyzer(bothPriced(), DefaultConfig(testQuote), nil)

	items := []Item{
		{Position: basicPosition(1000, -1000), Pool: poolAtTick(t, 0)},
		{Position: basicPosition(-1000, 1000), Pool: poolAtTick(t, 0)},
	}

	results := analyzer.AnalyzeAll(context.Background(), items)
	require.Len(t, results, 2)

	require.Nil(t, results[0].Report)
	require.NotEmpty(t, results[0].Error)

	require.NotNil(t, results[1].Report)
	require.Empty(t, results[1].Error)
	require.True(t, results[1].Report.InRange)
}

func TestImpermanentLossPct(t *testing.T) {
	require.Equal(t, 0.0, impermanentLossPct(0, 0))

	// IL is a loss in both directions of divergence.
	up := impermanentLossPct(5000, 0)
	down := impermanentLossPct(-5000, 0)
	require.Less(t, up, 0.0)
	require.Less(t, down, 0.0)
	require.InDelta(t, up, down, 1e-9, "the formula is symmetric in the ratio's log")

	// Bigger divergence, bigger loss.
	require.Less(t, impermanentLossPct(10000, 0), impermanentLossPct(5000, 0))

	// Extreme divergence saturates instead of producing NaN or +Inf.
	require.Equal(t, -100.0, impermanentLossPct(pricing.MaxTick*2, 0))
}

func TestEntryTickFor(t *testing.T) {
	recorded := int32(123)
	require.Equal(t, int32(123), entryTickFor(-1000, 1000, &recorded))
	require.Equal(t, int32(0), entryTickFor(-1000, 1000, nil))
	require.Equal(t, int32(150), entryTickFor(100, 200, nil))
}
