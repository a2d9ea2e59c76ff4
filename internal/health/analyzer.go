// Package health turns raw concentrated-liquidity positions into health
// assessments: range status, fee value, impermanent loss, a composite score,
// and ranked suggested actions.
package health

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/pricing"
)

// PriceSource values tokens for fee and position valuation. pricing.Engine
// implements it; tests use fixed maps.
type PriceSource interface {
	PriceOf(ctx context.Context, token, quoteToken common.Address) (model.Price, error)
}

// MarketData is optional external scoring input. Absence degrades gracefully.
type MarketData struct {
	Volume24hUSD float64 `json:"volume_24h_usd"`
	TrendPct     float64 `json:"trend_pct"`
}

// Config holds the analyzer thresholds.
type Config struct {
	// QuoteToken is the USD reference asset all valuations are expressed in.
	QuoteToken common.Address
	// RebalanceTickThreshold is the out-of-range distance, in ticks, beyond
	// which a rebalance is suggested.
	RebalanceTickThreshold int32
	// CollectMinFeeRatio is the uncollected-fee share of position value above
	// which collecting is worthwhile.
	CollectMinFeeRatio float64
	// ExitILCeilingPct is the impermanent loss magnitude, in percent, beyond
	// which exiting is suggested.
	ExitILCeilingPct float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig(quoteToken common.Address) Config {
	return Config{
		QuoteToken:             quoteToken,
		RebalanceTickThreshold: 10,
		CollectMinFeeRatio:     0.01,
		ExitILCeilingPct:       10,
	}
}

// Analyzer computes HealthReports. Stateless; safe for concurrent use.
type Analyzer struct {
	prices PriceSource
	cfg    Config
	logger *zap.Logger
}

// NewAnalyzer builds an analyzer. A nil logger falls back to a no-op.
func NewAnalyzer(prices PriceSource, cfg Config, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{prices: prices, cfg: cfg, logger: logger}
}

// Item is one unit of batch analysis.
type Item struct {
	Position model.Position         `json:"position"`
	Pool     model.ConcentratedPool `json:"pool"`
	Market   *MarketData            `json:"market,omitempty"`
}

// Analyze computes the health report for one position. When a required token
// cannot be priced the report is still produced with the USD fields omitted
// and a note attached; only invalid inputs fail the call.
func (a *Analyzer) Analyze(ctx context.Context, position model.Position, pool model.ConcentratedPool, market *MarketData) (model.HealthReport, error) {
	if err := position.Validate(); err != nil {
		return model.HealthReport{}, err
	}
	sqrtPrice, err := pool.SqrtPrice()
	if err != nil {
		return model.HealthReport{}, err
	}

	report := model.HealthReport{
		// Lower bound inclusive, upper exclusive, matching tick-space
		// semantics.
		InRange: pool.Tick >= position.TickLower && pool.Tick < position.TickUpper,
	}

	entryTick := entryTickFor(position.TickLower, position.TickUpper, position.EntryTick)
	report.ImpermanentLossPct = impermanentLossPct(pool.Tick, entryTick)

	feesUSD, valueUSD := a.valuation(ctx, position, pool, sqrtPrice, &report)

	report.HealthScore = a.score(report.InRange, tickDistance(pool.Tick, position), report.ImpermanentLossPct, feesUSD, valueUSD, market)
	report.SuggestedActions = a.suggestActions(report.InRange, tickDistance(pool.Tick, position), report.ImpermanentLossPct, feesUSD, valueUSD)

	return report, nil
}

// AnalyzeAll maps Analyze over a batch with independent failure isolation:
// one bad position yields an error entry instead of aborting the batch.
func (a *Analyzer) AnalyzeAll(ctx context.Context, items []Item) []model.HealthResult {
	results := make([]model.HealthResult, 0, len(items))
	for i, item := range items {
		report, err := a.Analyze(ctx, item.Position, item.Pool, item.Market)
		if err != nil {
			a.logger.Warn("position analysis failed", zap.Int("index", i), zap.Error(err))
			results = append(results, model.HealthResult{Error: err.Error()})
			continue
		}
		results = append(results, model.HealthResult{Report: &report})
	}
	return results
}

// valuation prices the position's token amounts and uncollected fees in the
// quote asset. Unpriceable tokens degrade to nil USD fields plus a note.
func (a *Analyzer) valuation(ctx context.Context, position model.Position, pool model.ConcentratedPool, sqrtPrice *big.Int, report *model.HealthReport) (feesUSD, valueUSD *float64) {
	liquidity, err := position.LiquidityInt()
	if err != nil {
		report.Notes = append(report.Notes, err.Error())
		return nil, nil
	}
	owed0, owed1, err := position.Owed()
	if err != nil {
		report.Notes = append(report.Notes, err.Error())
		return nil, nil
	}

	amount0, amount1, err := pricing.AmountsForLiquidity(sqrtPrice, position.TickLower, position.TickUpper, liquidity)
	if err != nil {
		report.Notes = append(report.Notes, err.Error())
		return nil, nil
	}

	price0, err := a.prices.PriceOf(ctx, common.HexToAddress(pool.Token0), a.cfg.QuoteToken)
	if err != nil {
		report.Notes = append(report.Notes, fmt.Sprintf("price data unavailable for %s", pool.Token0))
		return nil, nil
	}
	price1, err := a.prices.PriceOf(ctx, common.HexToAddress(pool.Token1), a.cfg.QuoteToken)
	if err != nil {
		report.Notes = append(report.Notes, fmt.Sprintf("price data unavailable for %s", pool.Token1))
		return nil, nil
	}

	fees := tokenValueUSD(owed0, pool.Token0Decimals, price0.Value) +
		tokenValueUSD(owed1, pool.Token1Decimals, price1.Value)
	value := fees +
		tokenValueUSD(amount0, pool.Token0Decimals, price0.Value) +
		tokenValueUSD(amount1, pool.Token1Decimals, price1.Value)

	report.FeesEarnedUSD = &fees
	report.PositionValueUSD = &value
	return &fees, &value
}

// Score weights: range status, impermanent loss, fee yield, then an optional
// market nudge. Clamped to [0, 100] and floored so ties break toward the
// lower score.
const (
	rangeWeight    = 40.0
	ilWeight       = 30.0
	feeYieldWeight = 30.0

	proximityPenaltyPerTick = 0.1
	proximityPenaltyCap     = 20.0
	fullMarksFeeYield       = 0.05
	marketTrendCap          = 5.0
	marketVolumeBonus       = 2.0
	marketVolumeFloorUSD    = 1_000_000
)

func (a *Analyzer) score(inRange bool, outOfRangeTicks int32, ilPct float64, feesUSD, valueUSD *float64, market *MarketData) float64 {
	var score float64

	if inRange {
		score += rangeWeight
	} else {
		score -= math.Min(proximityPenaltyCap, float64(outOfRangeTicks)*proximityPenaltyPerTick)
	}

	ceiling := a.cfg.ExitILCeilingPct
	if ceiling <= 0 {
		ceiling = DefaultConfig(a.cfg.QuoteToken).ExitILCeilingPct
	}
	ilFactor := 1 - math.Abs(ilPct)/ceiling
	if ilFactor < 0 {
		ilFactor = 0
	}
	score += ilWeight * ilFactor

	if feesUSD != nil && valueUSD != nil && *valueUSD > 0 {
		yield := *feesUSD / *valueUSD
		score += feeYieldWeight * math.Min(1, yield/fullMarksFeeYield)
	}

	if market != nil {
		trend := market.TrendPct
		if trend > marketTrendCap {
			trend = marketTrendCap
		}
		if trend < -marketTrendCap {
			trend = -marketTrendCap
		}
		score += trend
		if market.Volume24hUSD >= marketVolumeFloorUSD {
			score += marketVolumeBonus
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return math.Floor(score)
}

// suggestActions builds the ranked recommendation list, highs first, with
// hold always present as the fallback.
func (a *Analyzer) suggestActions(inRange bool, outOfRangeTicks int32, ilPct float64, feesUSD, valueUSD *float64) []model.SuggestedAction {
	actions := make([]model.SuggestedAction, 0, 4)

	if !inRange && outOfRangeTicks > a.cfg.RebalanceTickThreshold {
		actions = append(actions, model.SuggestedAction{
			Type:      model.ActionRebalance,
			Priority:  model.PriorityHigh,
			Rationale: fmt.Sprintf("position is out of range by %d ticks", outOfRangeTicks),
		})
	}

	if a.cfg.ExitILCeilingPct > 0 && ilPct <= -a.cfg.ExitILCeilingPct {
		actions = append(actions, model.SuggestedAction{
			Type:      model.ActionExit,
			Priority:  model.PriorityHigh,
			Rationale: fmt.Sprintf("impermanent loss %.2f%% exceeds the %.2f%% ceiling", ilPct, a.cfg.ExitILCeilingPct),
		})
	}

	if feesUSD != nil && valueUSD != nil && *valueUSD > 0 && *feesUSD / *valueUSD > a.cfg.CollectMinFeeRatio {
		actions = append(actions, model.SuggestedAction{
			Type:      model.ActionCollect,
			Priority:  model.PriorityMedium,
			Rationale: fmt.Sprintf("uncollected fees are %.2f%% of position value", *feesUSD / *valueUSD * 100),
		})
	}

	actions = append(actions, model.SuggestedAction{
		Type:      model.ActionHold,
		Priority:  model.PriorityLow,
		Rationale: "no immediate action required",
	})

	return actions
}

// tickDistance returns how far the current tick sits outside the range, in
// ticks. Zero when in range.
func tickDistance(tick int32, position model.Position) int32 {
	if tick < position.TickLower {
		return position.TickLower - tick
	}
	if tick >= position.TickUpper {
		return tick - position.TickUpper + 1
	}
	return 0
}

func tokenValueUSD(amount *big.Int, decimals uint8, price float64) float64 {
	if amount == nil || amount.Sign() == 0 {
		return 0
	}
	scaled := new(big.Float).SetInt(amount)
	scaled.Quo(scaled, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
	value, _ := scaled.Float64()
	return value * price
}
