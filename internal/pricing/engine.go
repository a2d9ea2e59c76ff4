package pricing

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/chain"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/dex"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

// maxRouteDepth caps routed composition at one intermediate hop so the
// strategy chain cannot cycle.
const maxRouteDepth = 1

// Config wires the engine to the routing venue and reference assets.
type Config struct {
	Factory        common.Address
	Quoter         common.Address
	PrimaryQuote   common.Address
	SecondaryQuote common.Address
	Intermediates  []common.Address
	FeeTiers       []uint32
}

// DefaultFeeTiers are the standard V3 tiers, probed in order.
var DefaultFeeTiers = []uint32{500, 3000, 100, 10000}

// Engine discovers spot prices by folding over an ordered list of strategies:
// quoter simulation, direct pool read, the same pair against a secondary
// quote asset, then one-hop routed composition. The first success wins; a
// strategy failure of any kind falls through to the next.
type Engine struct {
	cfg      Config
	reader   *dex.PoolReader
	quoter   *dex.Quoter
	registry *dex.TokenRegistry
	cache    *Cache
	logger   *zap.Logger
	now      func() time.Time
}

type strategy struct {
	name string
	run  func(ctx context.Context, token, quoteToken common.Address) (float64, error)
}

// NewEngine builds a price discovery engine. Cache may be nil to disable
// memoization.
func NewEngine(cfg Config, caller chain.Caller, registry *dex.TokenRegistry, cache *Cache, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.FeeTiers) == 0 {
		cfg.FeeTiers = DefaultFeeTiers
	}
	return &Engine{
		cfg:      cfg,
		reader:   dex.NewPoolReader(caller, logger),
		quoter:   dex.NewQuoter(caller, cfg.Quoter),
		registry: registry,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// Registry exposes the token registry for callers that resolve symbols.
func (e *Engine) Registry() *dex.TokenRegistry {
	return e.registry
}

// PriceOf discovers the price of token denominated in quoteToken. All
// strategies failing yields ErrPriceUnavailable; callers must treat that as
// "unknown", never as zero.
func (e *Engine) PriceOf(ctx context.Context, token, quoteToken common.Address) (model.Price, error) {
	return e.priceOf(ctx, token, quoteToken, 0)
}

// PriceOfSymbols is PriceOf over configured token symbols.
func (e *Engine) PriceOfSymbols(ctx context.Context, token, quoteToken string) (model.Price, error) {
	tokenAddr, err := e.registry.AddressOf(token)
	if err != nil {
		return model.Price{}, err
	}
	quoteAddr, err := e.registry.AddressOf(quoteToken)
	if err != nil {
		return model.Price{}, err
	}
	return e.PriceOf(ctx, tokenAddr, quoteAddr)
}

func (e *Engine) priceOf(ctx context.Context, token, quoteToken common.Address, depth int) (model.Price, error) {
	if token == (common.Address{}) || quoteToken == (common.Address{}) {
		return model.Price{}, fmt.Errorf("%w: empty token address", model.ErrInvalidInput)
	}
	if token == quoteToken {
		return e.finish(token, quoteToken, 1, model.PriceSourcePool), nil
	}

	if cached, ok := e.cache.Get(token.Hex(), quoteToken.Hex()); ok {
		cacheHits.Inc()
		return cached, nil
	}
	cacheMisses.Inc()

	for _, s := range e.strategies(quoteToken, depth) {
		value, err := s.run(ctx, token, quoteToken)
		if err != nil {
			strategyFallthroughs.WithLabelValues(s.name).Inc()
			e.logger.Debug("price strategy fell through",
				zap.String("strategy", s.name),
				zap.String("token", token.Hex()),
				zap.String("quote", quoteToken.Hex()),
				zap.Error(err),
			)
			continue
		}
		if value <= 0 {
			strategyFallthroughs.WithLabelValues(s.name).Inc()
			continue
		}

		strategyHits.WithLabelValues(s.name).Inc()
		price := e.finish(token, quoteToken, value, s.name)
		e.cache.Put(price)
		return price, nil
	}

	discoveryExhausted.Inc()
	return model.Price{}, fmt.Errorf("%w: %s/%s", model.ErrPriceUnavailable, token.Hex(), quoteToken.Hex())
}

func (e *Engine) strategies(quoteToken common.Address, depth int) []strategy {
	list := []strategy{
		{name: model.PriceSourceQuoter, run: func(ctx context.Context, token, quote common.Address) (float64, error) {
			return e.simulateUnitSwap(ctx, token, quote)
		}},
		{name: model.PriceSourcePool, run: func(ctx context.Context, token, quote common.Address) (float64, error) {
			return e.readDirectPool(ctx, token, quote)
		}},
	}

	secondary := e.cfg.SecondaryQuote
	if secondary != (common.Address{}) && secondary != quoteToken {
		list = append(list, strategy{name: model.PriceSourceAlt, run: func(ctx context.Context, token, _ common.Address) (float64, error) {
			if value, err := e.simulateUnitSwap(ctx, token, secondary); err == nil {
				return value, nil
			}
			return e.readDirectPool(ctx, token, secondary)
		}})
	}

	if depth < maxRouteDepth {
		list = append(list, strategy{name: model.PriceSourceRouted, run: func(ctx context.Context, token, quote common.Address) (float64, error) {
			return e.routeThroughIntermediate(ctx, token, quote, depth)
		}})
	}

	return list
}

// simulateUnitSwap asks the quoter for the output of exactly one unit of
// token and derives the price from it.
func (e *Engine) simulateUnitSwap(ctx context.Context, token, quoteToken common.Address) (float64, error) {
	if e.cfg.Quoter == (common.Address{}) {
		return 0, fmt.Errorf("quoter not configured")
	}

	decimalsIn, err := e.registry.DecimalsOf(ctx, token)
	if err != nil {
		return 0, err
	}
	decimalsOut, err := e.registry.DecimalsOf(ctx, quoteToken)
	if err != nil {
		return 0, err
	}

	oneUnit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalsIn)), nil)

	var lastErr error
	for _, fee := range e.cfg.FeeTiers {
		amountOut, err := e.quoter.QuoteExactInputSingle(ctx, token, quoteToken, fee, oneUnit)
		if err != nil {
			lastErr = err
			continue
		}
		if amountOut.Sign() <= 0 {
			lastErr = fmt.Errorf("quoter returned zero output")
			continue
		}

		scale := new(big.Float).SetPrec(sqrtPricePrec).SetInt(
			new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalsOut)), nil),
		)
		price := new(big.Float).SetPrec(sqrtPricePrec).SetInt(amountOut)
		price.Quo(price, scale)

		value, _ := price.Float64()
		return value, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no fee tiers configured")
	}
	return 0, lastErr
}

// readDirectPool locates the pair's pool and decodes its packed sqrt price,
// inverting when the queried token is the pool's token1.
func (e *Engine) readDirectPool(ctx context.Context, token, quoteToken common.Address) (float64, error) {
	if e.cfg.Factory == (common.Address{}) {
		return 0, fmt.Errorf("factory not configured")
	}

	var lastErr error
	for _, fee := range e.cfg.FeeTiers {
		poolAddr, err := e.reader.FindPool(ctx, e.cfg.Factory, token, quoteToken, fee)
		if err != nil {
			lastErr = err
			continue
		}
		if poolAddr == (common.Address{}) {
			lastErr = fmt.Errorf("no pool at fee tier %d", fee)
			continue
		}

		pool, err := e.reader.ReadPool(ctx, poolAddr, e.registry)
		if err != nil {
			lastErr = err
			continue
		}

		sqrtPrice, err := pool.SqrtPrice()
		if err != nil {
			lastErr = err
			continue
		}

		price, err := DecodeSqrtPriceX96(sqrtPrice, pool.Token0Decimals, pool.Token1Decimals)
		if err != nil {
			lastErr = err
			continue
		}
		if common.HexToAddress(pool.Token1) == token {
			price, err = InvertPrice(price)
			if err != nil {
				lastErr = err
				continue
			}
		}

		value, _ := price.Float64()
		return value, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no fee tiers configured")
	}
	return 0, lastErr
}

// routeThroughIntermediate composes token->intermediate and
// intermediate->quote prices. Depth is already checked by the caller, so the
// nested lookups cannot recurse into another routed hop.
func (e *Engine) routeThroughIntermediate(ctx context.Context, token, quoteToken common.Address, depth int) (float64, error) {
	var lastErr error
	for _, mid := range e.cfg.Intermediates {
		if mid == token || mid == quoteToken || mid == (common.Address{}) {
			continue
		}

		legIn, err := e.priceOf(ctx, token, mid, depth+1)
		if err != nil {
			lastErr = err
			continue
		}
		legOut, err := e.priceOf(ctx, mid, quoteToken, depth+1)
		if err != nil {
			lastErr = err
			continue
		}

		return legIn.Value * legOut.Value, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no usable intermediate asset")
	}
	return 0, lastErr
}

// PoolsFor enumerates the configured counter-assets and reports which pairs
// have an initialized pool. Diagnostic surface, not on the hot path.
func (e *Engine) PoolsFor(ctx context.Context, token common.Address) ([]model.PoolRef, error) {
	if token == (common.Address{}) {
		return nil, fmt.Errorf("%w: empty token address", model.ErrInvalidInput)
	}
	if e.cfg.Factory == (common.Address{}) {
		return nil, fmt.Errorf("%w: factory not configured", model.ErrInvalidInput)
	}

	counters := e.counterAssets(token)
	refs := make([]model.PoolRef, 0, len(counters)*len(e.cfg.FeeTiers))
	for _, counter := range counters {
		for _, fee := range e.cfg.FeeTiers {
			ref := model.PoolRef{Token: token.Hex(), Counter: counter.Hex(), Fee: fee}

			poolAddr, err := e.reader.FindPool(ctx, e.cfg.Factory, token, counter, fee)
			if err != nil {
				e.logger.Debug("pool lookup failed",
					zap.String("counter", counter.Hex()),
					zap.Uint32("fee", fee),
					zap.Error(err),
				)
				refs = append(refs, ref)
				continue
			}
			if poolAddr != (common.Address{}) {
				ref.PoolAddress = poolAddr.Hex()
				initialized, err := e.reader.PoolInitialized(ctx, poolAddr)
				if err == nil {
					ref.Initialized = initialized
				}
			}
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (e *Engine) counterAssets(token common.Address) []common.Address {
	seen := make(map[common.Address]bool)
	counters := make([]common.Address, 0, 2+len(e.cfg.Intermediates))
	for _, candidate := range append([]common.Address{e.cfg.PrimaryQuote, e.cfg.SecondaryQuote}, e.cfg.Intermediates...) {
		if candidate == (common.Address{}) || candidate == token || seen[candidate] {
			continue
		}
		seen[candidate] = true
		counters = append(counters, candidate)
	}
	return counters
}

func (e *Engine) finish(token, quoteToken common.Address, value float64, source string) model.Price {
	return model.Price{
		Token:      token.Hex(),
		QuoteToken: quoteToken.Hex(),
		Value:      value,
		Source:     source,
		At:         e.now(),
	}
}
