package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	strategyHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_strategy_hits_total",
		Help: "Price discoveries resolved per strategy.",
	}, []string{"strategy"})

	strategyFallthroughs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_strategy_fallthroughs_total",
		Help: "Strategy attempts that failed and fell through to the next.",
	}, []string{"strategy"})

	discoveryExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_discovery_exhausted_total",
		Help: "Lookups where every strategy failed.",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_cache_hits_total",
		Help: "Price cache hits.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_cache_misses_total",
		Help: "Price cache misses.",
	})
)
