package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

func TestCacheTTL(t *testing.T) {
	clock := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	cache := NewCache(10*time.Second, func() time.Time { return clock })

	price := model.Price{
		Token:      "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		QuoteToken: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Value:      2500,
		Source:     model.PriceSourceQuoter,
		At:         clock,
	}

	_, ok := cache.Get(price.Token, price.QuoteToken)
	require.False(t, ok)

	cache.Put(price)

	got, ok := cache.Get(price.Token, price.QuoteToken)
	require.True(t, ok)
	require.Equal(t, price, got)

	// Lookups are case-insensitive on addresses.
	_, ok = cache.Get("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", price.QuoteToken)
	require.True(t, ok)

	// The inverse pair is a different entry.
	_, ok = cache.Get(price.QuoteToken, price.Token)
	require.False(t, ok)

	clock = clock.Add(10 * time.Second)
	_, ok = cache.Get(price.Token, price.QuoteToken)
	require.True(t, ok, "entry exactly at TTL is still fresh")

	clock = clock.Add(time.Nanosecond)
	_, ok = cache.Get(price.Token, price.QuoteToken)
	require.False(t, ok, "entry past TTL must expire")
}

func TestCacheDisabled(t *testing.T) {
	price := model.Price{Token: "0x01", QuoteToken: "0x02", Value: 1}

	cache := NewCache(0, nil)
	cache.Put(price)
	_, ok := cache.Get(price.Token, price.QuoteToken)
	require.False(t, ok)

	// Nil receiver is a valid disabled cache.
	var nilCache *Cache
	nilCache.Put(price)
	_, ok = nilCache.Get(price.Token, price.QuoteToken)
	require.False(t, ok)
}

func TestCacheOverwrite(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	cache := NewCache(time.Minute, func() time.Time { return clock })

	first := model.Price{Token: "0x01", QuoteToken: "0x02", Value: 10}
	cache.Put(first)

	second := first
	second.Value = 11
	cache.Put(second)

	got, ok := cache.Get("0x01", "0x02")
	require.True(t, ok)
	require.Equal(t, 11.0, got.Value)
}
