package model

import "time"

// Price sources, in fallback order.
const (
	PriceSourceQuoter = "quoter"
	PriceSourcePool   = "pool"
	PriceSourceAlt    = "alt_quote"
	PriceSourceRouted = "routed"
	PriceSourceCache  = "cache"
)

// Price is a discovered spot price of Token denominated in QuoteToken.
type Price struct {
	Token      string    `json:"token"`
	QuoteToken string    `json:"quote_token"`
	Value      float64   `json:"value"`
	Source     string    `json:"source"`
	At         time.Time `json:"at"`
}
