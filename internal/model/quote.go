package model

// Quote is the output of a constant-product swap computation. Immutable value
// object, created fresh per call.
type Quote struct {
	AmountIn        string `json:"amount_in"`
	AmountOut       string `json:"amount_out"`
	ExecutionPrice  string `json:"execution_price"`
	PriceImpactBps  uint32 `json:"price_impact_bps"`
	MinimumReceived string `json:"minimum_received"`
	FeeBps          uint16 `json:"fee_bps"`
	SlippageBps     uint16 `json:"slippage_bps"`
}
