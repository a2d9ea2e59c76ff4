package model

// Suggested action types.
const (
	ActionRebalance = "rebalance"
	ActionCollect   = "collect"
	ActionExit      = "exit"
	ActionHold      = "hold"
)

// Action priorities, high > medium > low.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// SuggestedAction is one ranked recommendation in a HealthReport.
type SuggestedAction struct {
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Rationale string `json:"rationale"`
}

// HealthReport is the derived assessment of one position. Recomputed on every
// request, never persisted by the engine itself. USD fields are nil when the
// required token could not be priced; in that case Notes explains why and the
// report is still returned (partial beats nothing).
type HealthReport struct {
	InRange            bool              `json:"in_range"`
	HealthScore        float64           `json:"health_score"`
	FeesEarnedUSD      *float64          `json:"fees_earned_usd,omitempty"`
	PositionValueUSD   *float64          `json:"position_value_usd,omitempty"`
	ImpermanentLossPct float64           `json:"impermanent_loss_pct"`
	SuggestedActions   []SuggestedAction `json:"suggested_actions"`
	Notes              []string          `json:"notes,omitempty"`
}

// HealthResult is one entry of a batch analysis. Either Report or Error is
// set; a bad position degrades to an error entry instead of failing the batch.
type HealthResult struct {
	Report *HealthReport `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// AnalysisRecord pairs a report with the position it describes, for report
// sinks (JSONL files, Postgres) consumed by dashboards.
type AnalysisRecord struct {
	PoolAddress string       `json:"pool_address"`
	Position    Position     `json:"position"`
	Report      HealthReport `json:"report"`
	GeneratedAt string       `json:"generated_at"`
}
