package storage

import "github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"

// Storage defines a sink for analysis records. The engine itself is
// stateless; sinks exist for callers that keep report history for dashboards.
type Storage interface {
	PutReportBatch(records []model.AnalysisRecord) error
}
