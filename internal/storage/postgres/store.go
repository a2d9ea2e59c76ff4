package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

// Store provides Postgres persistence for analysis records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutReportBatch inserts a batch of analysis records. Reports are append-only
// history rows; every analysis run produces fresh ones.
func (s *Store) PutReportBatch(records []model.AnalysisRecord) error {
	return s.InsertReports(context.Background(), records)
}

// InsertReports inserts analysis records with an explicit context.
func (s *Store) InsertReports(ctx context.Context, records []model.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		actions, err := json.Marshal(record.Report.SuggestedActions)
		if err != nil {
			return fmt.Errorf("marshal actions: %w", err)
		}
		notes, err := json.Marshal(record.Report.Notes)
		if err != nil {
			return fmt.Errorf("marshal notes: %w", err)
		}

		batch.Queue(`
			INSERT INTO health_reports (
				pool_address, tick_lower, tick_upper, liquidity,
				in_range, health_score, fees_earned_usd, position_value_usd,
				impermanent_loss_pct, suggested_actions, notes, generated_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
		`,
			record.PoolAddress,
			record.Position.TickLower,
			record.Position.TickUpper,
			record.Position.Liquidity,
			record.Report.InRange,
			record.Report.HealthScore,
			record.Report.FeesEarnedUSD,
			record.Report.PositionValueUSD,
			record.Report.ImpermanentLossPct,
			actions,
			notes,
			record.GeneratedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
