package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SignalOps/internal/domain/models"
)

// ClickHouseSignalStore archives signal envelopes for offline analytics. One
// row per signal, with the raw envelope kept alongside the flattened columns.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseSignalStore creates a store writing to the given table
// (database-qualified).
func NewClickHouseSignalStore(db *sql.DB, table string) *ClickHouseSignalStore {
	return &ClickHouseSignalStore{db: db, table: table}
}

// Schema returns the idempotent DDL for the archive table.
func (s *ClickHouseSignalStore) Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			signal_id String,
			ts DateTime64(3),
			pair_id String,
			return_prob Float64,
			risk_score Float64,
			theta1 Float64,
			theta2 Float64,
			position_scale Float64,
			model_version String,
			valid_until DateTime64(3),
			worker_id String,
			received_at DateTime64(3),
			envelope String
		) ENGINE = MergeTree ORDER BY (pair_id, ts)`, s.table),
	}
}

// Archive writes every signal of an envelope as one row.
func (s *ClickHouseSignalStore) Archive(ctx context.Context, env *models.SignalEnvelope, raw []byte) error {
	if len(env.Signals) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(signal_id, ts, pair_id, return_prob, risk_score, theta1, theta2,
		 position_scale, model_version, valid_until, worker_id, received_at, envelope)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	workerID := env.Diagnostics["worker_id"]
	receivedAt := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare archive insert: %w", err)
	}
	defer stmt.Close()

	for _, sig := range env.Signals {
		if _, err := stmt.ExecContext(ctx,
			sig.SignalID, sig.Timestamp, sig.PairID,
			sig.ReturnProb, sig.RiskScore, sig.Theta1, sig.Theta2,
			sig.PositionScale, sig.ModelVersion, sig.ValidUntil,
			workerID, receivedAt, string(raw),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("archive signal %s: %w", sig.SignalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive batch: %w", err)
	}
	return nil
}

// Close is a no-op; the pooled connection is owned by the caller.
func (s *ClickHouseSignalStore) Close() error {
	return nil
}
