package workflow

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRunLog is the Postgres-backed RunLog.
type PGRunLog struct {
	pool *pgxpool.Pool
}

func NewPGRunLog(pool *pgxpool.Pool) *PGRunLog {
	return &PGRunLog{pool: pool}
}

// MigrateRunLog creates the run-log table if it does not exist.
func MigrateRunLog(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS dedup_runs (
			id              UUID PRIMARY KEY,
			event           TEXT NOT NULL,
			composition_id  TEXT NOT NULL,
			transaction_id  TEXT NOT NULL,
			state           TEXT NOT NULL,
			candidate_count INT NOT NULL DEFAULT 0,
			detail          TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("migrate dedup_runs: %w", err)
	}
	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_dedup_runs_composition
			ON dedup_runs (composition_id, created_at DESC)`)
	if err != nil {
		return fmt.Errorf("index dedup_runs: %w", err)
	}
	return nil
}

func (l *PGRunLog) Record(ctx context.Context, run *Run) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO dedup_runs
			(id, event, composition_id, transaction_id, state, candidate_count, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, string(run.Event), run.CompositionID, run.TransactionID,
		string(run.State), run.CandidateCount, run.Detail, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dedup run: %w", err)
	}
	return nil
}

func (l *PGRunLog) ListByComposition(ctx context.Context, compositionID string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.pool.Query(ctx, `
		SELECT id, event, composition_id, transaction_id, state, candidate_count, detail, created_at
		FROM dedup_runs
		WHERE composition_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		compositionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query dedup runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var event, state string
		if err := rows.Scan(&run.ID, &event, &run.CompositionID, &run.TransactionID,
			&state, &run.CandidateCount, &run.Detail, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dedup run: %w", err)
		}
		run.Event = eventFromString(event)
		run.State = CheckState(state)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
