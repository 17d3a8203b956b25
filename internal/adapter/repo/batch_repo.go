package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"slideflow/internal/domain"
	"slideflow/internal/infra"
	"slideflow/internal/sqlinline"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// BatchRepositoryPG archives finished batch snapshots in PostgreSQL. It is a
// history record only; live batch state never comes from here.
type BatchRepositoryPG struct {
	db infra.SQLExecutor
}

// NewBatchRepository creates a batch archive over a marker-checked executor.
func NewBatchRepository(db infra.SQLExecutor) *BatchRepositoryPG {
	return &BatchRepositoryPG{db: db}
}

// EnsureSchema creates the archive table when missing.
func (r *BatchRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, sqlinline.QEnsureBatchArchive); err != nil {
		return fmt.Errorf("ensure slide_batches: %w", err)
	}
	return nil
}

// Archive upserts the terminal snapshot of a batch.
func (r *BatchRepositoryPG) Archive(ctx context.Context, snap domain.Snapshot) error {
	if !snap.Status.Terminal() {
		return fmt.Errorf("archive batch %s: status %s is not terminal: %w", snap.BatchID, snap.Status, domain.ErrInvalidArgument)
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.db.Exec(ctx, sqlinline.QArchiveBatch,
		snap.BatchID,
		string(snap.Status),
		snap.TotalSlides,
		snap.Successful,
		snap.Failed,
		snap.Workers,
		snap.AspectRatio,
		snap.StartedAt,
		snap.FinishedAt,
		payload,
	)
	if err != nil {
		return fmt.Errorf("archive batch %s: %w", snap.BatchID, err)
	}
	return nil
}

// Recent lists archived batches newest first, optionally filtered by status.
func (r *BatchRepositoryPG) Recent(ctx context.Context, limit int, status domain.BatchStatus) ([]domain.BatchSummary, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	rows, err := r.db.Query(ctx, sqlinline.QRecentBatches, limit, string(status))
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	out := make([]domain.BatchSummary, 0, limit)
	for rows.Next() {
		var (
			s      domain.BatchSummary
			status string
		)
		if err := rows.Scan(
			&s.BatchID,
			&status,
			&s.TotalSlides,
			&s.Successful,
			&s.Failed,
			&s.Workers,
			&s.AspectRatio,
			&s.StartedAt,
			&s.FinishedAt,
			&s.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		s.Status = domain.BatchStatus(status)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

// Get returns the archived snapshot of one batch.
func (r *BatchRepositoryPG) Get(ctx context.Context, id uuid.UUID) (domain.Snapshot, error) {
	var payload []byte
	if err := r.db.QueryRow(ctx, sqlinline.QArchivedBatch, id).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, fmt.Errorf("archived batch %s: %w", id, domain.ErrNotFound)
		}
		return domain.Snapshot{}, fmt.Errorf("load batch %s: %w", id, err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return snap, nil
}
