package events

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SequenceRepository hands out a monotonic per-partition sequence so
// consumers can order events for one cart without a broker-level guarantee.
type SequenceRepository interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type sequenceRepository struct {
	pool rowQuerier
}

func NewSequenceRepository(pool rowQuerier) SequenceRepository {
	return &sequenceRepository{pool: pool}
}

func (r *sequenceRepository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("partition key is required")
	}

	// Single upsert, atomic on its own; no explicit transaction needed.
	const query = `
INSERT INTO event_sequences (partition_key, last_sequence, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (partition_key) DO UPDATE
SET last_sequence = event_sequences.last_sequence + 1,
    updated_at = NOW()
RETURNING last_sequence
`

	var next int64
	if err := r.pool.QueryRow(ctx, query, partitionKey).Scan(&next); err != nil {
		return 0, fmt.Errorf("increment sequence: %w", err)
	}
	return next, nil
}
