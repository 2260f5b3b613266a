package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EntryRepository persists indexed entries in a pgvector table. It is the only
// component that touches index storage; matching and chat logic go through the
// index service.
type EntryRepository struct {
	db dbtx
}

func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{db: pool}
}

func NewEntryRepositoryWithTx(tx pgx.Tx) *EntryRepository {
	return &EntryRepository{db: tx}
}

// Upsert inserts or atomically replaces the entry with the given id. Readers
// observe either the previous or the new row, never a partial write.
func (r *EntryRepository) Upsert(ctx context.Context, e *domain.IndexedEntry) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	now := time.Now().UTC()
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO index_entries
			(id, entry_type, source_id, content, embedding, metadata, embedding_model_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			entry_type = EXCLUDED.entry_type,
			source_id = EXCLUDED.source_id,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			embedding_model_id = EXCLUDED.embedding_model_id,
			updated_at = EXCLUDED.updated_at`,
		e.ID, e.Type, e.SourceID, e.Content, pgvector.NewVector(e.Embedding),
		meta, e.ModelID, createdAt, now,
	)
	return err
}

// Delete removes the entry if present. Absent ids are a no-op, not an error.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM index_entries WHERE id = $1`, id)
	return err
}

// SearchRow is one ranked candidate returned by Search.
type SearchRow struct {
	ID       string
	Type     domain.EntryType
	SourceID string
	Content  string
	ModelID  string
	Metadata map[string]any
	Score    float64
}

// Search returns the top-k entries by cosine similarity. The filter (equality
// metadata predicate) restricts candidates before the LIMIT, so a filtered
// search always yields the true top-k within the filtered set. Ties are broken
// by ascending id for determinism. An empty index yields an empty slice.
func (r *EntryRepository) Search(ctx context.Context, embedding []float32, k int, filter map[string]any) ([]*SearchRow, error) {
	if k <= 0 {
		return []*SearchRow{}, nil
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT id, entry_type, source_id, content, embedding_model_id, metadata,
		       1.0 - (embedding <=> $1) AS score
		FROM index_entries`
	args := []any{vec}

	if len(filter) > 0 {
		pred, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		query += ` WHERE metadata @> $2`
		args = append(args, pred)
	}

	query += fmt.Sprintf(` ORDER BY score DESC, id ASC LIMIT $%d`, len(args)+1)
	args = append(args, k)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*SearchRow, 0, k)
	for rows.Next() {
		var row SearchRow
		var meta []byte
		if err := rows.Scan(&row.ID, &row.Type, &row.SourceID, &row.Content, &row.ModelID, &meta, &row.Score); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &row.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", row.ID, err)
			}
		}
		results = append(results, &row)
	}
	return results, rows.Err()
}

// Count returns the number of live entries matching the optional filter.
func (r *EntryRepository) Count(ctx context.Context, filter map[string]any) (int64, error) {
	query := `SELECT COUNT(*) FROM index_entries`
	var args []any

	if len(filter) > 0 {
		pred, err := json.Marshal(filter)
		if err != nil {
			return 0, fmt.Errorf("failed to encode filter: %w", err)
		}
		query += ` WHERE metadata @> $1`
		args = append(args, pred)
	}

	var count int64
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

// CountStale returns the number of entries embedded with a model other than
// the current one. A non-zero count means a rebuild is due.
func (r *EntryRepository) CountStale(ctx context.Context, currentModelID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM index_entries WHERE embedding_model_id <> $1`,
		currentModelID,
	).Scan(&count)
	return count, err
}

// ReplaceAll clears the index and inserts the given entries. It is meant to
// run inside WithTx so the swap is atomic: concurrent searches see the old set
// until commit, then the new set, never an empty in-between.
func (r *EntryRepository) ReplaceAll(ctx context.Context, entries []*domain.IndexedEntry) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM index_entries`); err != nil {
		return err
	}
	for _, e := range entries {
		if err := r.Upsert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches a single entry without its embedding vector. Used by
// diagnostics and the normalizer's unchanged-record check.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.IndexedEntry, error) {
	var e domain.IndexedEntry
	var meta []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, entry_type, source_id, content, embedding_model_id, metadata, created_at, updated_at
		 FROM index_entries WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Type, &e.SourceID, &e.Content, &e.ModelID, &meta, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
		}
	}
	return &e, nil
}
