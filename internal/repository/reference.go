package repository

import (
	"context"
	"errors"
	"time"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferenceRepository stores static reference documents (FAQ, site info).
type ReferenceRepository struct {
	pool *pgxpool.Pool
}

func NewReferenceRepository(pool *pgxpool.Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// Upsert creates or replaces a reference document. Re-ingesting an unchanged
// document from the bucket is idempotent.
func (r *ReferenceRepository) Upsert(ctx context.Context, doc *domain.ReferenceDoc) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := r.pool.Exec(ctx,
		`INSERT INTO reference_docs (id, title, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at`,
		doc.ID, doc.Title, doc.Body, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

func (r *ReferenceRepository) GetByID(ctx context.Context, id string) (*domain.ReferenceDoc, error) {
	var doc domain.ReferenceDoc
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, body, created_at, updated_at FROM reference_docs WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Title, &doc.Body, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReferenceNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *ReferenceRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM reference_docs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrReferenceNotFound
	}
	return nil
}

func (r *ReferenceRepository) List(ctx context.Context) ([]*domain.ReferenceDoc, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, body, created_at, updated_at FROM reference_docs ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.ReferenceDoc
	for rows.Next() {
		var doc domain.ReferenceDoc
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}
