//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/civic-pulse/pulsecore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceRepository_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewReferenceRepository(pool)

	doc := &domain.ReferenceDoc{
		ID:    "faq",
		Title: "How reporting works",
		Body:  "Describe the issue and submit.",
	}
	require.NoError(t, repo.Upsert(ctx, doc))
	require.NoError(t, repo.Upsert(ctx, doc))

	doc.Body = "Describe the issue, add a photo, and submit."
	require.NoError(t, repo.Upsert(ctx, doc))

	got, err := repo.GetByID(ctx, "faq")
	require.NoError(t, err)
	assert.Equal(t, "How reporting works", got.Title)
	assert.Equal(t, "Describe the issue, add a photo, and submit.", got.Body)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReferenceRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewReferenceRepository(pool)

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestReferenceRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewReferenceRepository(pool)

	doc := &domain.ReferenceDoc{ID: "old-policy", Title: "Old policy", Body: "Retired."}
	require.NoError(t, repo.Upsert(ctx, doc))

	require.NoError(t, repo.Delete(ctx, "old-policy"))

	_, err := repo.GetByID(ctx, "old-policy")
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)

	err = repo.Delete(ctx, "old-policy")
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}
