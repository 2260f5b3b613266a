package repository

import (
	"context"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can run
// standalone or inside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRepositories exposes transactional repository handles inside WithTx.
type TxRepositories interface {
	Entries() *EntryRepository
	Issues() *IssueRepository
}

// TxRunner provides transactional repositories using a pgx pool. Bulk index
// writes (rebuild, batched upserts) run through it so the whole mutation is
// committed or rolled back as one unit.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	repos := &txRepos{tx: tx}
	if err := fn(repos); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// ReplaceAllEntries swaps the full index contents inside one transaction:
// concurrent searches see the old set until commit, then the new set.
func (r *TxRunner) ReplaceAllEntries(ctx context.Context, entries []*domain.IndexedEntry) error {
	return r.WithTx(ctx, func(repos TxRepositories) error {
		return repos.Entries().ReplaceAll(ctx, entries)
	})
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) Entries() *EntryRepository {
	return NewEntryRepositoryWithTx(r.tx)
}

func (r *txRepos) Issues() *IssueRepository {
	return NewIssueRepositoryWithTx(r.tx)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
