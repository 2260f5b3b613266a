package repository

import (
	"context"
	"errors"
	"time"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IssueRepository reads issue report collaborator records and writes back the
// assignment decision. It never mutates severity or other status transitions.
type IssueRepository struct {
	db dbtx
}

func NewIssueRepository(pool *pgxpool.Pool) *IssueRepository {
	return &IssueRepository{db: pool}
}

func NewIssueRepositoryWithTx(tx pgx.Tx) *IssueRepository {
	return &IssueRepository{db: tx}
}

const issueColumns = `id, description, categories, area, city, district, state, pincode,
	 latitude, longitude, severity, status, assigned_org_id, created_at, updated_at`

func (r *IssueRepository) Create(ctx context.Context, issue *domain.IssueReport) error {
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = now
	if issue.Status == "" {
		issue.Status = domain.IssueStatusNotVerified
	}

	var lat, lng *float64
	if issue.Location != nil {
		lat = &issue.Location.Latitude
		lng = &issue.Location.Longitude
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO issue_reports (`+issueColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		issue.ID, issue.Description, issue.Categories,
		nullableString(issue.Address.Area), nullableString(issue.Address.City),
		nullableString(issue.Address.District), nullableString(issue.Address.State),
		nullableString(issue.Address.Pincode),
		lat, lng, issue.Severity, issue.Status, nullableString(issue.AssignedOrgID),
		issue.CreatedAt, issue.UpdatedAt,
	)
	return err
}

func (r *IssueRepository) GetByID(ctx context.Context, id string) (*domain.IssueReport, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+issueColumns+` FROM issue_reports WHERE id = $1`, id)
	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, err
	}
	return issue, nil
}

// MarkVerified records the external verifier's outcome: status moves to
// verified and the severity score is stored. Only not-verified reports
// transition; re-delivery of the same verification is a no-op.
func (r *IssueRepository) MarkVerified(ctx context.Context, id string, severity float64) error {
	if err := domain.ValidateSeverity(severity); err != nil {
		return err
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE issue_reports SET status = $1, severity = $2, updated_at = $3
		 WHERE id = $4 AND status IN ($5, $1)`,
		domain.IssueStatusVerified, severity, time.Now().UTC(), id, domain.IssueStatusNotVerified,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIssueNotFound
	}
	return nil
}

// Assign writes the authoritative match result. The WHERE clause guards the
// at-most-one invariant: only a verified, unassigned report transitions, so a
// second concurrent assignment attempt affects zero rows.
func (r *IssueRepository) Assign(ctx context.Context, issueID, orgID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE issue_reports SET status = $1, assigned_org_id = $2, updated_at = $3
		 WHERE id = $4 AND status = $5 AND assigned_org_id IS NULL`,
		domain.IssueStatusAssigned, orgID, time.Now().UTC(), issueID, domain.IssueStatusVerified,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIssueAlreadyAssigned
	}
	return nil
}

// UpdateStatus applies the remaining externally-driven transitions
// (in-progress, resolved).
func (r *IssueRepository) UpdateStatus(ctx context.Context, id string, status domain.IssueStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE issue_reports SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIssueNotFound
	}
	return nil
}

// ListVerifiedUnassigned is the priority scheduler's backing view: verified
// reports without an assignment, ordered by severity descending and creation
// time ascending so old reports of equal severity are not starved. Read-only.
func (r *IssueRepository) ListVerifiedUnassigned(ctx context.Context, limit int) ([]*domain.IssueReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+issueColumns+` FROM issue_reports
		 WHERE status = $1 AND assigned_org_id IS NULL
		 ORDER BY severity DESC, created_at ASC
		 LIMIT $2`,
		domain.IssueStatusVerified, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssueRows(rows)
}

// ListVerified returns all reports at or past verification, the issue portion
// of a full index rebuild.
func (r *IssueRepository) ListVerified(ctx context.Context) ([]*domain.IssueReport, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+issueColumns+` FROM issue_reports
		 WHERE status IN ($1, $2, $3)
		 ORDER BY created_at ASC`,
		domain.IssueStatusVerified, domain.IssueStatusAssigned, domain.IssueStatusInProgress,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssueRows(rows)
}

func scanIssue(row pgx.Row) (*domain.IssueReport, error) {
	var issue domain.IssueReport
	var area, city, district, state, pincode, assignedOrgID *string
	var lat, lng *float64
	err := row.Scan(
		&issue.ID, &issue.Description, &issue.Categories,
		&area, &city, &district, &state, &pincode,
		&lat, &lng, &issue.Severity, &issue.Status, &assignedOrgID,
		&issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	issue.Address = addressFromColumns(area, city, district, state, pincode)
	if lat != nil && lng != nil {
		issue.Location = &domain.GeoPoint{Latitude: *lat, Longitude: *lng}
	}
	if assignedOrgID != nil {
		issue.AssignedOrgID = *assignedOrgID
	}
	return &issue, nil
}

func scanIssueRows(rows pgx.Rows) ([]*domain.IssueReport, error) {
	var issues []*domain.IssueReport
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}
