package repository

import (
	"context"
	"errors"
	"time"

	"github.com/civic-pulse/pulsecore/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrgRepository reads and writes organization collaborator records. The index
// mirrors the active subset of this table; it never owns the records.
type OrgRepository struct {
	pool *pgxpool.Pool
}

func NewOrgRepository(pool *pgxpool.Pool) *OrgRepository {
	return &OrgRepository{pool: pool}
}

const orgColumns = `id, name, description, categories, area, city, district, state, pincode,
	 latitude, longitude, active, created_at, updated_at`

func (r *OrgRepository) Create(ctx context.Context, org *domain.Organization) error {
	now := time.Now().UTC()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = now

	var lat, lng *float64
	if org.Location != nil {
		lat = &org.Location.Latitude
		lng = &org.Location.Longitude
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO organizations (`+orgColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		org.ID, org.Name, org.Description, org.Categories,
		nullableString(org.Address.Area), nullableString(org.Address.City),
		nullableString(org.Address.District), nullableString(org.Address.State),
		nullableString(org.Address.Pincode),
		lat, lng, org.Active, org.CreatedAt, org.UpdatedAt,
	)
	return err
}

func (r *OrgRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	org, err := scanOrg(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, err
	}
	return org, nil
}

func (r *OrgRepository) Update(ctx context.Context, org *domain.Organization) error {
	org.UpdatedAt = time.Now().UTC()

	var lat, lng *float64
	if org.Location != nil {
		lat = &org.Location.Latitude
		lng = &org.Location.Longitude
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE organizations SET
			name = $1, description = $2, categories = $3,
			area = $4, city = $5, district = $6, state = $7, pincode = $8,
			latitude = $9, longitude = $10, active = $11, updated_at = $12
		 WHERE id = $13`,
		org.Name, org.Description, org.Categories,
		nullableString(org.Address.Area), nullableString(org.Address.City),
		nullableString(org.Address.District), nullableString(org.Address.State),
		nullableString(org.Address.Pincode),
		lat, lng, org.Active, org.UpdatedAt, org.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

// SetActive flips the active flag. Deactivation keeps the source record; the
// lifecycle service removes the index entry separately.
func (r *OrgRepository) SetActive(ctx context.Context, id string, active bool) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE organizations SET active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

// ListActive returns all organizations with active = true, the exact set the
// index must mirror.
func (r *OrgRepository) ListActive(ctx context.Context) ([]*domain.Organization, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE active = true ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrgRows(rows)
}

func (r *OrgRepository) List(ctx context.Context) ([]*domain.Organization, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orgColumns+` FROM organizations ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrgRows(rows)
}

func scanOrg(row pgx.Row) (*domain.Organization, error) {
	var org domain.Organization
	var area, city, district, state, pincode *string
	var lat, lng *float64
	err := row.Scan(
		&org.ID, &org.Name, &org.Description, &org.Categories,
		&area, &city, &district, &state, &pincode,
		&lat, &lng, &org.Active, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	org.Address = addressFromColumns(area, city, district, state, pincode)
	if lat != nil && lng != nil {
		org.Location = &domain.GeoPoint{Latitude: *lat, Longitude: *lng}
	}
	return &org, nil
}

func scanOrgRows(rows pgx.Rows) ([]*domain.Organization, error) {
	var orgs []*domain.Organization
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func addressFromColumns(area, city, district, state, pincode *string) domain.Address {
	var addr domain.Address
	if area != nil {
		addr.Area = *area
	}
	if city != nil {
		addr.City = *city
	}
	if district != nil {
		addr.District = *district
	}
	if state != nil {
		addr.State = *state
	}
	if pincode != nil {
		addr.Pincode = *pincode
	}
	return addr
}
