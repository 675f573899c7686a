package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/storably/storage-service/internal/constants"
	"github.com/storably/storage-service/internal/models"
)

/* ───────────── public interface ───────────── */

// UnitSearchFilters are combined conjunctively. Zero values mean "no
// constraint"; the feature list requires every listed feature.
type UnitSearchFilters struct {
	City       string
	FloorLevel string
	Status     string
	MinSize    *float64
	MaxSize    *float64
	MinRate    *float64
	MaxRate    *float64
	Features   []models.SecurityFeatureType
}

type UnitRepository interface {
	Create(ctx context.Context, u *models.Unit) error

	GetByID(ctx context.Context, unitID string) (*models.Unit, error)
	ListAll(ctx context.Context) ([]*models.Unit, error)
	ListByStatus(ctx context.Context, status models.UnitStatus) ([]*models.Unit, error)
	ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Unit, error)
	ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.Unit, error)
	Search(ctx context.Context, filters UnitSearchFilters) ([]*models.Unit, error)

	NameTakenInCity(ctx context.Context, name, city, excludeUnitID string) (bool, error)
	NextUnitID(ctx context.Context) (string, error)

	Update(ctx context.Context, u *models.Unit) error
	UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, unitID string, mutate func(*models.Unit) error) error
	Delete(ctx context.Context, unitID string) error

	CountRentedByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

/* ───────────── implementation ───────────── */

type unitRepo struct {
	*BaseVersionedRepo[*models.Unit]
	db DB
}

func NewUnitRepository(db DB) UnitRepository {
	r := &unitRepo{db: db}
	selectStmt := baseSelectUnit() + " WHERE unit_id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanUnit)
	return r
}

/* ---------- create ---------- */

func (r *unitRepo) Create(ctx context.Context, u *models.Unit) error {
	shared, err := json.Marshal(u.SharedUserEmails)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO units (
			unit_id, name, country, city, address_link, status,
			size_sqm, base_rate, monthly_rate, currency,
			climate_controlled, floor_level, rental_duration_days,
			owner_id, tenant_id, shared_user_emails,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16, NOW(), NOW(), 1)
	`,
		u.UnitID, u.Name, u.Country, u.City, u.AddressLink, string(u.Status),
		u.SizeSqm, u.BaseRate, u.MonthlyRate, u.Currency,
		u.ClimateControlled, u.FloorLevel, u.RentalDurationDays,
		u.OwnerID, u.TenantID, string(shared),
	)
	return err
}

/* ---------- reads ---------- */

func (r *unitRepo) GetByID(ctx context.Context, unitID string) (*models.Unit, error) {
	return r.BaseVersionedRepo.GetByID(ctx, unitID)
}

func (r *unitRepo) ListAll(ctx context.Context) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, baseSelectUnit()+" ORDER BY unit_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

func (r *unitRepo) ListByStatus(ctx context.Context, status models.UnitStatus) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, baseSelectUnit()+" WHERE status=$1 ORDER BY unit_id", string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

func (r *unitRepo) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, baseSelectUnit()+" WHERE owner_id=$1 ORDER BY unit_id", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

func (r *unitRepo) ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, baseSelectUnit()+" WHERE tenant_id=$1 ORDER BY unit_id", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

// Search builds a conjunctive WHERE clause; each requested feature adds an
// EXISTS subquery against security_features.
func (r *unitRepo) Search(ctx context.Context, filters UnitSearchFilters) ([]*models.Unit, error) {
	var qb strings.Builder
	var args []any
	idx := 1

	qb.WriteString(baseSelectUnit())
	qb.WriteString(" WHERE TRUE")

	addCond := func(cond string, val any) {
		qb.WriteString(fmt.Sprintf(" AND "+cond, idx))
		args = append(args, val)
		idx++
	}

	if filters.City != "" {
		addCond("city ILIKE $%d", "%"+filters.City+"%")
	}
	if filters.FloorLevel != "" {
		addCond("floor_level ILIKE $%d", "%"+filters.FloorLevel+"%")
	}
	if filters.Status != "" {
		addCond("status ILIKE $%d", "%"+filters.Status+"%")
	}
	if filters.MinSize != nil {
		addCond("size_sqm >= $%d", *filters.MinSize)
	}
	if filters.MaxSize != nil {
		addCond("size_sqm <= $%d", *filters.MaxSize)
	}
	if filters.MinRate != nil {
		addCond("monthly_rate >= $%d", *filters.MinRate)
	}
	if filters.MaxRate != nil {
		addCond("monthly_rate <= $%d", *filters.MaxRate)
	}
	for _, f := range filters.Features {
		addCond("EXISTS (SELECT 1 FROM security_features sf WHERE sf.unit_id = units.unit_id AND sf.feature_type = $%d)", string(f))
	}

	qb.WriteString(" ORDER BY unit_id")

	rows, err := r.db.Query(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

func (r *unitRepo) NameTakenInCity(ctx context.Context, name, city, excludeUnitID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM units
			WHERE LOWER(name)=LOWER($1) AND LOWER(city)=LOWER($2) AND unit_id <> $3
		)
	`, name, city, excludeUnitID).Scan(&exists)
	return exists, err
}

// NextUnitID returns the next sequential UNIT-NNN identifier.
func (r *unitRepo) NextUnitID(ctx context.Context) (string, error) {
	var max int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(unit_id FROM 6) AS INTEGER)), 0) FROM units
	`).Scan(&max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", constants.UnitIDPrefix, max+1), nil
}

/* ---------- update / delete ---------- */

func (r *unitRepo) Update(ctx context.Context, u *models.Unit) error {
	_, err := r.update(ctx, u, false, 0)
	return err
}

func (r *unitRepo) UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	return r.update(ctx, u, true, expected)
}

func (r *unitRepo) UpdateWithRetry(ctx context.Context, unitID string, mutate func(*models.Unit) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, unitID, mutate, r.UpdateIfVersion)
}

func (r *unitRepo) update(ctx context.Context, u *models.Unit, check bool, expected int64) (pgconn.CommandTag, error) {
	shared, err := json.Marshal(u.SharedUserEmails)
	if err != nil {
		return nil, err
	}
	sql := `
		UPDATE units SET
			name=$1, country=$2, city=$3, address_link=$4, status=$5,
			size_sqm=$6, base_rate=$7, monthly_rate=$8, currency=$9,
			climate_controlled=$10, floor_level=$11, rental_duration_days=$12,
			tenant_id=$13, shared_user_emails=$14, updated_at=NOW()
	`
	args := []any{
		u.Name, u.Country, u.City, u.AddressLink, string(u.Status),
		u.SizeSqm, u.BaseRate, u.MonthlyRate, u.Currency,
		u.ClimateControlled, u.FloorLevel, u.RentalDurationDays,
		u.TenantID, string(shared),
	}
	if check {
		sql += `, row_version=row_version+1 WHERE unit_id=$15 AND row_version=$16`
		args = append(args, u.UnitID, expected)
	} else {
		sql += ` WHERE unit_id=$15`
		args = append(args, u.UnitID)
	}
	return r.db.Exec(ctx, sql, args...)
}

func (r *unitRepo) Delete(ctx context.Context, unitID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM units WHERE unit_id=$1`, unitID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountRentedByOwner counts the owner's units with a sitting tenant.
func (r *unitRepo) CountRentedByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM units WHERE owner_id=$1 AND tenant_id IS NOT NULL
	`, ownerID).Scan(&n)
	return n, err
}

/* ---------- internals ---------- */

func baseSelectUnit() string {
	return `
		SELECT unit_id, name, country, city, address_link, status,
			size_sqm, base_rate, monthly_rate, currency,
			climate_controlled, floor_level, rental_duration_days,
			owner_id, tenant_id, shared_user_emails,
			created_at, updated_at, row_version
		FROM units`
}

func scanUnit(row pgx.Row) (*models.Unit, error) {
	var (
		u      models.Unit
		status string
		shared string
	)
	if err := row.Scan(
		&u.UnitID, &u.Name, &u.Country, &u.City, &u.AddressLink, &status,
		&u.SizeSqm, &u.BaseRate, &u.MonthlyRate, &u.Currency,
		&u.ClimateControlled, &u.FloorLevel, &u.RentalDurationDays,
		&u.OwnerID, &u.TenantID, &shared,
		&u.CreatedAt, &u.UpdatedAt, &u.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.Status = models.UnitStatus(status)
	if shared != "" {
		if err := json.Unmarshal([]byte(shared), &u.SharedUserEmails); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

func scanUnits(rows pgx.Rows) ([]*models.Unit, error) {
	var out []*models.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
