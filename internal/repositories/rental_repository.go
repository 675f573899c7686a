package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/storably/storage-service/internal/models"
)

/* ───────────── public interface ───────────── */

// TenantStats aggregates a user's rentals as tenant.
type TenantStats struct {
	TotalRentals    int     `json:"total_rentals"`
	ActiveRentals   int     `json:"active_rentals"`
	TotalSpent      float64 `json:"total_spent"`
	AverageDuration float64 `json:"average_duration"`
}

// OwnerStats aggregates rentals joined through a user's owned units.
type OwnerStats struct {
	TotalRentals  int     `json:"total_rentals"`
	ActiveRentals int     `json:"active_rentals"`
	TotalRevenue  float64 `json:"total_revenue"`
	UnitsRented   int     `json:"units_rented"`
}

type RentalRepository interface {
	Create(ctx context.Context, r *models.Rental) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	GetActiveByUnitID(ctx context.Context, unitID string) (*models.Rental, error)
	ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.Rental, error)
	ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Rental, error)
	ListByUnitID(ctx context.Context, unitID string) ([]*models.Rental, error)
	ListExpiringAsTenant(ctx context.Context, tenantID uuid.UUID, until time.Time) ([]*models.Rental, error)
	ListExpiringAsOwner(ctx context.Context, ownerID uuid.UUID, until time.Time) ([]*models.Rental, error)

	Update(ctx context.Context, r *models.Rental) error

	HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	StatsAsTenant(ctx context.Context, tenantID uuid.UUID) (*TenantStats, error)
	StatsAsOwner(ctx context.Context, ownerID uuid.UUID) (*OwnerStats, error)
}

/* ───────────── implementation ───────────── */

type rentalRepo struct {
	db DB
}

func NewRentalRepository(db DB) RentalRepository {
	return &rentalRepo{db: db}
}

/* ---------- create ---------- */

func (r *rentalRepo) Create(ctx context.Context, m *models.Rental) error {
	shared, err := json.Marshal(m.SharedUserEmails)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO rentals (
			id, unit_id, tenant_id, start_date, end_date,
			monthly_rate, status, shared_user_emails, total_cost,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, NOW(), NULL)
	`,
		m.ID, m.UnitID, m.TenantID, m.StartDate, m.EndDate,
		m.MonthlyRate, string(m.Status), string(shared), m.TotalCost,
	)
	return err
}

/* ---------- reads ---------- */

func (r *rentalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	row := r.db.QueryRow(ctx, baseSelectRental()+" WHERE id=$1", id)
	return scanRental(row)
}

// GetActiveByUnitID returns the unit's active rental, nil if the unit is
// not currently rented. At most one rental per unit is active at a time.
func (r *rentalRepo) GetActiveByUnitID(ctx context.Context, unitID string) (*models.Rental, error) {
	row := r.db.QueryRow(ctx, baseSelectRental()+" WHERE unit_id=$1 AND status='active' LIMIT 1", unitID)
	return scanRental(row)
}

func (r *rentalRepo) ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.Rental, error) {
	rows, err := r.db.Query(ctx, baseSelectRental()+" WHERE tenant_id=$1 ORDER BY created_at DESC", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRentals(rows)
}

// ListByOwnerID joins through units: every rental on a unit the user owns.
func (r *rentalRepo) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Rental, error) {
	rows, err := r.db.Query(ctx, baseSelectRental()+`
		JOIN units u ON u.unit_id = rentals.unit_id
		WHERE u.owner_id=$1 ORDER BY rentals.created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRentals(rows)
}

func (r *rentalRepo) ListByUnitID(ctx context.Context, unitID string) ([]*models.Rental, error) {
	rows, err := r.db.Query(ctx, baseSelectRental()+" WHERE unit_id=$1 ORDER BY start_date DESC", unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRentals(rows)
}

func (r *rentalRepo) ListExpiringAsTenant(ctx context.Context, tenantID uuid.UUID, until time.Time) ([]*models.Rental, error) {
	rows, err := r.db.Query(ctx, baseSelectRental()+`
		WHERE tenant_id=$1 AND status='active' AND end_date >= NOW() AND end_date <= $2
		ORDER BY end_date`, tenantID, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRentals(rows)
}

func (r *rentalRepo) ListExpiringAsOwner(ctx context.Context, ownerID uuid.UUID, until time.Time) ([]*models.Rental, error) {
	rows, err := r.db.Query(ctx, baseSelectRental()+`
		JOIN units u ON u.unit_id = rentals.unit_id
		WHERE u.owner_id=$1 AND rentals.status='active'
			AND rentals.end_date >= NOW() AND rentals.end_date <= $2
		ORDER BY rentals.end_date`, ownerID, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRentals(rows)
}

/* ---------- update ---------- */

func (r *rentalRepo) Update(ctx context.Context, m *models.Rental) error {
	shared, err := json.Marshal(m.SharedUserEmails)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE rentals SET
			start_date=$1, end_date=$2, status=$3,
			shared_user_emails=$4, total_cost=$5, updated_at=NOW()
		WHERE id=$6
	`, m.StartDate, m.EndDate, string(m.Status), string(shared), m.TotalCost, m.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

/* ---------- aggregates ---------- */

// HasActiveForUser reports whether the user participates in any active
// rental, as tenant or as owner of the rented unit.
func (r *rentalRepo) HasActiveForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM rentals
			JOIN units u ON u.unit_id = rentals.unit_id
			WHERE rentals.status='active'
				AND (rentals.tenant_id=$1 OR u.owner_id=$1)
		)
	`, userID).Scan(&exists)
	return exists, err
}

func (r *rentalRepo) StatsAsTenant(ctx context.Context, tenantID uuid.UUID) (*TenantStats, error) {
	var s TenantStats
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status='active'),
			COALESCE(SUM(total_cost), 0),
			COALESCE(AVG(EXTRACT(EPOCH FROM (end_date - start_date)) / 86400.0), 0)
		FROM rentals
		WHERE tenant_id=$1
	`, tenantID).Scan(&s.TotalRentals, &s.ActiveRentals, &s.TotalSpent, &s.AverageDuration)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *rentalRepo) StatsAsOwner(ctx context.Context, ownerID uuid.UUID) (*OwnerStats, error) {
	var s OwnerStats
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE rentals.status='active'),
			COALESCE(SUM(rentals.total_cost), 0),
			COUNT(DISTINCT rentals.unit_id)
		FROM rentals
		JOIN units u ON u.unit_id = rentals.unit_id
		WHERE u.owner_id=$1
	`, ownerID).Scan(&s.TotalRentals, &s.ActiveRentals, &s.TotalRevenue, &s.UnitsRented)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

/* ---------- internals ---------- */

func baseSelectRental() string {
	return `
		SELECT rentals.id, rentals.unit_id, rentals.tenant_id,
			rentals.start_date, rentals.end_date, rentals.monthly_rate,
			rentals.status, rentals.shared_user_emails, rentals.total_cost,
			rentals.created_at, rentals.updated_at
		FROM rentals`
}

func scanRental(row pgx.Row) (*models.Rental, error) {
	var (
		m      models.Rental
		status string
		shared string
	)
	if err := row.Scan(
		&m.ID, &m.UnitID, &m.TenantID,
		&m.StartDate, &m.EndDate, &m.MonthlyRate,
		&status, &shared, &m.TotalCost,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m.Status = models.RentalStatus(status)
	if shared != "" {
		if err := json.Unmarshal([]byte(shared), &m.SharedUserEmails); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func scanRentals(rows pgx.Rows) ([]*models.Rental, error) {
	var out []*models.Rental
	for rows.Next() {
		m, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
