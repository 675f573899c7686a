package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/storably/storage-service/internal/models"
)

/* ───────────── public interface ───────────── */

type SecurityFeatureRepository interface {
	Create(ctx context.Context, f *models.SecurityFeature) error
	CreateMany(ctx context.Context, list []models.SecurityFeature) error

	ListByUnitID(ctx context.Context, unitID string) ([]*models.SecurityFeature, error)
	GetByUnitAndType(ctx context.Context, unitID string, ft models.SecurityFeatureType) (*models.SecurityFeature, error)

	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUnitID(ctx context.Context, unitID string) error
}

/* ───────────── implementation ───────────── */

type securityFeatureRepo struct {
	db DB
}

func NewSecurityFeatureRepository(db DB) SecurityFeatureRepository {
	return &securityFeatureRepo{db: db}
}

func (r *securityFeatureRepo) Create(ctx context.Context, f *models.SecurityFeature) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO security_features (id, unit_id, feature_type, notes, created_at)
		VALUES ($1,$2,$3,$4, NOW())
	`, f.ID, f.UnitID, string(f.FeatureType), f.Notes)
	return err
}

func (r *securityFeatureRepo) CreateMany(ctx context.Context, list []models.SecurityFeature) error {
	for i := range list {
		if err := r.Create(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *securityFeatureRepo) ListByUnitID(ctx context.Context, unitID string) ([]*models.SecurityFeature, error) {
	rows, err := r.db.Query(ctx, baseSelectFeature()+" WHERE unit_id=$1 ORDER BY created_at", unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SecurityFeature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *securityFeatureRepo) GetByUnitAndType(
	ctx context.Context,
	unitID string,
	ft models.SecurityFeatureType,
) (*models.SecurityFeature, error) {
	row := r.db.QueryRow(ctx, baseSelectFeature()+" WHERE unit_id=$1 AND feature_type=$2", unitID, string(ft))
	return scanFeature(row)
}

func (r *securityFeatureRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM security_features WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *securityFeatureRepo) DeleteByUnitID(ctx context.Context, unitID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM security_features WHERE unit_id=$1`, unitID)
	return err
}

/* ---------- internals ---------- */

func baseSelectFeature() string {
	return `
		SELECT id, unit_id, feature_type, notes, created_at
		FROM security_features`
}

func scanFeature(row pgx.Row) (*models.SecurityFeature, error) {
	var (
		f  models.SecurityFeature
		ft string
	)
	if err := row.Scan(&f.ID, &f.UnitID, &ft, &f.Notes, &f.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	f.FeatureType = models.SecurityFeatureType(ft)
	return &f, nil
}
