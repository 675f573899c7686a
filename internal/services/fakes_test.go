package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/repositories"
)

/* ---------- users ---------- */

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ListAll(_ context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("user %s not found", u.ID)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

/* ---------- units ---------- */

type fakeUnitRepo struct {
	units map[string]*models.Unit
	next  int
}

func newFakeUnitRepo() *fakeUnitRepo {
	return &fakeUnitRepo{units: map[string]*models.Unit{}}
}

func (r *fakeUnitRepo) Create(_ context.Context, u *models.Unit) error {
	cp := *u
	cp.RowVersion = 1
	r.units[u.UnitID] = &cp
	return nil
}

func (r *fakeUnitRepo) GetByID(_ context.Context, unitID string) (*models.Unit, error) {
	u, ok := r.units[unitID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUnitRepo) ListAll(_ context.Context) ([]*models.Unit, error) {
	return r.filter(func(*models.Unit) bool { return true }), nil
}

func (r *fakeUnitRepo) ListByStatus(_ context.Context, status models.UnitStatus) ([]*models.Unit, error) {
	return r.filter(func(u *models.Unit) bool { return u.Status == status }), nil
}

func (r *fakeUnitRepo) ListByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*models.Unit, error) {
	return r.filter(func(u *models.Unit) bool { return u.OwnerID == ownerID }), nil
}

func (r *fakeUnitRepo) ListByTenantID(_ context.Context, tenantID uuid.UUID) ([]*models.Unit, error) {
	return r.filter(func(u *models.Unit) bool { return u.TenantID != nil && *u.TenantID == tenantID }), nil
}

func (r *fakeUnitRepo) Search(_ context.Context, filters repositories.UnitSearchFilters) ([]*models.Unit, error) {
	return r.filter(func(u *models.Unit) bool {
		if filters.City != "" && !strings.EqualFold(u.City, filters.City) {
			return false
		}
		if filters.Status != "" && string(u.Status) != filters.Status {
			return false
		}
		if filters.MinSize != nil && u.SizeSqm < *filters.MinSize {
			return false
		}
		if filters.MaxSize != nil && u.SizeSqm > *filters.MaxSize {
			return false
		}
		if filters.MinRate != nil && u.MonthlyRate < *filters.MinRate {
			return false
		}
		if filters.MaxRate != nil && u.MonthlyRate > *filters.MaxRate {
			return false
		}
		return true
	}), nil
}

func (r *fakeUnitRepo) NameTakenInCity(_ context.Context, name, city, excludeUnitID string) (bool, error) {
	for _, u := range r.units {
		if u.UnitID == excludeUnitID {
			continue
		}
		if strings.EqualFold(u.Name, name) && strings.EqualFold(u.City, city) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUnitRepo) NextUnitID(_ context.Context) (string, error) {
	r.next++
	return fmt.Sprintf("UNIT-%03d", r.next), nil
}

func (r *fakeUnitRepo) Update(_ context.Context, u *models.Unit) error {
	cp := *u
	r.units[u.UnitID] = &cp
	return nil
}

func (r *fakeUnitRepo) UpdateIfVersion(_ context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	current, ok := r.units[u.UnitID]
	if !ok || current.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *u
	cp.RowVersion = expected + 1
	r.units[u.UnitID] = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *fakeUnitRepo) UpdateWithRetry(ctx context.Context, unitID string, mutate func(*models.Unit) error) error {
	u, ok := r.units[unitID]
	if !ok {
		return fmt.Errorf("unit %s not found", unitID)
	}
	cp := *u
	if err := mutate(&cp); err != nil {
		return err
	}
	cp.RowVersion++
	r.units[unitID] = &cp
	return nil
}

func (r *fakeUnitRepo) Delete(_ context.Context, unitID string) error {
	delete(r.units, unitID)
	return nil
}

func (r *fakeUnitRepo) CountRentedByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	n := 0
	for _, u := range r.units {
		if u.OwnerID == ownerID && u.TenantID != nil {
			n++
		}
	}
	return n, nil
}

func (r *fakeUnitRepo) filter(keep func(*models.Unit) bool) []*models.Unit {
	out := []*models.Unit{}
	for _, u := range r.units {
		if keep(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out
}

/* ---------- security features ---------- */

type fakeFeatureRepo struct {
	features map[uuid.UUID]*models.SecurityFeature
	// When set, the next CreateMany fails once with this error.
	failNextCreateMany error
}

func newFakeFeatureRepo() *fakeFeatureRepo {
	return &fakeFeatureRepo{features: map[uuid.UUID]*models.SecurityFeature{}}
}

func (r *fakeFeatureRepo) Create(_ context.Context, f *models.SecurityFeature) error {
	cp := *f
	r.features[f.ID] = &cp
	return nil
}

func (r *fakeFeatureRepo) CreateMany(ctx context.Context, list []models.SecurityFeature) error {
	if r.failNextCreateMany != nil {
		err := r.failNextCreateMany
		r.failNextCreateMany = nil
		return err
	}
	for i := range list {
		if err := r.Create(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeFeatureRepo) ListByUnitID(_ context.Context, unitID string) ([]*models.SecurityFeature, error) {
	out := []*models.SecurityFeature{}
	for _, f := range r.features {
		if f.UnitID == unitID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeatureType < out[j].FeatureType })
	return out, nil
}

func (r *fakeFeatureRepo) GetByUnitAndType(_ context.Context, unitID string, ft models.SecurityFeatureType) (*models.SecurityFeature, error) {
	for _, f := range r.features {
		if f.UnitID == unitID && f.FeatureType == ft {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFeatureRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.features, id)
	return nil
}

func (r *fakeFeatureRepo) DeleteByUnitID(_ context.Context, unitID string) error {
	for id, f := range r.features {
		if f.UnitID == unitID {
			delete(r.features, id)
		}
	}
	return nil
}

/* ---------- rentals ---------- */

type fakeRentalRepo struct {
	rentals map[uuid.UUID]*models.Rental
	units   *fakeUnitRepo
	// When set, the next Create fails once with this error.
	failNextCreate error
}

func newFakeRentalRepo(units *fakeUnitRepo) *fakeRentalRepo {
	return &fakeRentalRepo{rentals: map[uuid.UUID]*models.Rental{}, units: units}
}

func (r *fakeRentalRepo) Create(_ context.Context, m *models.Rental) error {
	if r.failNextCreate != nil {
		err := r.failNextCreate
		r.failNextCreate = nil
		return err
	}
	cp := *m
	cp.CreatedAt = time.Now().UTC()
	r.rentals[m.ID] = &cp
	return nil
}

func (r *fakeRentalRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Rental, error) {
	m, ok := r.rentals[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeRentalRepo) GetActiveByUnitID(_ context.Context, unitID string) (*models.Rental, error) {
	for _, m := range r.rentals {
		if m.UnitID == unitID && m.Status == models.RentalStatusActive {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRentalRepo) ListByTenantID(_ context.Context, tenantID uuid.UUID) ([]*models.Rental, error) {
	return r.filter(func(m *models.Rental) bool { return m.TenantID == tenantID }), nil
}

func (r *fakeRentalRepo) ListByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*models.Rental, error) {
	return r.filter(func(m *models.Rental) bool { return r.ownerOf(m.UnitID) == ownerID }), nil
}

func (r *fakeRentalRepo) ListByUnitID(_ context.Context, unitID string) ([]*models.Rental, error) {
	out := r.filter(func(m *models.Rental) bool { return m.UnitID == unitID })
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *fakeRentalRepo) ListExpiringAsTenant(_ context.Context, tenantID uuid.UUID, until time.Time) ([]*models.Rental, error) {
	now := time.Now().UTC()
	return r.filter(func(m *models.Rental) bool {
		return m.TenantID == tenantID && m.Status == models.RentalStatusActive &&
			m.EndDate.After(now) && m.EndDate.Before(until)
	}), nil
}

func (r *fakeRentalRepo) ListExpiringAsOwner(_ context.Context, ownerID uuid.UUID, until time.Time) ([]*models.Rental, error) {
	now := time.Now().UTC()
	return r.filter(func(m *models.Rental) bool {
		return r.ownerOf(m.UnitID) == ownerID && m.Status == models.RentalStatusActive &&
			m.EndDate.After(now) && m.EndDate.Before(until)
	}), nil
}

func (r *fakeRentalRepo) Update(_ context.Context, m *models.Rental) error {
	if _, ok := r.rentals[m.ID]; !ok {
		return fmt.Errorf("rental %s not found", m.ID)
	}
	cp := *m
	r.rentals[m.ID] = &cp
	return nil
}

func (r *fakeRentalRepo) HasActiveForUser(_ context.Context, userID uuid.UUID) (bool, error) {
	for _, m := range r.rentals {
		if m.Status != models.RentalStatusActive {
			continue
		}
		if m.TenantID == userID || r.ownerOf(m.UnitID) == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRentalRepo) StatsAsTenant(_ context.Context, tenantID uuid.UUID) (*repositories.TenantStats, error) {
	stats := &repositories.TenantStats{}
	var totalDays float64
	for _, m := range r.rentals {
		if m.TenantID != tenantID {
			continue
		}
		stats.TotalRentals++
		if m.Status == models.RentalStatusActive {
			stats.ActiveRentals++
		}
		stats.TotalSpent += m.TotalCost
		totalDays += m.EndDate.Sub(m.StartDate).Hours() / 24
	}
	if stats.TotalRentals > 0 {
		stats.AverageDuration = totalDays / float64(stats.TotalRentals)
	}
	return stats, nil
}

func (r *fakeRentalRepo) StatsAsOwner(_ context.Context, ownerID uuid.UUID) (*repositories.OwnerStats, error) {
	stats := &repositories.OwnerStats{}
	units := map[string]bool{}
	for _, m := range r.rentals {
		if r.ownerOf(m.UnitID) != ownerID {
			continue
		}
		stats.TotalRentals++
		if m.Status == models.RentalStatusActive {
			stats.ActiveRentals++
		}
		stats.TotalRevenue += m.TotalCost
		units[m.UnitID] = true
	}
	stats.UnitsRented = len(units)
	return stats, nil
}

func (r *fakeRentalRepo) ownerOf(unitID string) uuid.UUID {
	if u, ok := r.units.units[unitID]; ok {
		return u.OwnerID
	}
	return uuid.Nil
}

func (r *fakeRentalRepo) filter(keep func(*models.Rental) bool) []*models.Rental {
	out := []*models.Rental{}
	for _, m := range r.rentals {
		if keep(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

/* ---------- token blacklist ---------- */

type fakeTokenRepo struct {
	entries map[string]time.Time
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{entries: map[string]time.Time{}}
}

func (r *fakeTokenRepo) BlacklistToken(_ context.Context, t *models.BlacklistedToken) error {
	r.entries[t.Token] = t.ExpiresAt
	return nil
}

func (r *fakeTokenRepo) IsTokenBlacklisted(_ context.Context, token string) (bool, error) {
	exp, ok := r.entries[token]
	return ok && exp.After(time.Now().UTC()), nil
}

func (r *fakeTokenRepo) CleanupExpired(_ context.Context) (int64, error) {
	var removed int64
	now := time.Now().UTC()
	for token, exp := range r.entries {
		if !exp.After(now) {
			delete(r.entries, token)
			removed++
		}
	}
	return removed, nil
}
