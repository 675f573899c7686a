package services

import (
	"context"
	"math"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/constants"
	"github.com/storably/storage-service/internal/dtos"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/repositories"
	"github.com/storably/storage-service/internal/utils"
)

type UnitService struct {
	unitRepo   repositories.UnitRepository
	featRepo   repositories.SecurityFeatureRepository
	userRepo   repositories.UserRepository
	rentalRepo repositories.RentalRepository
}

func NewUnitService(
	unitRepo repositories.UnitRepository,
	featRepo repositories.SecurityFeatureRepository,
	userRepo repositories.UserRepository,
	rentalRepo repositories.RentalRepository,
) *UnitService {
	return &UnitService{
		unitRepo:   unitRepo,
		featRepo:   featRepo,
		userRepo:   userRepo,
		rentalRepo: rentalRepo,
	}
}

/* ---------- rate computation ---------- */

// ComputeMonthlyRate derives the advertised rate from the base rate and
// the attached features: base_rate * (1 + sum of per-feature premiums).
// Always recomputed from the stored base rate, never reverse-derived.
func ComputeMonthlyRate(baseRate float64, features []models.SecurityFeatureType) float64 {
	premium := 0.0
	for _, f := range features {
		premium += constants.FeatureRatePremiums[f]
	}
	return round2(baseRate * (1 + premium))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

/* ---------- create ---------- */

func (s *UnitService) Create(ctx context.Context, ownerID uuid.UUID, req dtos.UnitCreateRequest) (*dtos.Unit, error) {
	status, err := models.ParseUnitStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if err := validateAddressLink(req.AddressLink); err != nil {
		return nil, err
	}
	if req.RentalDurationDays < constants.MinRentalDurationDays {
		return nil, utils.ErrDurationTooShort
	}

	featureTypes, err := parseFeatureSet(req.SecurityFeatures)
	if err != nil {
		return nil, err
	}

	taken, err := s.unitRepo.NameTakenInCity(ctx, req.Name, req.City, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, utils.ErrUnitNameTaken
	}

	unitID, err := s.unitRepo.NextUnitID(ctx)
	if err != nil {
		return nil, err
	}

	unit := &models.Unit{
		UnitID:             unitID,
		Name:               req.Name,
		Country:            req.Country,
		City:               req.City,
		AddressLink:        req.AddressLink,
		Status:             status,
		SizeSqm:            req.SizeSqm,
		BaseRate:           req.BaseRate,
		MonthlyRate:        ComputeMonthlyRate(req.BaseRate, featureTypes),
		Currency:           strings.ToUpper(req.Currency),
		ClimateControlled:  req.ClimateControlled,
		FloorLevel:         req.FloorLevel,
		RentalDurationDays: req.RentalDurationDays,
		OwnerID:            ownerID,
		SharedUserEmails:   []string{},
	}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, utils.ErrUnitNameTaken
		}
		return nil, err
	}

	features := make([]models.SecurityFeature, 0, len(featureTypes))
	for _, ft := range featureTypes {
		features = append(features, models.SecurityFeature{
			ID:          uuid.New(),
			UnitID:      unitID,
			FeatureType: ft,
		})
	}
	if err := s.featRepo.CreateMany(ctx, features); err != nil {
		return nil, err
	}

	return s.buildUnitDTO(ctx, unit, &ownerID)
}

/* ---------- reads ---------- */

func (s *UnitService) GetByID(ctx context.Context, unitID string, viewerID *uuid.UUID) (*dtos.Unit, error) {
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, utils.ErrNotFound
	}
	return s.buildUnitDTO(ctx, unit, viewerID)
}

func (s *UnitService) ListAll(ctx context.Context, viewerID *uuid.UUID) ([]dtos.Unit, error) {
	units, err := s.unitRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildUnitDTOs(ctx, units, viewerID)
}

func (s *UnitService) ListAvailable(ctx context.Context, viewerID *uuid.UUID) ([]dtos.Unit, error) {
	units, err := s.unitRepo.ListByStatus(ctx, models.UnitStatusVacant)
	if err != nil {
		return nil, err
	}
	return s.buildUnitDTOs(ctx, units, viewerID)
}

// GetUserUnits returns the units a user owns and the units they rent.
func (s *UnitService) GetUserUnits(ctx context.Context, userID uuid.UUID, viewerID *uuid.UUID) (*dtos.UserUnitsResponse, error) {
	owned, err := s.unitRepo.ListByOwnerID(ctx, userID)
	if err != nil {
		return nil, err
	}
	rented, err := s.unitRepo.ListByTenantID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ownedDTOs, err := s.buildUnitDTOs(ctx, owned, viewerID)
	if err != nil {
		return nil, err
	}
	rentedDTOs, err := s.buildUnitDTOs(ctx, rented, viewerID)
	if err != nil {
		return nil, err
	}

	return &dtos.UserUnitsResponse{
		OwnedUnits:  ownedDTOs,
		RentedUnits: rentedDTOs,
	}, nil
}

func (s *UnitService) Search(ctx context.Context, filters repositories.UnitSearchFilters, viewerID *uuid.UUID) ([]dtos.Unit, error) {
	units, err := s.unitRepo.Search(ctx, filters)
	if err != nil {
		return nil, err
	}
	return s.buildUnitDTOs(ctx, units, viewerID)
}

/* ---------- update / delete ---------- */

// Update applies an owner's allow-listed patch. Any change to the base
// rate or the feature set recomputes the monthly rate from the stored
// base rate.
func (s *UnitService) Update(ctx context.Context, unitID string, userID uuid.UUID, req dtos.UnitPatchRequest) (*dtos.Unit, error) {
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, utils.ErrNotFound
	}
	if unit.OwnerID != userID {
		return nil, utils.ErrNotOwner
	}

	var newStatus *models.UnitStatus
	if req.Status != nil {
		st, err := models.ParseUnitStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		newStatus = &st
	}
	if req.AddressLink != nil {
		if err := validateAddressLink(*req.AddressLink); err != nil {
			return nil, err
		}
	}
	if req.RentalDurationDays != nil && *req.RentalDurationDays < constants.MinRentalDurationDays {
		return nil, utils.ErrDurationTooShort
	}

	var newFeatures []models.SecurityFeatureType
	if req.SecurityFeatures != nil {
		newFeatures, err = parseFeatureSet(*req.SecurityFeatures)
		if err != nil {
			return nil, err
		}
	}

	name := unit.Name
	city := unit.City
	if req.Name != nil {
		name = *req.Name
	}
	if req.City != nil {
		city = *req.City
	}
	if req.Name != nil || req.City != nil {
		taken, err := s.unitRepo.NameTakenInCity(ctx, name, city, unitID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, utils.ErrUnitNameTaken
		}
	}

	if req.SecurityFeatures != nil {
		previous, err := s.featRepo.ListByUnitID(ctx, unitID)
		if err != nil {
			return nil, err
		}
		if err := s.featRepo.DeleteByUnitID(ctx, unitID); err != nil {
			return nil, err
		}
		replacement := make([]models.SecurityFeature, 0, len(newFeatures))
		for _, ft := range newFeatures {
			replacement = append(replacement, models.SecurityFeature{
				ID:          uuid.New(),
				UnitID:      unitID,
				FeatureType: ft,
			})
		}
		if err := s.featRepo.CreateMany(ctx, replacement); err != nil {
			// Put the old set back so a failed swap does not strip the
			// unit of its features.
			restored := make([]models.SecurityFeature, 0, len(previous))
			for _, f := range previous {
				restored = append(restored, *f)
			}
			if restoreErr := s.featRepo.CreateMany(ctx, restored); restoreErr != nil {
				utils.Logger.WithError(restoreErr).WithField("unit_id", unitID).
					Error("failed to restore security features after replace failure")
			}
			return nil, err
		}
	}

	err = s.unitRepo.UpdateWithRetry(ctx, unitID, func(u *models.Unit) error {
		if req.Name != nil {
			u.Name = *req.Name
		}
		if req.Country != nil {
			u.Country = *req.Country
		}
		if req.City != nil {
			u.City = *req.City
		}
		if req.AddressLink != nil {
			u.AddressLink = *req.AddressLink
		}
		if newStatus != nil {
			u.Status = *newStatus
		}
		if req.SizeSqm != nil {
			u.SizeSqm = *req.SizeSqm
		}
		if req.BaseRate != nil {
			u.BaseRate = *req.BaseRate
		}
		if req.Currency != nil {
			u.Currency = strings.ToUpper(*req.Currency)
		}
		if req.ClimateControlled != nil {
			u.ClimateControlled = *req.ClimateControlled
		}
		if req.FloorLevel != nil {
			u.FloorLevel = *req.FloorLevel
		}
		if req.RentalDurationDays != nil {
			u.RentalDurationDays = *req.RentalDurationDays
		}
		if req.BaseRate != nil || req.SecurityFeatures != nil {
			feats := newFeatures
			if req.SecurityFeatures == nil {
				attached, err := s.featRepo.ListByUnitID(ctx, unitID)
				if err != nil {
					return err
				}
				feats = featureTypesOf(attached)
			}
			u.MonthlyRate = ComputeMonthlyRate(u.BaseRate, feats)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return s.buildUnitDTO(ctx, updated, &userID)
}

// Delete removes a unit. Only the owner may delete, and only while the
// unit is VACANT.
func (s *UnitService) Delete(ctx context.Context, unitID string, userID uuid.UUID) error {
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return err
	}
	if unit == nil {
		return utils.ErrNotFound
	}
	if unit.OwnerID != userID {
		return utils.ErrNotOwner
	}
	if unit.Status != models.UnitStatusVacant {
		return utils.ErrUnitNotVacant
	}

	if err := s.featRepo.DeleteByUnitID(ctx, unitID); err != nil {
		return err
	}
	return s.unitRepo.Delete(ctx, unitID)
}

/* ---------- security features ---------- */

func (s *UnitService) AddFeature(ctx context.Context, unitID string, userID uuid.UUID, req dtos.FeatureRequest) (*dtos.Unit, error) {
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, utils.ErrNotFound
	}
	if unit.OwnerID != userID {
		return nil, utils.ErrNotOwner
	}

	ft, err := models.ParseSecurityFeatureType(req.FeatureType)
	if err != nil {
		return nil, err
	}

	existing, err := s.featRepo.GetByUnitAndType(ctx, unitID, ft)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.ErrFeatureExists
	}

	if err := s.featRepo.Create(ctx, &models.SecurityFeature{
		ID:          uuid.New(),
		UnitID:      unitID,
		FeatureType: ft,
		Notes:       req.Notes,
	}); err != nil {
		return nil, err
	}

	if err := s.recomputeRate(ctx, unitID); err != nil {
		return nil, err
	}

	updated, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return s.buildUnitDTO(ctx, updated, &userID)
}

// RemoveFeature detaches a feature and recomputes the rate. BASIC is
// permanent: removal is rejected regardless of caller.
func (s *UnitService) RemoveFeature(ctx context.Context, unitID string, userID uuid.UUID, featureType string) (*dtos.Unit, error) {
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, utils.ErrNotFound
	}
	if unit.OwnerID != userID {
		return nil, utils.ErrNotOwner
	}

	ft, err := models.ParseSecurityFeatureType(featureType)
	if err != nil {
		return nil, err
	}
	if ft == models.FeatureBasic {
		return nil, utils.ErrBasicNonRemovable
	}

	existing, err := s.featRepo.GetByUnitAndType(ctx, unitID, ft)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, utils.ErrFeatureNotFound
	}

	if err := s.featRepo.Delete(ctx, existing.ID); err != nil {
		return nil, err
	}

	if err := s.recomputeRate(ctx, unitID); err != nil {
		return nil, err
	}

	updated, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return s.buildUnitDTO(ctx, updated, &userID)
}

func (s *UnitService) recomputeRate(ctx context.Context, unitID string) error {
	attached, err := s.featRepo.ListByUnitID(ctx, unitID)
	if err != nil {
		return err
	}
	feats := featureTypesOf(attached)
	return s.unitRepo.UpdateWithRetry(ctx, unitID, func(u *models.Unit) error {
		u.MonthlyRate = ComputeMonthlyRate(u.BaseRate, feats)
		return nil
	})
}

/* ---------- serialization ---------- */

// buildUnitDTO applies the visibility rule: tenant identity and the
// shared list are only exposed to the owner, the tenant, or a viewer on
// the active rental's shared list.
func (s *UnitService) buildUnitDTO(ctx context.Context, unit *models.Unit, viewerID *uuid.UUID) (*dtos.Unit, error) {
	features, err := s.featRepo.ListByUnitID(ctx, unit.UnitID)
	if err != nil {
		return nil, err
	}
	dto := dtos.NewUnitFromModel(unit, features)

	authorized, err := s.viewerAuthorized(ctx, unit, viewerID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return &dto, nil
	}

	dto.BaseRate = utils.Ptr(unit.BaseRate)
	dto.SharedUserEmails = unit.SharedUserEmails
	if unit.TenantID != nil {
		dto.TenantID = utils.Ptr(unit.TenantID.String())
		tenant, err := s.userRepo.GetByID(ctx, *unit.TenantID)
		if err != nil {
			return nil, err
		}
		if tenant != nil {
			dto.TenantEmail = utils.Ptr(tenant.Email)
		}
	}
	return &dto, nil
}

func (s *UnitService) buildUnitDTOs(ctx context.Context, units []*models.Unit, viewerID *uuid.UUID) ([]dtos.Unit, error) {
	out := make([]dtos.Unit, 0, len(units))
	for _, u := range units {
		dto, err := s.buildUnitDTO(ctx, u, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}

func (s *UnitService) viewerAuthorized(ctx context.Context, unit *models.Unit, viewerID *uuid.UUID) (bool, error) {
	if viewerID == nil {
		return false, nil
	}
	if unit.OwnerID == *viewerID {
		return true, nil
	}
	if unit.TenantID != nil && *unit.TenantID == *viewerID {
		return true, nil
	}

	rental, err := s.rentalRepo.GetActiveByUnitID(ctx, unit.UnitID)
	if err != nil {
		return false, err
	}
	if rental == nil {
		return false, nil
	}
	viewer, err := s.userRepo.GetByID(ctx, *viewerID)
	if err != nil {
		return false, err
	}
	return viewer != nil && rental.HasSharedEmail(viewer.Email), nil
}

/* ---------- helpers ---------- */

// parseFeatureSet validates feature names and guarantees BASIC is in the
// resulting set exactly once.
func parseFeatureSet(raw []string) ([]models.SecurityFeatureType, error) {
	seen := map[models.SecurityFeatureType]bool{models.FeatureBasic: true}
	out := []models.SecurityFeatureType{models.FeatureBasic}
	for _, r := range raw {
		ft, err := models.ParseSecurityFeatureType(r)
		if err != nil {
			return nil, err
		}
		if seen[ft] {
			continue
		}
		seen[ft] = true
		out = append(out, ft)
	}
	return out, nil
}

func featureTypesOf(features []*models.SecurityFeature) []models.SecurityFeatureType {
	out := make([]models.SecurityFeatureType, 0, len(features))
	for _, f := range features {
		out = append(out, f.FeatureType)
	}
	return out
}

// validateAddressLink enforces the Google-Maps-URL shape for the unit's
// map link.
func validateAddressLink(link string) error {
	u, err := url.Parse(link)
	if err != nil || u.Scheme != "https" {
		return utils.ErrInvalidAddURL
	}
	host := strings.ToLower(u.Host)
	switch {
	case host == "maps.google.com", strings.HasSuffix(host, ".maps.google.com"):
		return nil
	case (host == "google.com" || strings.HasSuffix(host, ".google.com")) && strings.HasPrefix(u.Path, "/maps"):
		return nil
	case host == "goo.gl" && strings.HasPrefix(u.Path, "/maps"):
		return nil
	case host == "maps.app.goo.gl":
		return nil
	default:
		return utils.ErrInvalidAddURL
	}
}
