package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/constants"
	"github.com/storably/storage-service/internal/dtos"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/repositories"
	"github.com/storably/storage-service/internal/utils"
)

type RentalService struct {
	rentalRepo repositories.RentalRepository
	unitRepo   repositories.UnitRepository
	userRepo   repositories.UserRepository
}

func NewRentalService(
	rentalRepo repositories.RentalRepository,
	unitRepo repositories.UnitRepository,
	userRepo repositories.UserRepository,
) *RentalService {
	return &RentalService{
		rentalRepo: rentalRepo,
		unitRepo:   unitRepo,
		userRepo:   userRepo,
	}
}

// ComputeTotalCost prices a rental as monthly_rate scaled by its length
// in 30-day billing months.
func ComputeTotalCost(monthlyRate float64, start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	return round2(monthlyRate * days / constants.DaysPerBillingMonth)
}

/* ---------- create ---------- */

// Create rents a unit to the caller. The unit must be VACANT; the
// monthly rate is snapshotted onto the rental so later unit repricing
// does not affect it.
func (s *RentalService) Create(ctx context.Context, tenantID uuid.UUID, req dtos.RentalCreateRequest) (*dtos.Rental, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, utils.ErrInvalidDateRange
	}

	unit, err := s.unitRepo.GetByID(ctx, req.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, utils.ErrNotFound
	}
	if unit.Status != models.UnitStatusVacant {
		return nil, utils.ErrUnitNotVacant
	}

	rental := &models.Rental{
		ID:               uuid.New(),
		UnitID:           unit.UnitID,
		TenantID:         tenantID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		MonthlyRate:      unit.MonthlyRate,
		Status:           models.RentalStatusActive,
		SharedUserEmails: []string{},
		TotalCost:        ComputeTotalCost(unit.MonthlyRate, req.StartDate, req.EndDate),
	}

	// Claim the unit first; the version check keeps two concurrent
	// rentals from both seeing VACANT.
	err = s.unitRepo.UpdateWithRetry(ctx, unit.UnitID, func(u *models.Unit) error {
		if u.Status != models.UnitStatusVacant {
			return utils.ErrUnitNotVacant
		}
		u.Status = models.UnitStatusOccupied
		u.TenantID = &tenantID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		// Release the claim so a failed insert does not strand the unit
		// in OCCUPIED with no rental behind it.
		relErr := s.unitRepo.UpdateWithRetry(ctx, unit.UnitID, func(u *models.Unit) error {
			if u.Status == models.UnitStatusOccupied && u.TenantID != nil && *u.TenantID == tenantID {
				u.Status = models.UnitStatusVacant
				u.TenantID = nil
			}
			return nil
		})
		if relErr != nil {
			utils.Logger.WithError(relErr).WithField("unit_id", unit.UnitID).
				Error("failed to release unit after rental create failure")
		}
		return nil, err
	}
	return s.buildRentalDTO(ctx, rental, unit, &tenantID)
}

/* ---------- reads ---------- */

func (s *RentalService) GetByID(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*dtos.Rental, error) {
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental == nil {
		return nil, utils.ErrNotFound
	}
	unit, err := s.unitRepo.GetByID(ctx, rental.UnitID)
	if err != nil {
		return nil, err
	}
	return s.buildRentalDTO(ctx, rental, unit, viewerID)
}

// GetUserRentals returns the caller's rentals split by role.
func (s *RentalService) GetUserRentals(ctx context.Context, userID uuid.UUID) (*dtos.UserRentalsResponse, error) {
	asTenant, err := s.rentalRepo.ListByTenantID(ctx, userID)
	if err != nil {
		return nil, err
	}
	asOwner, err := s.rentalRepo.ListByOwnerID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tenantDTOs, err := s.buildRentalDTOs(ctx, asTenant, &userID)
	if err != nil {
		return nil, err
	}
	ownerDTOs, err := s.buildRentalDTOs(ctx, asOwner, &userID)
	if err != nil {
		return nil, err
	}

	return &dtos.UserRentalsResponse{
		AsTenant: tenantDTOs,
		AsOwner:  ownerDTOs,
	}, nil
}

// GetUnitHistory lists every rental of a unit, newest first. Restricted
// to the owner and the current tenant.
func (s *RentalService) GetUnitHistory(ctx context.Context, unitID string, userID uuid.UUID) ([]dtos.Rental, error) {
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, utils.ErrNotFound
	}
	isOwner := unit.OwnerID == userID
	isTenant := unit.TenantID != nil && *unit.TenantID == userID
	if !isOwner && !isTenant {
		return nil, utils.ErrNotParticipant
	}

	rentals, err := s.rentalRepo.ListByUnitID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	return s.buildRentalDTOs(ctx, rentals, &userID)
}

// GetUpcomingExpirations lists the caller's active rentals ending within
// the expiration window, in both roles.
func (s *RentalService) GetUpcomingExpirations(ctx context.Context, userID uuid.UUID) (*dtos.UserRentalsResponse, error) {
	until := time.Now().UTC().AddDate(0, 0, constants.ExpirationWindowDays)

	asTenant, err := s.rentalRepo.ListExpiringAsTenant(ctx, userID, until)
	if err != nil {
		return nil, err
	}
	asOwner, err := s.rentalRepo.ListExpiringAsOwner(ctx, userID, until)
	if err != nil {
		return nil, err
	}

	tenantDTOs, err := s.buildRentalDTOs(ctx, asTenant, &userID)
	if err != nil {
		return nil, err
	}
	ownerDTOs, err := s.buildRentalDTOs(ctx, asOwner, &userID)
	if err != nil {
		return nil, err
	}

	return &dtos.UserRentalsResponse{
		AsTenant: tenantDTOs,
		AsOwner:  ownerDTOs,
	}, nil
}

func (s *RentalService) GetStatistics(ctx context.Context, userID uuid.UUID) (*dtos.RentalStatisticsResponse, error) {
	tenantStats, err := s.rentalRepo.StatsAsTenant(ctx, userID)
	if err != nil {
		return nil, err
	}
	ownerStats, err := s.rentalRepo.StatsAsOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dtos.RentalStatisticsResponse{
		AsTenant: dtos.TenantStatistics{
			TotalRentals:    tenantStats.TotalRentals,
			ActiveRentals:   tenantStats.ActiveRentals,
			TotalSpent:      round2(tenantStats.TotalSpent),
			AverageDuration: round2(tenantStats.AverageDuration),
		},
		AsOwner: dtos.OwnerStatistics{
			TotalRentals:  ownerStats.TotalRentals,
			ActiveRentals: ownerStats.ActiveRentals,
			TotalRevenue:  round2(ownerStats.TotalRevenue),
			UnitsRented:   ownerStats.UnitsRented,
		},
	}, nil
}

/* ---------- update / terminate / extend ---------- */

// Update patches end_date and status. Tenant and owner may both call
// it. Setting status to terminated runs the full termination side
// effects.
func (s *RentalService) Update(ctx context.Context, id uuid.UUID, userID uuid.UUID, req dtos.RentalPatchRequest) (*dtos.Rental, error) {
	rental, unit, err := s.loadParticipantRental(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		status, err := models.ParseRentalStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		if status == models.RentalStatusTerminated {
			return s.terminate(ctx, rental, unit, userID, req.EndDate)
		}
		// Terminated and expired are terminal states; the only status a
		// patch may move a rental to is terminated, handled above.
		if status != rental.Status {
			return nil, utils.ErrRentalNotActive
		}
	}
	if req.EndDate != nil {
		if !req.EndDate.After(rental.StartDate) {
			return nil, utils.ErrInvalidDateRange
		}
		rental.EndDate = *req.EndDate
		rental.TotalCost = ComputeTotalCost(rental.MonthlyRate, rental.StartDate, rental.EndDate)
	}

	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, err
	}
	return s.buildRentalDTO(ctx, rental, unit, &userID)
}

// Terminate ends an active rental now and frees the unit.
func (s *RentalService) Terminate(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*dtos.Rental, error) {
	rental, unit, err := s.loadParticipantRental(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.terminate(ctx, rental, unit, userID, nil)
}

func (s *RentalService) terminate(ctx context.Context, rental *models.Rental, unit *models.Unit, userID uuid.UUID, endDate *time.Time) (*dtos.Rental, error) {
	if rental.Status != models.RentalStatusActive {
		return nil, utils.ErrRentalNotActive
	}

	now := time.Now().UTC()
	rental.Status = models.RentalStatusTerminated
	if endDate != nil {
		rental.EndDate = *endDate
	} else {
		rental.EndDate = now
	}
	rental.TotalCost = ComputeTotalCost(rental.MonthlyRate, rental.StartDate, rental.EndDate)

	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, err
	}

	err := s.unitRepo.UpdateWithRetry(ctx, rental.UnitID, func(u *models.Unit) error {
		u.Status = models.UnitStatusVacant
		u.TenantID = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.buildRentalDTO(ctx, rental, unit, &userID)
}

// Extend pushes the end date out by whole days and reprices the rental
// at its snapshotted monthly rate.
func (s *RentalService) Extend(ctx context.Context, id uuid.UUID, userID uuid.UUID, req dtos.RentalExtendRequest) (*dtos.Rental, error) {
	rental, unit, err := s.loadParticipantRental(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if rental.Status != models.RentalStatusActive {
		return nil, utils.ErrRentalNotActive
	}

	rental.EndDate = rental.EndDate.AddDate(0, 0, req.ExtensionDays)
	rental.TotalCost = ComputeTotalCost(rental.MonthlyRate, rental.StartDate, rental.EndDate)

	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, err
	}
	return s.buildRentalDTO(ctx, rental, unit, &userID)
}

/* ---------- sharing ---------- */

// Share grants a registered user read access to the rental. Tenant only.
func (s *RentalService) Share(ctx context.Context, id uuid.UUID, userID uuid.UUID, req dtos.RentalShareRequest) (*dtos.Rental, error) {
	rental, unit, err := s.loadTenantRental(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if rental.Status != models.RentalStatusActive {
		return nil, utils.ErrRentalNotActive
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	target, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, utils.ErrNotFound
	}
	if rental.HasSharedEmail(email) {
		return nil, utils.ErrAlreadyShared
	}

	rental.SharedUserEmails = append(rental.SharedUserEmails, email)
	if err := s.syncShares(ctx, rental); err != nil {
		return nil, err
	}
	return s.buildRentalDTO(ctx, rental, unit, &userID)
}

// Unshare revokes a previously granted share. Tenant only.
func (s *RentalService) Unshare(ctx context.Context, id uuid.UUID, userID uuid.UUID, email string) (*dtos.Rental, error) {
	rental, unit, err := s.loadTenantRental(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !rental.HasSharedEmail(email) {
		return nil, utils.ErrNotShared
	}

	kept := make([]string, 0, len(rental.SharedUserEmails))
	for _, e := range rental.SharedUserEmails {
		if !strings.EqualFold(e, email) {
			kept = append(kept, e)
		}
	}
	rental.SharedUserEmails = kept

	if err := s.syncShares(ctx, rental); err != nil {
		return nil, err
	}
	return s.buildRentalDTO(ctx, rental, unit, &userID)
}

// syncShares persists the rental's shared list and mirrors it onto the
// unit so unit reads see the same grants.
func (s *RentalService) syncShares(ctx context.Context, rental *models.Rental) error {
	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return err
	}
	return s.unitRepo.UpdateWithRetry(ctx, rental.UnitID, func(u *models.Unit) error {
		u.SharedUserEmails = rental.SharedUserEmails
		return nil
	})
}

/* ---------- access helpers ---------- */

func (s *RentalService) loadParticipantRental(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Rental, *models.Unit, error) {
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rental == nil {
		return nil, nil, utils.ErrNotFound
	}
	unit, err := s.unitRepo.GetByID(ctx, rental.UnitID)
	if err != nil {
		return nil, nil, err
	}
	if rental.TenantID != userID && (unit == nil || unit.OwnerID != userID) {
		return nil, nil, utils.ErrNotParticipant
	}
	return rental, unit, nil
}

func (s *RentalService) loadTenantRental(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Rental, *models.Unit, error) {
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rental == nil {
		return nil, nil, utils.ErrNotFound
	}
	if rental.TenantID != userID {
		return nil, nil, utils.ErrNotTenant
	}
	unit, err := s.unitRepo.GetByID(ctx, rental.UnitID)
	if err != nil {
		return nil, nil, err
	}
	return rental, unit, nil
}

/* ---------- serialization ---------- */

func (s *RentalService) buildRentalDTO(ctx context.Context, rental *models.Rental, unit *models.Unit, viewerID *uuid.UUID) (*dtos.Rental, error) {
	dto := dtos.NewRentalFromModel(rental, unit)

	authorized, err := s.rentalViewerAuthorized(ctx, rental, unit, viewerID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return &dto, nil
	}

	dto.TenantID = utils.Ptr(rental.TenantID.String())
	dto.MonthlyRate = utils.Ptr(rental.MonthlyRate)
	dto.TotalCost = utils.Ptr(rental.TotalCost)
	dto.SharedUserEmails = rental.SharedUserEmails

	tenant, err := s.userRepo.GetByID(ctx, rental.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant != nil {
		dto.Tenant = &dtos.RentalTenant{
			ID:    tenant.ID.String(),
			Name:  strings.TrimSpace(tenant.Name + " " + tenant.Surname),
			Email: tenant.Email,
		}
	}
	return &dto, nil
}

func (s *RentalService) buildRentalDTOs(ctx context.Context, rentals []*models.Rental, viewerID *uuid.UUID) ([]dtos.Rental, error) {
	out := make([]dtos.Rental, 0, len(rentals))
	for _, r := range rentals {
		unit, err := s.unitRepo.GetByID(ctx, r.UnitID)
		if err != nil {
			return nil, err
		}
		dto, err := s.buildRentalDTO(ctx, r, unit, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}

func (s *RentalService) rentalViewerAuthorized(ctx context.Context, rental *models.Rental, unit *models.Unit, viewerID *uuid.UUID) (bool, error) {
	if viewerID == nil {
		return false, nil
	}
	if rental.TenantID == *viewerID {
		return true, nil
	}
	if unit != nil && unit.OwnerID == *viewerID {
		return true, nil
	}
	viewer, err := s.userRepo.GetByID(ctx, *viewerID)
	if err != nil {
		return false, err
	}
	return viewer != nil && rental.HasSharedEmail(viewer.Email), nil
}
