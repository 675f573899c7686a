package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/dtos"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/utils"
	"github.com/stretchr/testify/require"
)

type rentalFixture struct {
	svc        *RentalService
	unitSvc    *UnitService
	unitRepo   *fakeUnitRepo
	userRepo   *fakeUserRepo
	rentalRepo *fakeRentalRepo
	owner      *models.User
	tenant     *models.User
	unitID     string
}

func newRentalFixture(t *testing.T) *rentalFixture {
	t.Helper()
	ctx := context.Background()

	unitRepo := newFakeUnitRepo()
	featRepo := newFakeFeatureRepo()
	userRepo := newFakeUserRepo()
	rentalRepo := newFakeRentalRepo(unitRepo)

	unitSvc := NewUnitService(unitRepo, featRepo, userRepo, rentalRepo)
	svc := NewRentalService(rentalRepo, unitRepo, userRepo)

	owner := &models.User{ID: uuid.New(), Name: "Olga", Surname: "Ferreira", Email: "olga@example.com"}
	tenant := &models.User{ID: uuid.New(), Name: "Tomas", Surname: "Keller", Email: "tomas@example.com"}
	require.NoError(t, userRepo.Create(ctx, owner))
	require.NoError(t, userRepo.Create(ctx, tenant))

	unit, err := unitSvc.Create(ctx, owner.ID, validUnitRequest())
	require.NoError(t, err)

	return &rentalFixture{
		svc:        svc,
		unitSvc:    unitSvc,
		unitRepo:   unitRepo,
		userRepo:   userRepo,
		rentalRepo: rentalRepo,
		owner:      owner,
		tenant:     tenant,
		unitID:     unit.UnitID,
	}
}

func (f *rentalFixture) createRental(t *testing.T, days int) *dtos.Rental {
	t.Helper()
	start := time.Now().UTC().Truncate(time.Hour)
	rental, err := f.svc.Create(context.Background(), f.tenant.ID, dtos.RentalCreateRequest{
		UnitID:    f.unitID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, days),
	})
	require.NoError(t, err)
	return rental
}

func TestCreateRentalOccupiesUnitAndSnapshotsRate(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	rental := f.createRental(t, 60)

	// Monthly rate snapshot: base 100 + 10% CCTV.
	require.NotNil(t, rental.MonthlyRate)
	require.Equal(t, 110.0, *rental.MonthlyRate)
	// 60 days = 2 billing months.
	require.NotNil(t, rental.TotalCost)
	require.Equal(t, 220.0, *rental.TotalCost)
	require.Equal(t, "active", rental.Status)

	unit, err := f.unitRepo.GetByID(ctx, f.unitID)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusOccupied, unit.Status)
	require.NotNil(t, unit.TenantID)
	require.Equal(t, f.tenant.ID, *unit.TenantID)
}

func TestCreateRentalRejectsNonVacantUnit(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	f.createRental(t, 30)

	other := uuid.New()
	start := time.Now().UTC()
	_, err := f.svc.Create(ctx, other, dtos.RentalCreateRequest{
		UnitID:    f.unitID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 30),
	})
	require.ErrorIs(t, err, utils.ErrUnitNotVacant)
}

func TestCreateRentalRejectsInvertedDates(t *testing.T) {
	f := newRentalFixture(t)
	start := time.Now().UTC()

	_, err := f.svc.Create(context.Background(), f.tenant.ID, dtos.RentalCreateRequest{
		UnitID:    f.unitID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, -1),
	})
	require.ErrorIs(t, err, utils.ErrInvalidDateRange)
}

func TestTerminateRentalFreesUnit(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	rental := f.createRental(t, 90)
	id := uuid.MustParse(rental.ID)

	terminated, err := f.svc.Terminate(ctx, id, f.tenant.ID)
	require.NoError(t, err)
	require.Equal(t, "terminated", terminated.Status)
	// End date is pulled in to now, and the cost reflects actual usage.
	require.True(t, terminated.EndDate.Before(time.Now().UTC().Add(time.Minute)))

	unit, err := f.unitRepo.GetByID(ctx, f.unitID)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusVacant, unit.Status)
	require.Nil(t, unit.TenantID)

	// Terminating twice conflicts.
	_, err = f.svc.Terminate(ctx, id, f.tenant.ID)
	require.ErrorIs(t, err, utils.ErrRentalNotActive)
}

func TestTerminatedRentalCannotBeReactivated(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	rental := f.createRental(t, 90)
	id := uuid.MustParse(rental.ID)

	_, err := f.svc.Terminate(ctx, id, f.tenant.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, id, f.tenant.ID, dtos.RentalPatchRequest{
		Status: utils.Ptr("active"),
	})
	require.ErrorIs(t, err, utils.ErrRentalNotActive)

	// The rental stays terminated and the unit stays free.
	stored, err := f.rentalRepo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatusTerminated, stored.Status)

	unit, err := f.unitRepo.GetByID(ctx, f.unitID)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusVacant, unit.Status)
	require.Nil(t, unit.TenantID)
}

func TestCreateRentalReleasesUnitOnInsertFailure(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	f.rentalRepo.failNextCreate = errors.New("insert failed")

	start := time.Now().UTC().Truncate(time.Hour)
	_, err := f.svc.Create(ctx, f.tenant.ID, dtos.RentalCreateRequest{
		UnitID:    f.unitID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 60),
	})
	require.Error(t, err)

	// The claim is rolled back, so the unit can be rented again.
	unit, err := f.unitRepo.GetByID(ctx, f.unitID)
	require.NoError(t, err)
	require.Equal(t, models.UnitStatusVacant, unit.Status)
	require.Nil(t, unit.TenantID)

	f.createRental(t, 60)
}

func TestTerminateByOwnerAllowed(t *testing.T) {
	f := newRentalFixture(t)

	rental := f.createRental(t, 90)
	id := uuid.MustParse(rental.ID)

	_, err := f.svc.Terminate(context.Background(), id, f.owner.ID)
	require.NoError(t, err)
}

func TestRentalParticipantOnlyMutations(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	rental := f.createRental(t, 90)
	id := uuid.MustParse(rental.ID)
	stranger := uuid.New()

	_, err := f.svc.Terminate(ctx, id, stranger)
	require.ErrorIs(t, err, utils.ErrNotParticipant)

	_, err = f.svc.Extend(ctx, id, stranger, dtos.RentalExtendRequest{ExtensionDays: 30})
	require.ErrorIs(t, err, utils.ErrNotParticipant)
}

func TestExtendRentalReprices(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	rental := f.createRental(t, 30)
	id := uuid.MustParse(rental.ID)

	extended, err := f.svc.Extend(ctx, id, f.tenant.ID, dtos.RentalExtendRequest{ExtensionDays: 30})
	require.NoError(t, err)
	require.Equal(t, rental.EndDate.AddDate(0, 0, 30), extended.EndDate)
	require.NotNil(t, extended.TotalCost)
	require.Equal(t, 220.0, *extended.TotalCost)
}

func TestShareAndUnshareRental(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	friend := &models.User{ID: uuid.New(), Name: "Nina", Surname: "Sousa", Email: "nina@example.com"}
	require.NoError(t, f.userRepo.Create(ctx, friend))

	rental := f.createRental(t, 60)
	id := uuid.MustParse(rental.ID)

	shared, err := f.svc.Share(ctx, id, f.tenant.ID, dtos.RentalShareRequest{Email: "Nina@Example.com"})
	require.NoError(t, err)
	require.Contains(t, shared.SharedUserEmails, "nina@example.com")

	// Sharing twice conflicts.
	_, err = f.svc.Share(ctx, id, f.tenant.ID, dtos.RentalShareRequest{Email: "nina@example.com"})
	require.ErrorIs(t, err, utils.ErrAlreadyShared)

	// The shared viewer now sees restricted rental fields.
	view, err := f.svc.GetByID(ctx, id, &friend.ID)
	require.NoError(t, err)
	require.NotNil(t, view.MonthlyRate)

	// And the unit's restricted fields too.
	unitView, err := f.unitSvc.GetByID(ctx, f.unitID, &friend.ID)
	require.NoError(t, err)
	require.NotNil(t, unitView.BaseRate)

	unshared, err := f.svc.Unshare(ctx, id, f.tenant.ID, "nina@example.com")
	require.NoError(t, err)
	require.NotContains(t, unshared.SharedUserEmails, "nina@example.com")

	_, err = f.svc.Unshare(ctx, id, f.tenant.ID, "nina@example.com")
	require.ErrorIs(t, err, utils.ErrNotShared)
}

func TestShareRequiresTenant(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	rental := f.createRental(t, 60)
	id := uuid.MustParse(rental.ID)

	_, err := f.svc.Share(ctx, id, f.owner.ID, dtos.RentalShareRequest{Email: "olga@example.com"})
	require.ErrorIs(t, err, utils.ErrNotTenant)
}

func TestShareUnknownUserRejected(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	rental := f.createRental(t, 60)
	id := uuid.MustParse(rental.ID)

	_, err := f.svc.Share(ctx, id, f.tenant.ID, dtos.RentalShareRequest{Email: "ghost@example.com"})
	require.ErrorIs(t, err, utils.ErrNotFound)
}

func TestRentalVisibilityGating(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	rental := f.createRental(t, 60)
	id := uuid.MustParse(rental.ID)

	publicView, err := f.svc.GetByID(ctx, id, nil)
	require.NoError(t, err)
	require.Nil(t, publicView.MonthlyRate)
	require.Nil(t, publicView.TenantID)
	require.NotNil(t, publicView.Unit)
	require.Equal(t, "Lisbon, Portugal", publicView.Unit.Location)

	ownerView, err := f.svc.GetByID(ctx, id, &f.owner.ID)
	require.NoError(t, err)
	require.NotNil(t, ownerView.MonthlyRate)
	require.NotNil(t, ownerView.Tenant)
	require.Equal(t, "tomas@example.com", ownerView.Tenant.Email)
}

func TestUpcomingExpirationsWindow(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	// Ends in 10 days: inside the 30 day window.
	f.createRental(t, 10)

	resp, err := f.svc.GetUpcomingExpirations(ctx, f.tenant.ID)
	require.NoError(t, err)
	require.Len(t, resp.AsTenant, 1)

	ownerResp, err := f.svc.GetUpcomingExpirations(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, ownerResp.AsOwner, 1)
}

func TestRentalStatistics(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	rental := f.createRental(t, 60)
	_, err := f.svc.Terminate(ctx, uuid.MustParse(rental.ID), f.tenant.ID)
	require.NoError(t, err)

	f.createRental(t, 30)

	stats, err := f.svc.GetStatistics(ctx, f.tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stats.AsTenant.TotalRentals)
	require.Equal(t, 1, stats.AsTenant.ActiveRentals)

	ownerStats, err := f.svc.GetStatistics(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Equal(t, 2, ownerStats.AsOwner.TotalRentals)
	require.Equal(t, 1, ownerStats.AsOwner.UnitsRented)
}

func TestUnitRentalHistoryAccess(t *testing.T) {
	f := newRentalFixture(t)
	ctx := context.Background()

	f.createRental(t, 60)

	history, err := f.svc.GetUnitHistory(ctx, f.unitID, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = f.svc.GetUnitHistory(ctx, f.unitID, uuid.New())
	require.ErrorIs(t, err, utils.ErrNotParticipant)
}

func TestIsExpiredIsComputedNotStored(t *testing.T) {
	now := time.Now().UTC()
	rental := &models.Rental{
		Status:    models.RentalStatusActive,
		StartDate: now.AddDate(0, 0, -60),
		EndDate:   now.AddDate(0, 0, -1),
	}
	require.True(t, rental.IsExpired(now))

	rental.EndDate = now.AddDate(0, 0, 1)
	require.False(t, rental.IsExpired(now))

	// Only active rentals can read as expired.
	rental.Status = models.RentalStatusTerminated
	rental.EndDate = now.AddDate(0, 0, -1)
	require.False(t, rental.IsExpired(now))
}
