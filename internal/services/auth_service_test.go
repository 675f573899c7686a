package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/dtos"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/utils"
	"github.com/stretchr/testify/require"
)

func newAuthFixture() (*AuthService, *fakeUserRepo) {
	userRepo := newFakeUserRepo()
	jwtSvc := NewJWTService([]byte("test-secret"), newFakeTokenRepo())
	return NewAuthService(userRepo, jwtSvc), userRepo
}

func TestRegisterNormalizesInput(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, dtos.RegisterRequest{
		Name:     "  olga ",
		Surname:  "FERREIRA",
		Email:    "Olga@Example.COM",
		Password: "str0ngpassword",
	})
	require.NoError(t, err)
	require.Equal(t, "Olga", user.Name)
	require.Equal(t, "Ferreira", user.Surname)
	require.Equal(t, "olga@example.com", user.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	req := dtos.RegisterRequest{
		Name: "Olga", Surname: "Ferreira",
		Email: "olga@example.com", Password: "str0ngpassword",
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req.Email = "OLGA@example.com"
	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, utils.ErrEmailExists)
}

func TestLoginIssuesToken(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, dtos.RegisterRequest{
		Name: "Olga", Surname: "Ferreira",
		Email: "olga@example.com", Password: "str0ngpassword",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, dtos.LoginRequest{
		Email:    "olga@example.com",
		Password: "str0ngpassword",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "olga@example.com", resp.User.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, dtos.RegisterRequest{
		Name: "Olga", Surname: "Ferreira",
		Email: "olga@example.com", Password: "str0ngpassword",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dtos.LoginRequest{Email: "olga@example.com", Password: "wrong"})
	require.ErrorIs(t, err, utils.ErrInvalidCredentials)

	// Unknown email yields the same error, not a not-found.
	_, err = svc.Login(ctx, dtos.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	require.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

func TestUserUpdatePasswordRequiresOldPassword(t *testing.T) {
	userRepo := newFakeUserRepo()
	unitRepo := newFakeUnitRepo()
	rentalRepo := newFakeRentalRepo(unitRepo)
	svc := NewUserService(userRepo, rentalRepo)
	ctx := context.Background()

	hash, err := utils.HashPassword("oldpassword")
	require.NoError(t, err)
	user := &models.User{ID: uuid.New(), Name: "Olga", Surname: "Ferreira", Email: "olga@example.com", PasswordHash: hash}
	require.NoError(t, userRepo.Create(ctx, user))

	newPass := "newpassword"
	_, err = svc.Update(ctx, user.ID, dtos.UserPatchRequest{NewPassword: &newPass})
	require.ErrorIs(t, err, utils.ErrInvalidCredentials)

	wrong := "not-the-old-one"
	_, err = svc.Update(ctx, user.ID, dtos.UserPatchRequest{OldPassword: &wrong, NewPassword: &newPass})
	require.ErrorIs(t, err, utils.ErrInvalidCredentials)

	old := "oldpassword"
	_, err = svc.Update(ctx, user.ID, dtos.UserPatchRequest{OldPassword: &old, NewPassword: &newPass})
	require.NoError(t, err)

	stored, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, utils.CheckPasswordHash("newpassword", stored.PasswordHash))
}

func TestUserDeleteBlockedByActiveRental(t *testing.T) {
	userRepo := newFakeUserRepo()
	unitRepo := newFakeUnitRepo()
	rentalRepo := newFakeRentalRepo(unitRepo)
	svc := NewUserService(userRepo, rentalRepo)
	ctx := context.Background()

	tenant := &models.User{ID: uuid.New(), Name: "Tomas", Surname: "Keller", Email: "tomas@example.com"}
	require.NoError(t, userRepo.Create(ctx, tenant))

	now := time.Now().UTC()
	require.NoError(t, rentalRepo.Create(ctx, &models.Rental{
		ID:        uuid.New(),
		UnitID:    "UNIT-001",
		TenantID:  tenant.ID,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, 30),
		Status:    models.RentalStatusActive,
	}))

	err := svc.Delete(ctx, tenant.ID)
	require.ErrorIs(t, err, utils.ErrUserHasRentals)
}
