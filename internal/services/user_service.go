package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/dtos"
	"github.com/storably/storage-service/internal/repositories"
	"github.com/storably/storage-service/internal/utils"
)

type UserService struct {
	userRepo   repositories.UserRepository
	rentalRepo repositories.RentalRepository
}

func NewUserService(
	userRepo repositories.UserRepository,
	rentalRepo repositories.RentalRepository,
) *UserService {
	return &UserService{userRepo: userRepo, rentalRepo: rentalRepo}
}

func (s *UserService) ListAll(ctx context.Context) ([]dtos.User, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dtos.User, 0, len(users))
	for _, u := range users {
		out = append(out, dtos.NewUserFromModel(u))
	}
	return out, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*dtos.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrNotFound
	}
	dto := dtos.NewUserFromModel(user)
	return &dto, nil
}

// Update applies the allow-listed patch fields. A password change
// requires the old password to verify against the stored hash.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req dtos.UserPatchRequest) (*dtos.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrNotFound
	}

	if req.Name != nil {
		user.Name = capitalize(*req.Name)
	}
	if req.Surname != nil {
		user.Surname = capitalize(*req.Surname)
	}
	if req.NewPassword != nil {
		if req.OldPassword == nil {
			return nil, utils.ErrInvalidCredentials
		}
		if !utils.CheckPasswordHash(*req.OldPassword, user.PasswordHash) {
			return nil, utils.ErrInvalidCredentials
		}
		hash, err := utils.HashPassword(*req.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	dto := dtos.NewUserFromModel(user)
	return &dto, nil
}

// Delete removes the account. Rejected while the user still participates
// in an active rental, as tenant or as owner of a rented unit.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return utils.ErrNotFound
	}

	hasActive, err := s.rentalRepo.HasActiveForUser(ctx, id)
	if err != nil {
		return err
	}
	if hasActive {
		return utils.ErrUserHasRentals
	}

	return s.userRepo.Delete(ctx, id)
}
