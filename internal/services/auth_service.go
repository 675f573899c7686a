package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/dtos"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/repositories"
	"github.com/storably/storage-service/internal/utils"
)

// AuthService handles registration, login and logout. Token mechanics
// live in JWTService; this layer owns the credential checks.
type AuthService struct {
	userRepo repositories.UserRepository
	jwt      JWTService
}

func NewAuthService(userRepo repositories.UserRepository, jwt JWTService) *AuthService {
	return &AuthService{userRepo: userRepo, jwt: jwt}
}

// Register creates a new user. Emails are normalized to lowercase and
// names capitalized before storage.
func (s *AuthService) Register(ctx context.Context, req dtos.RegisterRequest) (*dtos.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.ErrEmailExists
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         capitalize(req.Name),
		Surname:      capitalize(req.Surname),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, utils.ErrEmailExists
		}
		return nil, err
	}

	dto := dtos.NewUserFromModel(user)
	return &dto, nil
}

// Login verifies the password and issues an access token.
func (s *AuthService) Login(ctx context.Context, req dtos.LoginRequest) (*dtos.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, utils.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	return &dtos.LoginResponse{
		Token: token,
		User:  dtos.NewUserFromModel(user),
	}, nil
}

// Logout blacklists the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	return s.jwt.Logout(ctx, tokenString)
}

// ResolveUser maps a validated token email back to the user record.
func (s *AuthService) ResolveUser(ctx context.Context, email string) (*models.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
