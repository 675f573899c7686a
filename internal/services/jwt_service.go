package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/constants"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/repositories"
	"github.com/storably/storage-service/internal/utils"
)

// TokenIssuer identifies the service that issues all access tokens.
const TokenIssuer = "Storably"

// ---------------------------------------------------------------------
// JWTService interface
// ---------------------------------------------------------------------

type JWTService interface {
	// GenerateAccessToken issues a signed token embedding the user's
	// email, valid for constants.AccessTokenTTL.
	GenerateAccessToken(ctx context.Context, email string) (string, error)

	// ValidateToken checks signature, expiry, issuer and blacklist
	// membership, and returns the email claim.
	ValidateToken(ctx context.Context, tokenString string) (string, error)

	// Logout blacklists the token until its natural expiry.
	Logout(ctx context.Context, tokenString string) error
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type jwtService struct {
	secret    []byte
	tokenRepo repositories.TokenRepository
}

func NewJWTService(secret []byte, tokenRepo repositories.TokenRepository) JWTService {
	return &jwtService{secret: secret, tokenRepo: tokenRepo}
}

func (j *jwtService) GenerateAccessToken(ctx context.Context, email string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":   TokenIssuer,
		"email": email,
		"exp":   now.Add(constants.AccessTokenTTL).Unix(),
		"iat":   now.Unix(),
		"jti":   uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *jwtService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	claims, err := j.parseClaims(tokenString)
	if err != nil {
		return "", err
	}

	iss, ok := claims["iss"].(string)
	if !ok || iss != TokenIssuer {
		return "", errors.New("invalid token issuer")
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", errors.New("missing email claim")
	}

	blacklisted, err := j.tokenRepo.IsTokenBlacklisted(ctx, tokenString)
	if err != nil {
		return "", fmt.Errorf("blacklist lookup: %w", err)
	}
	if blacklisted {
		return "", utils.ErrTokenRevoked
	}

	return email, nil
}

func (j *jwtService) Logout(ctx context.Context, tokenString string) error {
	claims, err := j.parseClaims(tokenString)
	if err != nil {
		return err
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return errors.New("missing expiration claim")
	}

	return j.tokenRepo.BlacklistToken(ctx, &models.BlacklistedToken{
		ID:        uuid.New(),
		Token:     tokenString,
		ExpiresAt: time.Unix(int64(exp), 0).UTC(),
	})
}

func (j *jwtService) parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
