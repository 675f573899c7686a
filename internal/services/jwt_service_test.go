package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storably/storage-service/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService([]byte("test-secret"), newFakeTokenRepo())

	token, err := svc.GenerateAccessToken(ctx, "olga@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "olga@example.com", email)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	ctx := context.Background()
	issuer := NewJWTService([]byte("secret-a"), newFakeTokenRepo())
	verifier := NewJWTService([]byte("secret-b"), newFakeTokenRepo())

	token, err := issuer.GenerateAccessToken(ctx, "olga@example.com")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(ctx, token)
	require.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	ctx := context.Background()
	secret := []byte("test-secret")
	svc := NewJWTService(secret, newFakeTokenRepo())

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   TokenIssuer,
		"email": "olga@example.com",
		"exp":   time.Now().UTC().Add(-time.Hour).Unix(),
		"iat":   time.Now().UTC().Add(-2 * time.Hour).Unix(),
	})
	tokenStr, err := expired.SignedString(secret)
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, tokenStr)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateTokenRejectsWrongIssuer(t *testing.T) {
	ctx := context.Background()
	secret := []byte("test-secret")
	svc := NewJWTService(secret, newFakeTokenRepo())

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   "someone-else",
		"email": "olga@example.com",
		"exp":   time.Now().UTC().Add(time.Hour).Unix(),
	})
	tokenStr, err := foreign.SignedString(secret)
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, tokenStr)
	require.Error(t, err)
}

func TestLogoutRevokesUntilExpiry(t *testing.T) {
	ctx := context.Background()
	tokenRepo := newFakeTokenRepo()
	svc := NewJWTService([]byte("test-secret"), tokenRepo)

	token, err := svc.GenerateAccessToken(ctx, "olga@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.ValidateToken(ctx, token)
	require.ErrorIs(t, err, utils.ErrTokenRevoked)

	// Logout is idempotent.
	require.NoError(t, svc.Logout(ctx, token))
}

func TestCleanupSweepsOnlyExpiredEntries(t *testing.T) {
	ctx := context.Background()
	tokenRepo := newFakeTokenRepo()
	svc := NewJWTService([]byte("test-secret"), tokenRepo)
	cleanup := NewTokenCleanupService(tokenRepo)

	live, err := svc.GenerateAccessToken(ctx, "olga@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, live))

	// A revoked token whose natural expiry has passed.
	tokenRepo.entries["stale-token"] = time.Now().UTC().Add(-time.Hour)

	require.NoError(t, cleanup.CleanupDaily(ctx))

	_, staleKept := tokenRepo.entries["stale-token"]
	require.False(t, staleKept)

	// The live revocation must survive the sweep.
	_, err = svc.ValidateToken(ctx, live)
	require.ErrorIs(t, err, utils.ErrTokenRevoked)
}
