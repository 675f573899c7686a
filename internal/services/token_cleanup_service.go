package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/storably/storage-service/internal/repositories"
	"github.com/storably/storage-service/internal/utils"
)

const cleanupRetryDelay = 3 * time.Second

// TokenCleanupService removes expired blacklist entries each night.
// A revoked token past its natural expiry is rejected by signature
// validation anyway, so the row is dead weight.
type TokenCleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type tokenCleanupService struct {
	tokenRepo repositories.TokenRepository
}

func NewTokenCleanupService(tokenRepo repositories.TokenRepository) TokenCleanupService {
	return &tokenCleanupService{tokenRepo: tokenRepo}
}

// runWithRetry executes op(ctx) and, if it returns a transient network
// error (EOF, pgconn safe-to-retry, or the common closed-connection
// message), waits a moment then retries once.
func (s *tokenCleanupService) runWithRetry(
	ctx context.Context,
	op func(context.Context) error,
) error {
	if err := op(ctx); err != nil {
		if errors.Is(err, io.EOF) || pgconn.SafeToRetry(err) ||
			strings.Contains(err.Error(), "connection was closed") {
			utils.Logger.WithError(err).Warn("token cleanup hit transient DB error; retrying once")
			time.Sleep(cleanupRetryDelay)
			return op(ctx)
		}
		return err
	}
	return nil
}

func (s *tokenCleanupService) CleanupDaily(ctx context.Context) error {
	logger := utils.Logger

	var removed int64
	err := s.runWithRetry(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.tokenRepo.CleanupExpired(ctx)
		return err
	})
	if err != nil {
		logger.WithError(err).Error("Failed to cleanup expired blacklisted tokens")
		return err
	}

	logger.WithField("removed", removed).Info("Daily blacklist cleanup completed successfully.")
	return nil
}
