package repositories

import (
	"context"
	"time"

	"github.com/storably/storage-service/internal/models"
)

/* ───────────── public interface ───────────── */

// TokenRepository manages the access-token blacklist. Logout inserts the
// raw token with its natural expiry; the daily sweep removes rows once
// they are past it.
type TokenRepository interface {
	BlacklistToken(ctx context.Context, t *models.BlacklistedToken) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

/* ───────────── implementation ───────────── */

type tokenRepo struct {
	db DB
}

func NewTokenRepository(db DB) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) BlacklistToken(ctx context.Context, t *models.BlacklistedToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO blacklisted_tokens (id, token, expires_at, created_at)
		VALUES ($1,$2,$3, NOW())
		ON CONFLICT (token) DO NOTHING
	`, t.ID, t.Token, t.ExpiresAt)
	return err
}

// IsTokenBlacklisted ignores rows already past expiry; those are dead
// tokens regardless and the sweep will remove them.
func (r *tokenRepo) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM blacklisted_tokens WHERE token=$1 AND expires_at > $2
		)
	`, token, time.Now().UTC()).Scan(&exists)
	return exists, err
}

func (r *tokenRepo) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM blacklisted_tokens WHERE expires_at <= $1
	`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
