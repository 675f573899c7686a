package models

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistedToken represents a revoked access token. Entries are kept
// until their natural expiry and pruned by the daily sweep.
type BlacklistedToken struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
