package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

type RentalStatus string

const (
	RentalStatusActive     RentalStatus = "active"
	RentalStatusTerminated RentalStatus = "terminated"
	RentalStatusExpired    RentalStatus = "expired"
)

func ParseRentalStatus(s string) (RentalStatus, error) {
	switch RentalStatus(s) {
	case RentalStatusActive, RentalStatusTerminated, RentalStatusExpired:
		return RentalStatus(s), nil
	default:
		return "", fmt.Errorf("invalid rental status %q: %w", s, ErrInvalidEnum)
	}
}

// Rental is a time-bounded occupancy agreement between a tenant and a unit.
// MonthlyRate is a snapshot taken at creation and never follows later
// changes to the unit's rate. TotalCost is derived from the snapshot rate
// and the rental duration.
type Rental struct {
	ID               uuid.UUID    `json:"id"`
	UnitID           string       `json:"unit_id"`
	TenantID         uuid.UUID    `json:"tenant_id"`
	StartDate        time.Time    `json:"start_date"`
	EndDate          time.Time    `json:"end_date"`
	MonthlyRate      float64      `json:"monthly_rate"`
	Status           RentalStatus `json:"status"`
	SharedUserEmails []string     `json:"shared_user_emails"`
	TotalCost        float64      `json:"total_cost"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        *time.Time   `json:"updated_at,omitempty"`
}

// IsExpired reports whether an active rental has run past its end date.
// Expiry is computed, never enforced server-side.
func (r *Rental) IsExpired(now time.Time) bool {
	return r.Status == RentalStatusActive && now.After(r.EndDate)
}

// HasSharedEmail reports whether the email already has shared access.
func (r *Rental) HasSharedEmail(email string) bool {
	return slices.Contains(r.SharedUserEmails, email)
}
