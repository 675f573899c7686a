package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidEnum is wrapped by every Parse* helper so callers can map
// bad enum input to a validation failure.
var ErrInvalidEnum = errors.New("invalid_enum_value")

type UnitStatus string

const (
	UnitStatusVacant      UnitStatus = "VACANT"
	UnitStatusOccupied    UnitStatus = "OCCUPIED"
	UnitStatusReserved    UnitStatus = "RESERVED"
	UnitStatusMaintenance UnitStatus = "MAINTENANCE"
)

// ParseUnitStatus converts a persisted string to the enum.
func ParseUnitStatus(s string) (UnitStatus, error) {
	switch UnitStatus(s) {
	case UnitStatusVacant, UnitStatusOccupied, UnitStatusReserved, UnitStatusMaintenance:
		return UnitStatus(s), nil
	default:
		return "", fmt.Errorf("invalid unit status %q: %w", s, ErrInvalidEnum)
	}
}

// Unit is a rentable storage compartment. MonthlyRate is always derived
// from BaseRate and the unit's security features; BaseRate never changes
// when features do.
//
// SharedUserEmails on the unit is an audit trail only — effective sharing
// is stored per active rental.
type Unit struct {
	Versioned

	UnitID             string     `json:"unit_id"`
	Name               string     `json:"name"`
	Country            string     `json:"country"`
	City               string     `json:"city"`
	AddressLink        string     `json:"address_link"`
	Status             UnitStatus `json:"status"`
	SizeSqm            float64    `json:"size_sqm"`
	BaseRate           float64    `json:"base_rate"`
	MonthlyRate        float64    `json:"monthly_rate"`
	Currency           string     `json:"currency"`
	ClimateControlled  bool       `json:"climate_controlled"`
	FloorLevel         string     `json:"floor_level"`
	RentalDurationDays int        `json:"rental_duration_days"`
	OwnerID            uuid.UUID  `json:"owner_id"`
	TenantID           *uuid.UUID `json:"tenant_id,omitempty"`
	SharedUserEmails   []string   `json:"shared_user_emails"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (u *Unit) GetID() string {
	return u.UnitID
}
