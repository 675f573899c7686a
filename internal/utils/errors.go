package utils

import "errors"

/*
Sentinel errors for domain logic. Controllers branch on them with
errors.Is to pick the HTTP status and error code.
*/
var (
	ErrNotFound       = errors.New("not_found")
	ErrEmailExists    = errors.New("email_exists")
	ErrNotOwner       = errors.New("not_owner")
	ErrNotTenant      = errors.New("not_tenant")
	ErrNotParticipant = errors.New("not_participant")

	ErrUnitNotVacant     = errors.New("unit_not_vacant")
	ErrUnitNameTaken     = errors.New("unit_name_taken")
	ErrInvalidAddURL     = errors.New("invalid_address_link")
	ErrDurationTooShort  = errors.New("rental_duration_too_short")
	ErrBasicNonRemovable = errors.New("basic_feature_non_removable")
	ErrFeatureExists     = errors.New("feature_already_attached")
	ErrFeatureNotFound   = errors.New("feature_not_attached")

	ErrRentalNotActive  = errors.New("rental_not_active")
	ErrAlreadyShared    = errors.New("already_shared")
	ErrNotShared        = errors.New("not_shared")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrUserHasRentals   = errors.New("user_has_active_rentals")

	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrTokenRevoked       = errors.New("token_revoked")

	// Returned when an optimistic-lock update exhausts its retries.
	ErrRowVersionConflict = errors.New("row_version_conflict")
)
