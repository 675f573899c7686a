package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/middleware"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/utils"
)

var validate = validator.New()

// decodeAndValidate parses the JSON body into dst and runs the struct
// validation tags. It writes the 400 itself and reports success.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", err.Error(), err,
		)
		return false
	}
	return true
}

// requireUserID reads the authenticated caller's id from the request
// context. Writes the 401 itself when the middleware did not run.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", nil,
		)
		return uuid.Nil, false
	}
	return id, true
}

// optionalUserID returns the caller's id when present, nil otherwise.
func optionalUserID(r *http.Request) *uuid.UUID {
	if id, ok := middleware.UserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

// respondServiceError maps service sentinels to HTTP statuses and error
// codes. Unknown errors become a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, "Resource not found", nil,
		)
	case errors.Is(err, models.ErrInvalidEnum),
		errors.Is(err, utils.ErrInvalidAddURL),
		errors.Is(err, utils.ErrDurationTooShort),
		errors.Is(err, utils.ErrInvalidDateRange):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil,
		)
	case errors.Is(err, utils.ErrInvalidCredentials):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeInvalidCredentials, "Invalid credentials", nil,
		)
	case errors.Is(err, utils.ErrTokenRevoked):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeTokenRevoked, "Token revoked", nil,
		)
	case errors.Is(err, utils.ErrNotOwner),
		errors.Is(err, utils.ErrNotTenant),
		errors.Is(err, utils.ErrNotParticipant):
		utils.RespondErrorWithCode(
			w, http.StatusForbidden, utils.ErrCodeForbidden, err.Error(), nil,
		)
	case errors.Is(err, utils.ErrUnitNotVacant):
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeUnitNotVacant, "Unit is not vacant", nil,
		)
	case errors.Is(err, utils.ErrRentalNotActive):
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeWrongStatus, "Rental is not active", nil,
		)
	case errors.Is(err, utils.ErrEmailExists),
		errors.Is(err, utils.ErrUnitNameTaken),
		errors.Is(err, utils.ErrFeatureExists),
		errors.Is(err, utils.ErrAlreadyShared),
		errors.Is(err, utils.ErrNotShared),
		errors.Is(err, utils.ErrUserHasRentals):
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeConflict, err.Error(), nil,
		)
	case errors.Is(err, utils.ErrBasicNonRemovable):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Basic security cannot be removed", nil,
		)
	case errors.Is(err, utils.ErrFeatureNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound, "Feature not attached to unit", nil,
		)
	case errors.Is(err, utils.ErrRowVersionConflict):
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeRowVersionConflict, "Concurrent update, please retry", nil,
		)
	default:
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Internal server error", nil, err,
		)
	}
}
