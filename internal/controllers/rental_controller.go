package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/storably/storage-service/internal/dtos"
	"github.com/storably/storage-service/internal/services"
	"github.com/storably/storage-service/internal/utils"
)

type RentalController struct {
	rentalService *services.RentalService
}

func NewRentalController(rentalService *services.RentalService) *RentalController {
	return &RentalController{rentalService: rentalService}
}

// POST /api/rentals
func (c *RentalController) CreateRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req dtos.RentalCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rental, err := c.rentalService.Create(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, rental)
}

// GET /api/rentals/my
func (c *RentalController) GetMyRentals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	resp, err := c.rentalService.GetUserRentals(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/rentals/expiring
func (c *RentalController) GetUpcomingExpirations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	resp, err := c.rentalService.GetUpcomingExpirations(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/rentals/statistics
func (c *RentalController) GetStatistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	resp, err := c.rentalService.GetStatistics(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/rentals/{id}
func (c *RentalController) GetRental(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	rental, err := c.rentalService.GetByID(r.Context(), id, optionalUserID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rental)
}

// PATCH /api/rentals/{id}
func (c *RentalController) UpdateRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req dtos.RentalPatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rental, err := c.rentalService.Update(r.Context(), id, userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rental)
}

// POST /api/rentals/{id}/terminate
func (c *RentalController) TerminateRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	rental, err := c.rentalService.Terminate(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rental)
}

// POST /api/rentals/{id}/extend
func (c *RentalController) ExtendRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req dtos.RentalExtendRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rental, err := c.rentalService.Extend(r.Context(), id, userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rental)
}

// POST /api/rentals/{id}/share
func (c *RentalController) ShareRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req dtos.RentalShareRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rental, err := c.rentalService.Share(r.Context(), id, userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rental)
}

// DELETE /api/rentals/{id}/share/{email}
func (c *RentalController) UnshareRental(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	email := mux.Vars(r)["email"]

	rental, err := c.rentalService.Unshare(r.Context(), id, userID, email)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rental)
}

// GET /api/units/{unitID}/rentals
func (c *RentalController) GetUnitRentalHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	unitID := mux.Vars(r)["unitID"]

	rentals, err := c.rentalService.GetUnitHistory(r.Context(), unitID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rentals)
}
