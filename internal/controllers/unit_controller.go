package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/storably/storage-service/internal/dtos"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/repositories"
	"github.com/storably/storage-service/internal/services"
	"github.com/storably/storage-service/internal/utils"
)

type UnitController struct {
	unitService *services.UnitService
}

func NewUnitController(unitService *services.UnitService) *UnitController {
	return &UnitController{unitService: unitService}
}

// POST /api/units
func (c *UnitController) CreateUnit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req dtos.UnitCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	unit, err := c.unitService.Create(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, unit)
}

// GET /api/units
func (c *UnitController) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := c.unitService.ListAll(r.Context(), optionalUserID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}

// GET /api/units/available
func (c *UnitController) ListAvailableUnits(w http.ResponseWriter, r *http.Request) {
	units, err := c.unitService.ListAvailable(r.Context(), optionalUserID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}

// GET /api/units/search
func (c *UnitController) SearchUnits(w http.ResponseWriter, r *http.Request) {
	filters, err := parseSearchFilters(r)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil,
		)
		return
	}

	units, err := c.unitService.Search(r.Context(), filters, optionalUserID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}

// GET /api/units/my
func (c *UnitController) GetMyUnits(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	resp, err := c.unitService.GetUserUnits(r.Context(), userID, &userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/units/{unitID}
func (c *UnitController) GetUnit(w http.ResponseWriter, r *http.Request) {
	unitID := mux.Vars(r)["unitID"]

	unit, err := c.unitService.GetByID(r.Context(), unitID, optionalUserID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, unit)
}

// PATCH /api/units/{unitID}
func (c *UnitController) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	unitID := mux.Vars(r)["unitID"]

	var req dtos.UnitPatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	unit, err := c.unitService.Update(r.Context(), unitID, userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, unit)
}

// DELETE /api/units/{unitID}
func (c *UnitController) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	unitID := mux.Vars(r)["unitID"]

	if err := c.unitService.Delete(r.Context(), unitID, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "Unit deleted"})
}

// POST /api/units/{unitID}/features
func (c *UnitController) AddFeature(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	unitID := mux.Vars(r)["unitID"]

	var req dtos.FeatureRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	unit, err := c.unitService.AddFeature(r.Context(), unitID, userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, unit)
}

// DELETE /api/units/{unitID}/features/{featureType}
func (c *UnitController) RemoveFeature(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	unit, err := c.unitService.RemoveFeature(r.Context(), vars["unitID"], userID, vars["featureType"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, unit)
}

func parseSearchFilters(r *http.Request) (repositories.UnitSearchFilters, error) {
	q := r.URL.Query()
	filters := repositories.UnitSearchFilters{
		City:       q.Get("city"),
		FloorLevel: q.Get("floor_level"),
		Status:     q.Get("status"),
	}

	var err error
	if filters.MinSize, err = parseFloatParam(q.Get("min_size")); err != nil {
		return filters, err
	}
	if filters.MaxSize, err = parseFloatParam(q.Get("max_size")); err != nil {
		return filters, err
	}
	if filters.MinRate, err = parseFloatParam(q.Get("min_rate")); err != nil {
		return filters, err
	}
	if filters.MaxRate, err = parseFloatParam(q.Get("max_rate")); err != nil {
		return filters, err
	}

	if raw := q.Get("features"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			ft, err := models.ParseSecurityFeatureType(strings.TrimSpace(part))
			if err != nil {
				return filters, err
			}
			filters.Features = append(filters.Features, ft)
		}
	}
	return filters, nil
}

func parseFloatParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
