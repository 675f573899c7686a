package dtos

import (
	"time"

	"github.com/storably/storage-service/internal/models"
)

// ----------------------
// Requests
// ----------------------

type UnitCreateRequest struct {
	Name               string   `json:"name" validate:"required,min=1,max=100"`
	Country            string   `json:"country" validate:"required"`
	City               string   `json:"city" validate:"required"`
	AddressLink        string   `json:"address_link" validate:"required,url"`
	Status             string   `json:"status" validate:"required"`
	SizeSqm            float64  `json:"size_sqm" validate:"required,gt=0"`
	BaseRate           float64  `json:"base_rate" validate:"required,gt=0"`
	Currency           string   `json:"currency" validate:"required,len=3"`
	ClimateControlled  bool     `json:"climate_controlled"`
	FloorLevel         string   `json:"floor_level" validate:"required"`
	RentalDurationDays int      `json:"rental_duration_days" validate:"required,gte=30"`
	SecurityFeatures   []string `json:"security_features"`
}

// UnitPatchRequest replaces attribute-name-driven updates: only the fields
// listed here can ever be written, and only when non-nil.
type UnitPatchRequest struct {
	Name               *string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Country            *string   `json:"country,omitempty"`
	City               *string   `json:"city,omitempty"`
	AddressLink        *string   `json:"address_link,omitempty" validate:"omitempty,url"`
	Status             *string   `json:"status,omitempty"`
	SizeSqm            *float64  `json:"size_sqm,omitempty" validate:"omitempty,gt=0"`
	BaseRate           *float64  `json:"base_rate,omitempty" validate:"omitempty,gt=0"`
	Currency           *string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	ClimateControlled  *bool     `json:"climate_controlled,omitempty"`
	FloorLevel         *string   `json:"floor_level,omitempty"`
	RentalDurationDays *int      `json:"rental_duration_days,omitempty" validate:"omitempty,gte=30"`
	SecurityFeatures   *[]string `json:"security_features,omitempty"`
}

type FeatureRequest struct {
	FeatureType string  `json:"feature_type" validate:"required"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=200"`
}

// ----------------------
// Responses
// ----------------------

type SecurityFeature struct {
	FeatureType string `json:"feature_type"`
	Name        string `json:"name"`
}

// Unit DTO. The restricted fields (base rate, tenant identity, shared
// list) are only populated when the viewer is the owner, the tenant, or
// on the active rental's shared list; everyone else gets IsOccupied only.
type Unit struct {
	UnitID             string            `json:"unit_id"`
	Name               string            `json:"name"`
	Country            string            `json:"country"`
	City               string            `json:"city"`
	AddressLink        string            `json:"address_link"`
	Status             string            `json:"status"`
	SizeSqm            float64           `json:"size_sqm"`
	MonthlyRate        float64           `json:"monthly_rate"`
	Currency           string            `json:"currency"`
	ClimateControlled  bool              `json:"climate_controlled"`
	FloorLevel         string            `json:"floor_level"`
	RentalDurationDays int               `json:"rental_duration_days"`
	SecurityFeatures   []SecurityFeature `json:"security_features"`
	IsOccupied         bool              `json:"is_occupied"`
	CreatedAt          time.Time         `json:"created_at"`

	// Restricted
	BaseRate         *float64 `json:"base_rate,omitempty"`
	TenantID         *string  `json:"tenant_id,omitempty"`
	TenantEmail      *string  `json:"tenant_email,omitempty"`
	SharedUserEmails []string `json:"shared_user_emails,omitempty"`
}

// NewUnitFromModel builds the public view of a unit. Restricted fields
// are filled in by the service once the viewer has been authorized.
func NewUnitFromModel(u *models.Unit, features []*models.SecurityFeature) Unit {
	dto := Unit{
		UnitID:             u.UnitID,
		Name:               u.Name,
		Country:            u.Country,
		City:               u.City,
		AddressLink:        u.AddressLink,
		Status:             string(u.Status),
		SizeSqm:            u.SizeSqm,
		MonthlyRate:        u.MonthlyRate,
		Currency:           u.Currency,
		ClimateControlled:  u.ClimateControlled,
		FloorLevel:         u.FloorLevel,
		RentalDurationDays: u.RentalDurationDays,
		IsOccupied:         u.Status == models.UnitStatusOccupied,
		CreatedAt:          u.CreatedAt,
	}
	for _, f := range features {
		dto.SecurityFeatures = append(dto.SecurityFeatures, SecurityFeature{
			FeatureType: string(f.FeatureType),
			Name:        f.FeatureType.DisplayName(),
		})
	}
	return dto
}

type UserUnitsResponse struct {
	OwnedUnits  []Unit `json:"owned_units"`
	RentedUnits []Unit `json:"rented_units"`
}
