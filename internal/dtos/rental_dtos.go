package dtos

import (
	"fmt"
	"time"

	"github.com/storably/storage-service/internal/models"
)

// ----------------------
// Requests
// ----------------------

type RentalCreateRequest struct {
	UnitID    string    `json:"unit_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// RentalPatchRequest: end_date and status are the only writable fields.
type RentalPatchRequest struct {
	EndDate *time.Time `json:"end_date,omitempty"`
	Status  *string    `json:"status,omitempty"`
}

type RentalExtendRequest struct {
	ExtensionDays int `json:"extension_days" validate:"required,gt=0"`
}

type RentalShareRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ----------------------
// Responses
// ----------------------

type RentalUnitSummary struct {
	UnitID   string `json:"unit_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type RentalTenant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Rental DTO. Sensitive fields (rate, tenant identity, shared list) are
// only populated for the tenant, the unit owner, or a shared viewer.
type Rental struct {
	ID        string             `json:"id"`
	UnitID    string             `json:"unit_id"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
	Status    string             `json:"status"`
	IsExpired bool               `json:"is_expired"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
	Unit      *RentalUnitSummary `json:"unit,omitempty"`

	// Restricted
	TenantID         *string       `json:"tenant_id,omitempty"`
	MonthlyRate      *float64      `json:"monthly_rate,omitempty"`
	TotalCost        *float64      `json:"total_cost,omitempty"`
	Tenant           *RentalTenant `json:"tenant,omitempty"`
	SharedUserEmails []string      `json:"shared_users,omitempty"`
}

// NewRentalFromModel builds the public view. Restricted fields are added
// by the service for authorized viewers.
func NewRentalFromModel(r *models.Rental, unit *models.Unit) Rental {
	dto := Rental{
		ID:        r.ID.String(),
		UnitID:    r.UnitID,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Status:    string(r.Status),
		IsExpired: r.IsExpired(time.Now().UTC()),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if unit != nil {
		dto.Unit = &RentalUnitSummary{
			UnitID:   unit.UnitID,
			Name:     unit.Name,
			Location: fmt.Sprintf("%s, %s", unit.City, unit.Country),
		}
	}
	return dto
}

type UserRentalsResponse struct {
	AsTenant []Rental `json:"as_tenant"`
	AsOwner  []Rental `json:"as_owner"`
}

type RentalStatisticsResponse struct {
	AsTenant TenantStatistics `json:"as_tenant"`
	AsOwner  OwnerStatistics  `json:"as_owner"`
}

type TenantStatistics struct {
	TotalRentals    int     `json:"total_rentals"`
	ActiveRentals   int     `json:"active_rentals"`
	TotalSpent      float64 `json:"total_spent"`
	AverageDuration float64 `json:"average_duration"`
}

type OwnerStatistics struct {
	TotalRentals  int     `json:"total_rentals"`
	ActiveRentals int     `json:"active_rentals"`
	TotalRevenue  float64 `json:"total_revenue"`
	UnitsRented   int     `json:"units_rented"`
}
