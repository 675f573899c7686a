package dtos

import (
	"time"

	"github.com/storably/storage-service/internal/models"
)

// User DTO for GET endpoints. Never carries the password hash.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserFromModel(u *models.User) User {
	return User{
		ID:        u.ID.String(),
		Name:      u.Name,
		Surname:   u.Surname,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// ----------------------------------------------------------------------
// UserPatchRequest
//   - All fields as pointers, so that "null" or omission => no update
//
// ----------------------------------------------------------------------
type UserPatchRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Surname     *string `json:"surname,omitempty" validate:"omitempty,min=1,max=50"`
	OldPassword *string `json:"old_password,omitempty" validate:"omitempty,min=8"`
	NewPassword *string `json:"new_password,omitempty" validate:"omitempty,min=8"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthCheckResponse struct {
	Status string `json:"status"`
}
