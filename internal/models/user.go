package models

import (
	"time"

	"github.com/google/uuid"
)

// User owns zero or more units and may rent units listed by others.
// Email is stored lowercase and is unique.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) GetID() string {
	return u.ID.String()
}
