package dtos

// ----------------------
// Requests
// ----------------------

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=50"`
	Surname  string `json:"surname" validate:"required,min=1,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ----------------------
// Responses
// ----------------------

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type LogoutResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}
