package auth

import "bookingcrm/internal/domain"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body of a successful login. Clients read the token and
// the user record directly, without the success envelope.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"user_role" validate:"required"`
}
