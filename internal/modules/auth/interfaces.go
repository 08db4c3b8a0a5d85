package auth

import (
	"context"

	"bookingcrm/internal/domain"
)

// UserRepository is the part of user storage the auth service uses.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type tokenIssuer interface {
	GenerateToken(userID, role, name string) (string, error)
}
