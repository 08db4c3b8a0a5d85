package domain

import "time"

type UserRole string

const (
	RoleBDM         UserRole = "bdm"
	RoleHR          UserRole = "HR"
	RoleAdmin       UserRole = "admin"
	RoleSeniorAdmin UserRole = "senior admin"
	RoleDev         UserRole = "dev"
	RoleSrDev       UserRole = "srdev"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleBDM, RoleHR, RoleAdmin, RoleSeniorAdmin, RoleDev, RoleSrDev:
		return true
	}
	return false
}

// IsPrivileged reports whether the role may see every booking instead of
// only the bookings it owns.
func (r UserRole) IsPrivileged() bool {
	switch r {
	case RoleAdmin, RoleSeniorAdmin, RoleDev, RoleSrDev:
		return true
	}
	return false
}

// CanExport reports whether the role may download booking data.
func (r UserRole) CanExport() bool {
	return r == RoleSrDev
}

type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"user_role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
