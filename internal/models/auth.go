package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by route guards.
type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleTPO        UserRole = "TPO"
	RoleManagement UserRole = "MANAGEMENT"
	RoleSuperUser  UserRole = "SUPERUSER"
)

// Staff reports whether the role may run placement drives.
func (r UserRole) Staff() bool {
	return r == RoleTPO || r == RoleManagement || r == RoleSuperUser
}

// JWTClaims represents the access token payload issued by the identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}
