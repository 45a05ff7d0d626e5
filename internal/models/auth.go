package models

import "github.com/golang-jwt/jwt/v5"

// UserRole mirrors the roles issued by the surrounding platform's identity
// service. This API only validates tokens; it never issues them.
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleViewer      UserRole = "VIEWER"
)

// JWTClaims is the bearer token payload accepted by the API.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
