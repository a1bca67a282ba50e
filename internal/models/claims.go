package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the JWT claims issued by the platform's identity service.
// The wallet only cares about the owner id and role; everything else about
// the session lives upstream.
type UserClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the caller may use the admin endpoints.
func (c *UserClaims) IsAdmin() bool {
	return c.Role == "admin"
}
