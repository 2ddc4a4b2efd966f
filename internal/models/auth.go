package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens. ID is zero for the
// environment admin, which has no users row.
type JWTClaims struct {
	ID    int64    `json:"id,omitempty"`
	Role  UserRole `json:"role"`
	Email string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       int64    `json:"id,omitempty"`
	Email    string   `json:"email"`
	Username string   `json:"username,omitempty"`
	Role     UserRole `json:"role"`
}
