package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access token payload. Tokens are issued by the auth service;
// this API only verifies them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
