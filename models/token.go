package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the JWT access token payload. It lives in models because
// services, middleware and ws all need it and models is the layer everything
// may depend on without creating a cycle.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
