// Package models holds the domain entities and request DTOs.
//
// Entities mirror database tables; request DTOs carry their own Validate
// methods so input rules live next to the type instead of being scattered
// over handlers.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  *string   `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

var usernameRegex = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

// CreateUserRequest is the register payload.
type CreateUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// Validate checks the register payload.
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	if !usernameRegex.MatchString(r.Username) {
		return fmt.Errorf("username must be 3-32 characters of a-z, 0-9 or _")
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if utf8.RuneCountInString(r.DisplayName) > 64 {
		return fmt.Errorf("display name must be at most 64 characters")
	}
	return nil
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the login payload.
func (r *LoginRequest) Validate() error {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}
