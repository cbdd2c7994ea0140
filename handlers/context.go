// Package handlers adapts HTTP to the service layer.
//
// Handlers stay thin: parse the request, call the service, write the
// response. Business rules live in services; SQL lives in repositories.
package handlers

// contextKey is unexported so no other package can collide with our keys.
type contextKey string

// UserContextKey is where the auth middleware stores the *models.User of
// the authenticated caller.
const UserContextKey contextKey = "user"
