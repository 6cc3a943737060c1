package core

import (
	"errors"
	"net/http"
)

var (
	// ErrBadRequest is returned when username or password is missing.
	ErrBadRequest = errors.New("username/password required")
	// ErrUnknownUser is returned when the directory has no row for the username.
	ErrUnknownUser = errors.New("not registered employee")
	// ErrAuthFailed covers every provider or store failure during login.
	// Callers cannot tell causes apart.
	ErrAuthFailed = errors.New("login failed")
	// ErrColumnMismatch is returned when a directory row has a different
	// number of cells than column names.
	ErrColumnMismatch = errors.New("column count does not match cell count")
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when a bearer token is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
)

// Plain-text bodies returned by the login endpoint.
const (
	bodyBadRequest  = "username/password required"
	bodyUnknownUser = "Not registered employee"
	bodyAuthFailed  = "Cognito login failed"
)

// LoginStatus maps a Login error to the HTTP status and plain-text body the
// login endpoint returns. Unknown errors fall into the auth-failed bucket.
func LoginStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, bodyBadRequest
	case errors.Is(err, ErrUnknownUser):
		return http.StatusUnauthorized, bodyUnknownUser
	default:
		return http.StatusUnauthorized, bodyAuthFailed
	}
}
