package common

import "errors"

var (
	// ErrTokenExpired is the status message the server uses when an access
	// token is no longer valid.
	ErrTokenExpired = errors.New("token expired")

	// ErrNotLoggedIn is returned when an operation needs an access token and
	// none is held.
	ErrNotLoggedIn = errors.New("not logged in")
)
