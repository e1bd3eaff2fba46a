package service

import "errors"

var (
	// ErrNotFound means a lookup or delete matched zero bookings. It is an
	// outcome, not a failure; callers report it separately from store errors.
	ErrNotFound = errors.New("no matching booking")

	// ErrBusy means the action's single-slot gate is already taken.
	ErrBusy = errors.New("operation already in progress")
)
