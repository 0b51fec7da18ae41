package services

import (
	"errors"
	"fmt"

	"fast-food-fast/db"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrTooManyAttempts = errors.New("too many failed login attempts")
	ErrStore           = errors.New("store failure")
)

// storeErr translates a gateway error into a domain error. what names the
// record for not-found and conflict messages.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, db.ErrDuplicate):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	default:
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
}
