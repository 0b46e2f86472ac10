package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrForbidden         = errors.New("forbidden")
	ErrItemUnavailable   = errors.New("item is not available")
	ErrInvalidState      = errors.New("booking is not waiting for approval")
	ErrInvalidTimeRange  = errors.New("invalid booking time range")
	ErrEmailConflict     = errors.New("email already in use")
	ErrCommentNotAllowed = errors.New("comments require a finished or ongoing approved booking")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidPage       = errors.New("invalid page parameters")
)

// UnknownStateError is returned when a booking query state cannot be parsed.
type UnknownStateError struct {
	State string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("Unknown state: %s", e.State)
}

// IsBadRequest reports whether err is caused by caller input rather than
// missing data or infrastructure failure.
func IsBadRequest(err error) bool {
	var unknown *UnknownStateError
	switch {
	case errors.As(err, &unknown),
		errors.Is(err, ErrItemUnavailable),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInvalidTimeRange),
		errors.Is(err, ErrCommentNotAllowed),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidPage):
		return true
	}
	return false
}
