package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// ParseBookingState converts a query parameter into a BookingState.
// An empty value means ALL. Matching is exact after trimming spaces.
func ParseBookingState(raw string) (models.BookingState, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.StateAll, nil
	}
	for _, s := range models.BookingStates {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", &domain.UnknownStateError{State: raw}
}

// MatchesState reports whether b satisfies the state predicate at now.
func MatchesState(b *models.Booking, state models.BookingState, now time.Time) bool {
	switch state {
	case models.StateAll:
		return true
	case models.StateCurrent:
		return b.Start.Before(now) && b.End.After(now)
	case models.StatePast:
		return b.End.Before(now)
	case models.StateFuture:
		return b.Start.After(now)
	case models.StateWaiting:
		return b.Status == models.StatusWaiting
	case models.StateRejected:
		return b.Status == models.StatusRejected
	default:
		return false
	}
}

// FilterBookings returns the bookings matching state, latest start first.
// Bookings with equal start keep their input order. The input is not modified.
func FilterBookings(bookings []*models.Booking, state models.BookingState, now time.Time) []*models.Booking {
	out := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if MatchesState(b, state, now) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.After(out[j].Start)
	})
	return out
}

// ValidateBookingTime checks a proposed rental window against now.
// A zero time stands for a missing value.
func ValidateBookingTime(start, end, now time.Time) error {
	switch {
	case start.IsZero():
		return fmt.Errorf("%w: start is required", domain.ErrInvalidTimeRange)
	case end.IsZero():
		return fmt.Errorf("%w: end is required", domain.ErrInvalidTimeRange)
	case start.Before(now):
		return fmt.Errorf("%w: start is in the past", domain.ErrInvalidTimeRange)
	case start.After(end):
		return fmt.Errorf("%w: start is after end", domain.ErrInvalidTimeRange)
	case start.Equal(end):
		return fmt.Errorf("%w: start equals end", domain.ErrInvalidTimeRange)
	}
	return nil
}

// Page is a resolved offset window.
type Page struct {
	Offset int
	Limit  int
}

// NewPage applies the page arithmetic used by every listing:
// page index = from / size, offset = page index * size.
func NewPage(from, size int) (Page, error) {
	if from < 0 {
		return Page{}, fmt.Errorf("%w: from must not be negative", domain.ErrInvalidPage)
	}
	if size <= 0 {
		return Page{}, fmt.Errorf("%w: size must be positive", domain.ErrInvalidPage)
	}
	return Page{Offset: (from / size) * size, Limit: size}, nil
}

// Slice cuts the page window out of a fully loaded, ordered list.
func Slice[T any](all []T, page Page) []T {
	if page.Offset >= len(all) {
		return []T{}
	}
	end := page.Offset + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[page.Offset:end]
}
