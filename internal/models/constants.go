package models

// BookingStatus is the lifecycle status stored on a booking.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
	StatusCanceled BookingStatus = "CANCELED"
)

// IsTerminal reports whether no further transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s != StatusWaiting
}

// BookingState is the query vocabulary used when listing bookings.
// It shares two literals with BookingStatus but is a separate type.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// BookingStates lists every query state in declaration order.
var BookingStates = []BookingState{
	StateAll,
	StateCurrent,
	StatePast,
	StateFuture,
	StateWaiting,
	StateRejected,
}

const (
	// DefaultPageFrom номер первой записи по умолчанию
	DefaultPageFrom = 0

	// DefaultPageSize размер страницы по умолчанию
	DefaultPageSize = 10

	// UserIDHeader заголовок с идентификатором пользователя
	UserIDHeader = "X-Sharer-User-Id"
)
