package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id int64) error
	ListItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
	SearchAvailableItems(ctx context.Context, text string, offset, limit int) ([]*models.Item, error)
	ListItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	// GetBooking loads the booking with its item and booker.
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// TransitionBookingStatus moves a WAITING booking to status.
	// Returns ErrInvalidState when the booking is no longer WAITING.
	TransitionBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error
	ListBookingsByBooker(ctx context.Context, bookerID int64) ([]*models.Booking, error)
	ListBookingsByOwner(ctx context.Context, ownerID int64) ([]*models.Booking, error)
	ListApprovedBookingsByItems(ctx context.Context, itemIDs []int64) ([]*models.Booking, error)
	HasStartedApprovedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListCommentsByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	ListRequestsByRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	ListRequestsExcept(ctx context.Context, requestorID int64, offset, limit int) ([]*models.ItemRequest, error)
}

// Repository is the single storage capability set used by the services.
type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	CommentRepository
	RequestRepository

	// WithinTx runs fn against a transactional view of the repository.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Repository) error) error
	Ping(ctx context.Context) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// LimitStore counts requests per key within a fixed window.
type LimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
