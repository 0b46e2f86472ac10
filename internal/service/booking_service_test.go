package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newBookingService(repo *mockRepo, bus *mockEventBus) *BookingService {
	svc := NewBookingService(repo, bus, testLogger())
	svc.SetClock(fixedClock)
	return svc
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	owner := &models.User{ID: 1, Name: "owner"}
	booker := &models.User{ID: 2, Name: "booker"}
	start := fixedNow.Add(time.Hour)
	end := fixedNow.Add(2 * time.Hour)

	t.Run("success", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newBookingService(repo, bus)
		item := &models.Item{ID: 10, Name: "Drill", Available: true, OwnerID: owner.ID}

		repo.On("GetUser", ctx, booker.ID).Return(booker, nil)
		repo.On("GetItem", ctx, item.ID).Return(item, nil)
		repo.On("CreateBooking", ctx, mock.AnythingOfType("*models.Booking")).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).ID = 100
		}).Return(nil)
		bus.On("PublishJSON", events.EventBookingCreated, mock.MatchedBy(func(p events.BookingEventPayload) bool {
			return p.BookingID == 100 && p.OwnerID == owner.ID && p.ItemName == "Drill"
		})).Return(nil)

		b, err := svc.CreateBooking(ctx, booker.ID, item.ID, start, end)
		require.NoError(t, err)
		assert.Equal(t, int64(100), b.ID)
		assert.Equal(t, models.StatusWaiting, b.Status)
		assert.Equal(t, item, b.Item)
		assert.Equal(t, booker, b.Booker)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("item unavailable", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		repo.On("GetUser", ctx, booker.ID).Return(booker, nil)
		repo.On("GetItem", ctx, int64(11)).Return(&models.Item{ID: 11, Available: false, OwnerID: owner.ID}, nil)

		_, err := svc.CreateBooking(ctx, booker.ID, 11, start, end)
		assert.ErrorIs(t, err, domain.ErrItemUnavailable)
		repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})

	t.Run("owner books own item", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		repo.On("GetUser", ctx, owner.ID).Return(owner, nil)
		repo.On("GetItem", ctx, int64(12)).Return(&models.Item{ID: 12, Available: true, OwnerID: owner.ID}, nil)

		_, err := svc.CreateBooking(ctx, owner.ID, 12, start, end)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		repo.On("GetUser", ctx, int64(99)).Return(nil, domain.ErrNotFound)

		_, err := svc.CreateBooking(ctx, 99, 12, start, end)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		repo.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
	})

	t.Run("invalid time range", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		repo.On("GetUser", ctx, booker.ID).Return(booker, nil)
		repo.On("GetItem", ctx, int64(13)).Return(&models.Item{ID: 13, Available: true, OwnerID: owner.ID}, nil)

		_, err := svc.CreateBooking(ctx, booker.ID, 13, end, start)
		assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
	})

	t.Run("publish failure does not fail the booking", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newBookingService(repo, bus)
		repo.On("GetUser", ctx, booker.ID).Return(booker, nil)
		repo.On("GetItem", ctx, int64(14)).Return(&models.Item{ID: 14, Available: true, OwnerID: owner.ID}, nil)
		repo.On("CreateBooking", ctx, mock.Anything).Return(nil)
		bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(errors.New("bus down"))

		_, err := svc.CreateBooking(ctx, booker.ID, 14, start, end)
		assert.NoError(t, err)
	})
}

func TestBookingService_SetApproval(t *testing.T) {
	ctx := context.Background()
	item := &models.Item{ID: 10, Name: "Drill", OwnerID: 1}
	waiting := func() *models.Booking {
		return &models.Booking{ID: 5, ItemID: item.ID, Item: item, BookerID: 2, Status: models.StatusWaiting}
	}

	t.Run("approve", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newBookingService(repo, bus)
		repo.On("GetBooking", ctx, int64(5)).Return(waiting(), nil)
		repo.On("TransitionBookingStatus", ctx, int64(5), models.StatusApproved).Return(nil)
		bus.On("PublishJSON", events.EventBookingApproved, mock.Anything).Return(nil)

		b, err := svc.SetApproval(ctx, 5, 1, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, b.Status)
		bus.AssertExpectations(t)
	})

	t.Run("reject", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newBookingService(repo, bus)
		repo.On("GetBooking", ctx, int64(5)).Return(waiting(), nil)
		repo.On("TransitionBookingStatus", ctx, int64(5), models.StatusRejected).Return(nil)
		bus.On("PublishJSON", events.EventBookingRejected, mock.Anything).Return(nil)

		b, err := svc.SetApproval(ctx, 5, 1, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, b.Status)
	})

	t.Run("already decided", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		decided := waiting()
		decided.Status = models.StatusApproved
		repo.On("GetBooking", ctx, int64(5)).Return(decided, nil)

		_, err := svc.SetApproval(ctx, 5, 1, true)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		repo.AssertNotCalled(t, "TransitionBookingStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("status checked before ownership", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		decided := waiting()
		decided.Status = models.StatusRejected
		repo.On("GetBooking", ctx, int64(5)).Return(decided, nil)

		_, err := svc.SetApproval(ctx, 5, 42, true)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("not the owner", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		repo.On("GetBooking", ctx, int64(5)).Return(waiting(), nil)

		_, err := svc.SetApproval(ctx, 5, 2, true)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("lost race", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		repo.On("GetBooking", ctx, int64(5)).Return(waiting(), nil)
		repo.On("TransitionBookingStatus", ctx, int64(5), models.StatusApproved).Return(domain.ErrInvalidState)

		_, err := svc.SetApproval(ctx, 5, 1, true)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := newBookingService(repo, nil)
	booking := &models.Booking{ID: 5, BookerID: 2, Item: &models.Item{ID: 10, OwnerID: 1}}
	repo.On("GetBooking", ctx, int64(5)).Return(booking, nil)
	repo.On("GetBooking", ctx, int64(6)).Return(nil, domain.ErrNotFound)

	for _, viewer := range []int64{1, 2} {
		b, err := svc.GetBooking(ctx, 5, viewer)
		require.NoError(t, err)
		assert.Equal(t, booking, b)
	}

	_, err := svc.GetBooking(ctx, 5, 3)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = svc.GetBooking(ctx, 6, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_ListByBooker(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 2}
	bookings := []*models.Booking{
		{ID: 1, Start: fixedNow.Add(-72 * time.Hour), End: fixedNow.Add(-48 * time.Hour), Status: models.StatusApproved},
		{ID: 2, Start: fixedNow.Add(-48 * time.Hour), End: fixedNow.Add(-24 * time.Hour), Status: models.StatusRejected},
		{ID: 3, Start: fixedNow.Add(24 * time.Hour), End: fixedNow.Add(48 * time.Hour), Status: models.StatusWaiting},
	}

	t.Run("past", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		repo.On("GetUser", ctx, user.ID).Return(user, nil)
		repo.On("ListBookingsByBooker", ctx, user.ID).Return(bookings, nil)

		got, err := svc.ListByBooker(ctx, user.ID, "PAST", 0, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[0].ID)
		assert.Equal(t, int64(1), got[1].ID)
	})

	t.Run("paged", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		repo.On("GetUser", ctx, user.ID).Return(user, nil)
		repo.On("ListBookingsByBooker", ctx, user.ID).Return(bookings, nil)

		got, err := svc.ListByBooker(ctx, user.ID, "", 2, 2)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(1), got[0].ID)
	})

	t.Run("unknown state before user lookup", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)

		_, err := svc.ListByBooker(ctx, 999, "INCORRECT", 0, 10)
		var unknown *domain.UnknownStateError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "Unknown state: INCORRECT", err.Error())
		repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("bad page", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)

		_, err := svc.ListByBooker(ctx, user.ID, "ALL", -1, 10)
		assert.ErrorIs(t, err, domain.ErrInvalidPage)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newBookingService(repo, nil)
		repo.On("GetUser", ctx, int64(999)).Return(nil, domain.ErrNotFound)

		_, err := svc.ListByBooker(ctx, 999, "ALL", 0, 10)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingService_ListByOwnedItems(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := newBookingService(repo, nil)
	owner := &models.User{ID: 1}
	repo.On("GetUser", ctx, owner.ID).Return(owner, nil)
	repo.On("ListBookingsByOwner", ctx, owner.ID).Return([]*models.Booking{
		{ID: 1, Start: fixedNow.Add(time.Hour), End: fixedNow.Add(2 * time.Hour), Status: models.StatusWaiting},
		{ID: 2, Start: fixedNow.Add(3 * time.Hour), End: fixedNow.Add(4 * time.Hour), Status: models.StatusApproved},
	}, nil)

	got, err := svc.ListByOwnedItems(ctx, owner.ID, "WAITING", 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	got, err = svc.ListByOwnedItems(ctx, owner.ID, "FUTURE", 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
}
