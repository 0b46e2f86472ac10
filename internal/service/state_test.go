package service

import (
	"errors"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookingState(t *testing.T) {
	for _, s := range models.BookingStates {
		got, err := ParseBookingState(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseBookingState("")
	require.NoError(t, err)
	assert.Equal(t, models.StateAll, got)

	got, err = ParseBookingState(" PAST ")
	require.NoError(t, err)
	assert.Equal(t, models.StatePast, got)

	_, err = ParseBookingState("INCORRECT")
	var unknown *domain.UnknownStateError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "INCORRECT", unknown.State)
	assert.Equal(t, "Unknown state: INCORRECT", err.Error())

	_, err = ParseBookingState("APPROVED")
	assert.True(t, errors.As(err, &unknown), "lifecycle status is not a query state")
}

func TestFilterBookings(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := &models.Booking{ID: 1, Start: now.Add(-48 * time.Hour), End: now.Add(-24 * time.Hour), Status: models.StatusApproved}
	current := &models.Booking{ID: 2, Start: now.Add(-time.Hour), End: now.Add(time.Hour), Status: models.StatusWaiting}
	future := &models.Booking{ID: 3, Start: now.Add(24 * time.Hour), End: now.Add(48 * time.Hour), Status: models.StatusRejected}
	input := []*models.Booking{past, current, future}

	tests := []struct {
		state models.BookingState
		want  []int64
	}{
		{models.StateAll, []int64{3, 2, 1}},
		{models.StateCurrent, []int64{2}},
		{models.StatePast, []int64{1}},
		{models.StateFuture, []int64{3}},
		{models.StateWaiting, []int64{2}},
		{models.StateRejected, []int64{3}},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			got := FilterBookings(input, tt.state, now)
			ids := make([]int64, 0, len(got))
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	assert.Equal(t, []*models.Booking{past, current, future}, input, "input must not be reordered")
}

func TestFilterBookingsBoundaries(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	endsNow := &models.Booking{ID: 1, Start: now.Add(-time.Hour), End: now}
	startsNow := &models.Booking{ID: 2, Start: now, End: now.Add(time.Hour)}
	input := []*models.Booking{endsNow, startsNow}

	assert.Empty(t, FilterBookings(input, models.StatePast, now))
	assert.Empty(t, FilterBookings(input, models.StateFuture, now))
	assert.Empty(t, FilterBookings(input, models.StateCurrent, now))
	assert.Len(t, FilterBookings(input, models.StateAll, now), 2)
	assert.Empty(t, FilterBookings(input, models.BookingState("CANCELED"), now))
}

func TestFilterBookingsStableOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)
	input := []*models.Booking{
		{ID: 10, Start: start, End: start.Add(time.Hour)},
		{ID: 11, Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)},
		{ID: 12, Start: start, End: start.Add(3 * time.Hour)},
	}

	got := FilterBookings(input, models.StateAll, now)
	require.Len(t, got, 3)
	assert.Equal(t, int64(11), got[0].ID)
	assert.Equal(t, int64(10), got[1].ID)
	assert.Equal(t, int64(12), got[2].ID)

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Start.After(got[i-1].Start))
	}
}

func TestValidateBookingTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"valid", now.Add(time.Hour), now.Add(2 * time.Hour), false},
		{"starts exactly now", now, now.Add(time.Hour), false},
		{"missing start", time.Time{}, now.Add(time.Hour), true},
		{"missing end", now.Add(time.Hour), time.Time{}, true},
		{"start in past", now.Add(-time.Minute), now.Add(time.Hour), true},
		{"start after end", now.Add(2 * time.Hour), now.Add(time.Hour), true},
		{"start equals end", now.Add(time.Hour), now.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBookingTime(tt.start, tt.end, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	page, err := NewPage(0, 10)
	require.NoError(t, err)
	assert.Equal(t, Page{Offset: 0, Limit: 10}, page)

	page, err = NewPage(7, 5)
	require.NoError(t, err)
	assert.Equal(t, Page{Offset: 5, Limit: 5}, page)

	page, err = NewPage(4, 5)
	require.NoError(t, err)
	assert.Equal(t, Page{Offset: 0, Limit: 5}, page)

	_, err = NewPage(-1, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidPage)

	_, err = NewPage(0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPage)
}

func TestSlice(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Slice(all, Page{Offset: 0, Limit: 2}))
	assert.Equal(t, []int{5}, Slice(all, Page{Offset: 4, Limit: 2}))
	assert.Equal(t, []int{}, Slice(all, Page{Offset: 10, Limit: 2}))
}
