package booking

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/model"
)

func confirmedBookings(eventID model.EventID, n int) []model.BookingRecord {
	out := make([]model.BookingRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.BookingRecord{
			EventID:      eventID,
			AttendeeInfo: model.AttendeeInfo{Name: "Guest", Email: fmt.Sprintf("guest%d@example.com", i)},
			Status:       model.BookingConfirmed,
		})
	}
	return out
}

func validRequest() model.BookingRequest {
	return model.BookingRequest{
		EventID:      5,
		AttendeeInfo: model.AttendeeInfo{Name: "Ada", Email: "ada@example.com"},
	}
}

func TestValidate_Empty(t *testing.T) {
	got := Validate(model.BookingRequest{})

	assert.False(t, got.IsValid)
	assert.Equal(t, []string{MsgEventIDRequired, MsgNameRequired, MsgEmailRequired}, got.Errors)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  model.BookingRequest
		want []string
	}{
		{
			name: "valid",
			req:  validRequest(),
			want: []string{},
		},
		{
			name: "malformed email only",
			req:  model.BookingRequest{EventID: 1, AttendeeInfo: model.AttendeeInfo{Name: "A", Email: "bad-email"}},
			want: []string{MsgInvalidEmailFormat},
		},
		{
			name: "blank name is trimmed",
			req:  model.BookingRequest{EventID: 1, AttendeeInfo: model.AttendeeInfo{Name: "   ", Email: "a@b.co"}},
			want: []string{MsgNameRequired},
		},
		{
			name: "blank email skips format check",
			req:  model.BookingRequest{EventID: 1, AttendeeInfo: model.AttendeeInfo{Name: "A", Email: "  "}},
			want: []string{MsgEmailRequired},
		},
		{
			name: "missing event and malformed email accumulate",
			req:  model.BookingRequest{AttendeeInfo: model.AttendeeInfo{Name: "A", Email: "a@b"}},
			want: []string{MsgEventIDRequired, MsgInvalidEmailFormat},
		},
		{
			name: "email with inner space is malformed",
			req:  model.BookingRequest{EventID: 1, AttendeeInfo: model.AttendeeInfo{Name: "A", Email: "a b@c.com"}},
			want: []string{MsgInvalidEmailFormat},
		},
		{
			name: "double at is malformed",
			req:  model.BookingRequest{EventID: 1, AttendeeInfo: model.AttendeeInfo{Name: "A", Email: "a@@c.com"}},
			want: []string{MsgInvalidEmailFormat},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.req)
			assert.Equal(t, tt.want, got.Errors)
			assert.Equal(t, len(tt.want) == 0, got.IsValid)
		})
	}
}

func TestHasDuplicateBooking(t *testing.T) {
	existing := []model.BookingRecord{{
		EventID:      5,
		AttendeeInfo: model.AttendeeInfo{Email: "x@y.com"},
		Status:       model.BookingConfirmed,
	}}

	assert.True(t, HasDuplicateBooking(5, "x@y.com", existing))
	assert.False(t, HasDuplicateBooking(5, "x@y.com", nil))
	assert.False(t, HasDuplicateBooking(5, "x@y.com", []model.BookingRecord{}))
	assert.False(t, HasDuplicateBooking(6, "x@y.com", existing), "different event")
	assert.False(t, HasDuplicateBooking(5, "X@y.com", existing), "email match is case-sensitive")

	cancelled := []model.BookingRecord{{
		EventID:      5,
		AttendeeInfo: model.AttendeeInfo{Email: "x@y.com"},
		Status:       model.BookingCancelled,
	}}
	assert.False(t, HasDuplicateBooking(5, "x@y.com", cancelled))
}

func TestComputeCapacity(t *testing.T) {
	got := ComputeCapacity(confirmedBookings(1, 19), 20)
	assert.Equal(t, model.CapacityInfo{CurrentBookings: 19, MaxCapacity: 20, IsAvailable: true, RemainingSpots: 1}, got)

	got = ComputeCapacity(confirmedBookings(1, 20), 20)
	assert.Equal(t, model.CapacityInfo{CurrentBookings: 20, MaxCapacity: 20, IsAvailable: false, RemainingSpots: 0}, got)

	got = ComputeCapacity(confirmedBookings(1, 25), 20)
	assert.False(t, got.IsAvailable)
	assert.Equal(t, 0, got.RemainingSpots, "remaining spots never go negative")
}

func TestComputeCapacity_Defaults(t *testing.T) {
	got := ComputeCapacity(nil, 0)
	assert.Equal(t, model.CapacityInfo{CurrentBookings: 0, MaxCapacity: model.DefaultCapacity, IsAvailable: true, RemainingSpots: 20}, got)
}

func TestComputeCapacity_RemainingAndAvailability(t *testing.T) {
	for maxCap := 1; maxCap <= 5; maxCap++ {
		for n := 0; n <= 7; n++ {
			got := ComputeCapacity(confirmedBookings(1, n), maxCap)
			require.Equal(t, max(0, maxCap-n), got.RemainingSpots)
			require.Equal(t, n < maxCap, got.IsAvailable)
		}
	}
}

func TestAuthorize(t *testing.T) {
	req := validRequest()

	d := Authorize(req, confirmedBookings(5, 3), 20)
	assert.True(t, d.Accepted)
	assert.Equal(t, ReasonNone, d.Reason)
	assert.NoError(t, d.Err(req))

	d = Authorize(model.BookingRequest{}, nil, 20)
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonInvalid, d.Reason)
	assert.True(t, apperrors.Is(d.Err(model.BookingRequest{}), apperrors.ErrValidationFailed))

	existing := append(confirmedBookings(5, 2), model.BookingRecord{
		EventID:      5,
		AttendeeInfo: req.AttendeeInfo,
		Status:       model.BookingConfirmed,
	})
	d = Authorize(req, existing, 20)
	assert.Equal(t, ReasonDuplicate, d.Reason)
	assert.True(t, apperrors.Is(d.Err(req), apperrors.ErrAlreadyBooked))

	d = Authorize(req, confirmedBookings(5, 20), 20)
	assert.Equal(t, ReasonFull, d.Reason)
	assert.True(t, apperrors.Is(d.Err(req), apperrors.ErrEventFull))
}

func TestAuthorize_DuplicateCheckedBeforeCapacity(t *testing.T) {
	req := validRequest()
	full := confirmedBookings(5, 19)
	full = append(full, model.BookingRecord{EventID: 5, AttendeeInfo: req.AttendeeInfo, Status: model.BookingConfirmed})

	d := Authorize(req, full, 20)
	assert.Equal(t, ReasonDuplicate, d.Reason)
}

func TestAuthorize_ConcurrentCallers(t *testing.T) {
	existing := confirmedBookings(5, 10)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := Authorize(validRequest(), existing, 20)
			assert.True(t, d.Accepted)
		}()
	}
	wg.Wait()
}
