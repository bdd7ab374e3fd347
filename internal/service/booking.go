package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/myao0007/shetalks/internal/booking"
	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/lock"
	"github.com/myao0007/shetalks/internal/model"
	"github.com/myao0007/shetalks/internal/repository"
)

// BookingStores is what BookingService needs from persistence.
type BookingStores interface {
	repository.EventStore
	repository.BookingStore
}

// BookingService places and inspects event bookings.
type BookingService struct {
	store   BookingStores
	locker  lock.Locker
	lockTTL time.Duration
	log     zerolog.Logger
}

// NewBookingService constructs a BookingService. A nil locker uses an
// in-process one.
func NewBookingService(store BookingStores, locker lock.Locker, lockTTL time.Duration, log zerolog.Logger) *BookingService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &BookingService{
		store:   store,
		locker:  locker,
		lockTTL: lockTTL,
		log:     log.With().Str("component", "booking").Logger(),
	}
}

// Book validates req and creates a confirmed booking.
//
// The advisory lock serialises writers across instances; the store's
// CreateBooking re-checks duplicates and capacity atomically regardless.
func (s *BookingService) Book(ctx context.Context, req model.BookingRequest) (*model.BookingRecord, error) {
	if v := booking.Validate(req); !v.IsValid {
		return nil, apperrors.NewValidationFailed(v.Errors)
	}
	if _, err := s.store.GetEvent(ctx, req.EventID); err != nil {
		return nil, err
	}

	release, err := lock.AcquireAll(ctx, s.locker, s.lockTTL,
		lock.BookingKeys(int64(req.EventID), req.AttendeeInfo.Email)...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn().Err(err).Int64("event_id", int64(req.EventID)).Msg("release booking lock")
		}
	}()

	rec, err := s.store.CreateBooking(ctx, req)
	if err != nil {
		s.log.Info().Err(err).Int64("event_id", int64(req.EventID)).Msg("booking rejected")
		return nil, err
	}

	s.log.Info().
		Str("booking_id", rec.ID).
		Int64("event_id", int64(rec.EventID)).
		Msg("booking confirmed")
	return rec, nil
}

// Capacity reports seat usage for an event.
func (s *BookingService) Capacity(ctx context.Context, eventID model.EventID) (model.CapacityInfo, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.CapacityInfo{}, err
	}
	confirmed, err := s.store.QueryConfirmed(ctx, eventID)
	if err != nil {
		return model.CapacityInfo{}, err
	}
	return booking.ComputeCapacity(confirmed, event.Capacity), nil
}

// ConfirmedBookings returns the confirmed bookings of an event, newest first.
func (s *BookingService) ConfirmedBookings(ctx context.Context, eventID model.EventID) ([]model.BookingRecord, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.QueryConfirmed(ctx, eventID)
}

// UserBookings returns an attendee's booking history, newest first.
func (s *BookingService) UserBookings(ctx context.Context, email string, limit int) ([]model.BookingRecord, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.NewInvalidArgument("email is required")
	}
	return s.store.ListByEmail(ctx, email, limit)
}

// Cancel marks a booking cancelled, freeing its seat.
func (s *BookingService) Cancel(ctx context.Context, id string) (*model.BookingRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewInvalidArgument("booking id is required")
	}
	rec, err := s.store.CancelBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("booking_id", rec.ID).Int64("event_id", int64(rec.EventID)).Msg("booking cancelled")
	return rec, nil
}
