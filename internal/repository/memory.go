package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/myao0007/shetalks/internal/booking"
	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/model"
)

// MemoryStore implements Store in process memory. It is used for local runs
// and tests; data is lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	events      map[model.EventID]model.Event
	nextEventID model.EventID
	bookings    []model.BookingRecord
	posts       []model.Post
	now         func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:      make(map[model.EventID]model.Event),
		nextEventID: 1,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// CreateEvent stores a new event with the next sequential id.
func (s *MemoryStore) CreateEvent(_ context.Context, req model.CreateEventRequest) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := model.Event{
		ID:          s.nextEventID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		Capacity:    req.Capacity,
		CreatedAt:   s.now(),
	}
	s.events[e.ID] = e
	s.nextEventID++
	return &e, nil
}

// ListEvents returns all events ordered by start time.
func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].StartsAt.Equal(events[j].StartsAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil
}

// GetEvent returns a single event or a NOT_FOUND error.
func (s *MemoryStore) GetEvent(_ context.Context, id model.EventID) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, apperrors.NewNotFound("event", id.String())
	}
	return &e, nil
}

// CreateBooking authorizes and inserts a booking while holding the write lock.
func (s *MemoryStore) CreateBooking(_ context.Context, req model.BookingRequest) (*model.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[req.EventID]
	if !ok {
		return nil, apperrors.NewNotFound("event", req.EventID.String())
	}

	if decision := booking.Authorize(req, s.confirmedLocked(req.EventID), event.Capacity); !decision.Accepted {
		return nil, decision.Err(req)
	}

	now := s.now()
	rec := model.BookingRecord{
		ID:           uuid.New().String(),
		EventID:      req.EventID,
		AttendeeInfo: req.AttendeeInfo,
		Notes:        req.Notes,
		Status:       model.BookingConfirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.bookings = append(s.bookings, rec)
	return &rec, nil
}

// QueryConfirmed returns the confirmed bookings of an event, newest first.
func (s *MemoryStore) QueryConfirmed(_ context.Context, eventID model.EventID) ([]model.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confirmedLocked(eventID), nil
}

func (s *MemoryStore) confirmedLocked(eventID model.EventID) []model.BookingRecord {
	var out []model.BookingRecord
	for _, b := range s.bookings {
		if b.EventID == eventID && b.Status == model.BookingConfirmed {
			out = append(out, b)
		}
	}
	newestFirst(out)
	return out
}

// ListByEmail returns an attendee's booking history, newest first.
func (s *MemoryStore) ListByEmail(_ context.Context, email string, limit int) ([]model.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.BookingRecord
	for _, b := range s.bookings {
		if b.AttendeeInfo.Email == email {
			out = append(out, b)
		}
	}
	newestFirst(out)
	if n := historyLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// CancelBooking marks a booking cancelled.
func (s *MemoryStore) CancelBooking(_ context.Context, id string) (*model.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bookings {
		if s.bookings[i].ID == id {
			s.bookings[i].Status = model.BookingCancelled
			s.bookings[i].UpdatedAt = s.now()
			rec := s.bookings[i]
			return &rec, nil
		}
	}
	return nil, apperrors.NewNotFound("booking", id)
}

// CreatePost stores a moderated post.
func (s *MemoryStore) CreatePost(_ context.Context, post model.Post) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.now()
	}
	s.posts = append(s.posts, post)
	return &post, nil
}

// ListPosts returns posts with the given action, newest first.
func (s *MemoryStore) ListPosts(_ context.Context, action model.Action, limit int) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Post
	for i := len(s.posts) - 1; i >= 0; i-- {
		if s.posts[i].Action == action {
			out = append(out, s.posts[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if n := historyLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// newestFirst sorts by CreatedAt descending, breaking ties by reverse
// insertion order so the latest write still comes first.
func newestFirst(recs []model.BookingRecord) {
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
}
