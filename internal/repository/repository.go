// Package repository persists events, bookings and Tree Hole posts.
//
// ─────────────────────────────────────────────────────────────────────────────
// BOOKING WRITE CONTRACT
// ─────────────────────────────────────────────────────────────────────────────
//
// booking.Authorize only inspects the confirmed bookings it is handed. If a
// caller reads them, decides, and then inserts as three separate steps, two
// concurrent requests can both see a free seat (or no duplicate) and both
// write:
//
//	A: read confirmed for event 7 → 19 of 20
//	B: read confirmed for event 7 → 19 of 20
//	A: accept, insert → 20
//	B: accept, insert → 21. OVERBOOKED.
//
// Every BookingStore therefore runs read → Authorize → insert as one atomic
// step inside CreateBooking. The postgres store holds a row lock on the event
// for the whole transaction; the memory store holds its mutex.
// ─────────────────────────────────────────────────────────────────────────────
package repository

import (
	"context"

	"github.com/myao0007/shetalks/internal/model"
)

// DefaultHistoryLimit caps ListByEmail when no limit is given.
const DefaultHistoryLimit = 50

// EventStore handles persistence for events.
type EventStore interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id model.EventID) (*model.Event, error)
}

// BookingStore handles persistence for bookings.
type BookingStore interface {
	// CreateBooking authorizes req against the event's confirmed bookings
	// and capacity and inserts it as a confirmed record, atomically.
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.BookingRecord, error)
	// QueryConfirmed returns the confirmed bookings of an event, newest first.
	QueryConfirmed(ctx context.Context, eventID model.EventID) ([]model.BookingRecord, error)
	// ListByEmail returns an attendee's bookings of any status, newest first.
	ListByEmail(ctx context.Context, email string, limit int) ([]model.BookingRecord, error)
	// CancelBooking marks a booking cancelled and returns it.
	CancelBooking(ctx context.Context, id string) (*model.BookingRecord, error)
}

// PostStore handles persistence for Tree Hole posts.
type PostStore interface {
	// CreatePost stores post, assigning ID and CreatedAt when empty.
	CreatePost(ctx context.Context, post model.Post) (*model.Post, error)
	// ListPosts returns posts with the given action, newest first.
	ListPosts(ctx context.Context, action model.Action, limit int) ([]model.Post, error)
}

// Store is everything the service needs from persistence.
type Store interface {
	EventStore
	BookingStore
	PostStore
	Close()
}

func historyLimit(limit int) int {
	if limit <= 0 || limit > DefaultHistoryLimit {
		return DefaultHistoryLimit
	}
	return limit
}
