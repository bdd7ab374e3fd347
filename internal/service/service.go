// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"strings"

	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/model"
	"github.com/myao0007/shetalks/internal/repository"
)

// MaxEventCapacity bounds the capacity an organiser may set.
const MaxEventCapacity = 100_000

// EventService orchestrates event-related business operations.
type EventService struct {
	events repository.EventStore
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events repository.EventStore) *EventService {
	return &EventService{events: events}
}

// CreateEvent validates the request and delegates to the repository.
// A zero capacity means the default seat limit.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, apperrors.NewInvalidArgument("event title is required")
	}
	if req.Capacity == 0 {
		req.Capacity = model.DefaultCapacity
	}
	if req.Capacity < 0 {
		return nil, apperrors.NewInvalidArgument("capacity must be a positive integer")
	}
	if req.Capacity > MaxEventCapacity {
		return nil, apperrors.NewInvalidArgument("capacity cannot exceed 100,000")
	}
	return s.events.CreateEvent(ctx, req)
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.ListEvents(ctx)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id model.EventID) (*model.Event, error) {
	if id == 0 {
		return nil, apperrors.NewInvalidArgument("event id is required")
	}
	return s.events.GetEvent(ctx, id)
}
