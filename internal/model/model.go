// Package model defines the core domain types for event booking and
// Tree Hole moderation.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultCapacity is the seat limit applied when an event does not set one.
const DefaultCapacity = 20

// EventID identifies an event. JSON accepts either a number or a numeric
// string so clients that send "5" and 5 address the same event.
type EventID int64

// ParseEventID converts a path or query value into an EventID.
func ParseEventID(s string) (EventID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid event id %q", s)
	}
	return EventID(n), nil
}

func (id EventID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *EventID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*id = 0
			return nil
		}
		parsed, err := ParseEventID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid event id %s", data)
	}
	*id = EventID(n)
	return nil
}

// Event represents a bookable community event.
type Event struct {
	ID          EventID   `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	Capacity    int       `json:"capacity"`
}

// AttendeeInfo identifies the person a booking is for.
type AttendeeInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// BookingRequest is a proposed booking before any checks have run.
type BookingRequest struct {
	EventID      EventID      `json:"eventId"`
	AttendeeInfo AttendeeInfo `json:"attendeeInfo"`
	Notes        string       `json:"notes,omitempty"`
}

// BookingStatus is the lifecycle state of a stored booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingTest      BookingStatus = "test"
)

// BookingRecord is a persisted booking. Only the store creates or mutates it.
type BookingRecord struct {
	ID           string        `json:"id"`
	EventID      EventID       `json:"eventId"`
	AttendeeInfo AttendeeInfo  `json:"attendeeInfo"`
	Notes        string        `json:"notes,omitempty"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// CapacityInfo summarises seat usage for an event.
type CapacityInfo struct {
	CurrentBookings int  `json:"currentBookings"`
	MaxCapacity     int  `json:"maxCapacity"`
	IsAvailable     bool `json:"isAvailable"`
	RemainingSpots  int  `json:"remainingSpots"`
}

// ValidationResult lists every structural problem found in a request.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Submission is free text sent in for moderation.
type Submission struct {
	Text        string `json:"text"`
	SubmitterID string `json:"submitterId,omitempty"`
}

// Sentiment is the overall tone of a text.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ContentAnalysis holds the per-check results for one text.
type ContentAnalysis struct {
	HateSpeech    bool      `json:"hateSpeech"`
	SelfHarm      bool      `json:"selfHarm"`
	Inappropriate bool      `json:"inappropriate"`
	Spam          bool      `json:"spam"`
	Sentiment     Sentiment `json:"sentiment"`
}

// RiskLevel is an ordered risk category.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders risk levels: low < medium < high.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// Action is what the caller should do with moderated content.
type Action string

const (
	ActionApproved      Action = "approved"
	ActionNeedsRevision Action = "needs_revision"
	ActionRejected      Action = "rejected"
)

// ModerationDecision is the outcome of classifying a text.
type ModerationDecision struct {
	Action      Action    `json:"action"`
	Reason      string    `json:"reason"`
	Suggestions []string  `json:"suggestions"`
	RiskLevel   RiskLevel `json:"riskLevel"`
}

// Post is an anonymous Tree Hole post together with its moderation outcome.
type Post struct {
	ID          string    `json:"id"`
	SubmitterID string    `json:"-"`
	Content     string    `json:"content"`
	Action      Action    `json:"action"`
	RiskLevel   RiskLevel `json:"riskLevel"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SubmitResult is returned after a Tree Hole submission is moderated.
type SubmitResult struct {
	Post     Post               `json:"post"`
	Decision ModerationDecision `json:"decision"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
