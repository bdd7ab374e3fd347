// Package booking decides whether a booking request may be accepted given
// the confirmed bookings already held for the event.
//
// The functions here only read what they are given. They do not make a
// read-then-write sequence safe: a store must run Authorize and the insert
// atomically (see repository.BookingStore).
package booking

import (
	"regexp"
	"strings"

	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/model"
)

// Validation messages, in check order.
const (
	MsgEventIDRequired    = "Event ID is required"
	MsgNameRequired       = "Name is required"
	MsgEmailRequired      = "Email is required"
	MsgInvalidEmailFormat = "Invalid email format"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks the structure of a request and reports every violated rule.
func Validate(req model.BookingRequest) model.ValidationResult {
	errs := []string{}

	if req.EventID == 0 {
		errs = append(errs, MsgEventIDRequired)
	}
	if strings.TrimSpace(req.AttendeeInfo.Name) == "" {
		errs = append(errs, MsgNameRequired)
	}
	if strings.TrimSpace(req.AttendeeInfo.Email) == "" {
		errs = append(errs, MsgEmailRequired)
	} else if !emailPattern.MatchString(req.AttendeeInfo.Email) {
		errs = append(errs, MsgInvalidEmailFormat)
	}

	return model.ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// HasDuplicateBooking reports whether confirmed already holds a confirmed
// booking for eventID under exactly this email (case-sensitive).
func HasDuplicateBooking(eventID model.EventID, email string, confirmed []model.BookingRecord) bool {
	for _, b := range confirmed {
		if b.Status != model.BookingConfirmed {
			continue
		}
		if b.EventID == eventID && b.AttendeeInfo.Email == email {
			return true
		}
	}
	return false
}

// ComputeCapacity summarises seat usage. maxCapacity <= 0 selects
// model.DefaultCapacity.
func ComputeCapacity(confirmed []model.BookingRecord, maxCapacity int) model.CapacityInfo {
	if maxCapacity <= 0 {
		maxCapacity = model.DefaultCapacity
	}
	current := 0
	for _, b := range confirmed {
		if b.Status == model.BookingConfirmed {
			current++
		}
	}
	return model.CapacityInfo{
		CurrentBookings: current,
		MaxCapacity:     maxCapacity,
		IsAvailable:     current < maxCapacity,
		RemainingSpots:  max(0, maxCapacity-current),
	}
}

// RejectReason says why a booking was refused.
type RejectReason string

const (
	ReasonNone      RejectReason = ""
	ReasonInvalid   RejectReason = "invalid"
	ReasonDuplicate RejectReason = "duplicate"
	ReasonFull      RejectReason = "full"
)

// Decision is the outcome of Authorize.
type Decision struct {
	Accepted   bool
	Reason     RejectReason
	Validation model.ValidationResult
	Capacity   model.CapacityInfo
}

// Authorize accepts a request only if it is valid, not a duplicate and the
// event still has a free seat. Checks run in that order.
func Authorize(req model.BookingRequest, confirmed []model.BookingRecord, maxCapacity int) Decision {
	d := Decision{
		Validation: Validate(req),
		Capacity:   ComputeCapacity(confirmed, maxCapacity),
	}
	switch {
	case !d.Validation.IsValid:
		d.Reason = ReasonInvalid
	case HasDuplicateBooking(req.EventID, req.AttendeeInfo.Email, confirmed):
		d.Reason = ReasonDuplicate
	case !d.Capacity.IsAvailable:
		d.Reason = ReasonFull
	default:
		d.Accepted = true
	}
	return d
}

// Err converts a rejected decision into the matching typed error.
// It returns nil for an accepted decision.
func (d Decision) Err(req model.BookingRequest) error {
	switch d.Reason {
	case ReasonInvalid:
		return apperrors.NewValidationFailed(d.Validation.Errors)
	case ReasonDuplicate:
		return apperrors.NewAlreadyBooked(int64(req.EventID), req.AttendeeInfo.Email)
	case ReasonFull:
		return apperrors.NewEventFull(int64(req.EventID), d.Capacity.MaxCapacity)
	default:
		return nil
	}
}
