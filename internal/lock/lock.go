// Package lock provides advisory locks keyed by booking scope.
//
// Capacity is protected by the event key and duplicate bookings by the
// (event, email) key. Callers take keys in the order returned by
// BookingKeys so two callers never wait on each other in reverse.
package lock

import (
	"context"
	"fmt"
	"time"
)

// ReleaseFunc gives a held lock back.
type ReleaseFunc func(ctx context.Context) error

// Locker hands out exclusive, expiring locks by key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

// EventKey guards the capacity of one event.
func EventKey(eventID int64) string {
	return fmt.Sprintf("booking:event:%d", eventID)
}

// EmailKey guards the (event, email) uniqueness rule.
func EmailKey(eventID int64, email string) string {
	return fmt.Sprintf("booking:event:%d:email:%s", eventID, email)
}

// BookingKeys returns the keys a booking write must hold, in acquisition order.
func BookingKeys(eventID int64, email string) []string {
	return []string{EventKey(eventID), EmailKey(eventID, email)}
}

// AcquireAll takes every key in order. On failure the keys already held are
// released and the error is returned.
func AcquireAll(ctx context.Context, l Locker, ttl time.Duration, keys ...string) (ReleaseFunc, error) {
	held := make([]ReleaseFunc, 0, len(keys))
	releaseAll := func(ctx context.Context) error {
		var firstErr error
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i](ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, key := range keys {
		release, err := l.Acquire(ctx, key, ttl)
		if err != nil {
			_ = releaseAll(context.WithoutCancel(ctx))
			return nil, err
		}
		held = append(held, release)
	}
	return releaseAll, nil
}
