package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/lock"
	"github.com/myao0007/shetalks/internal/model"
	"github.com/myao0007/shetalks/internal/moderation"
	"github.com/myao0007/shetalks/internal/repository"
)

// countingStore records how often the conditional write is reached.
type countingStore struct {
	*repository.MemoryStore
	creates atomic.Int32
}

func (c *countingStore) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.BookingRecord, error) {
	c.creates.Add(1)
	return c.MemoryStore.CreateBooking(ctx, req)
}

type busyLocker struct{}

func (busyLocker) Acquire(_ context.Context, key string, _ time.Duration) (lock.ReleaseFunc, error) {
	return nil, apperrors.NewLockBusy(key)
}

func newBookingService(t *testing.T) (*BookingService, *countingStore) {
	t.Helper()
	store := &countingStore{MemoryStore: repository.NewMemoryStore()}
	return NewBookingService(store, nil, time.Second, zerolog.Nop()), store
}

func createEvent(t *testing.T, store repository.EventStore, capacity int) *model.Event {
	t.Helper()
	ev, err := NewEventService(store).CreateEvent(context.Background(), model.CreateEventRequest{
		Title:    "Confidence circle",
		StartsAt: time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC),
		Capacity: capacity,
	})
	require.NoError(t, err)
	return ev
}

func bookingFor(id model.EventID, email string) model.BookingRequest {
	return model.BookingRequest{
		EventID:      id,
		AttendeeInfo: model.AttendeeInfo{Name: "Mei", Email: email},
	}
}

// ─── EventService ─────────────────────────────────────────────────────────────

func TestCreateEvent(t *testing.T) {
	svc := NewEventService(repository.NewMemoryStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		req      model.CreateEventRequest
		wantCap  int
		wantCode apperrors.ErrorCode
	}{
		{name: "default capacity", req: model.CreateEventRequest{Title: "Walk"}, wantCap: model.DefaultCapacity},
		{name: "explicit capacity", req: model.CreateEventRequest{Title: "Walk", Capacity: 8}, wantCap: 8},
		{name: "title trimmed blank", req: model.CreateEventRequest{Title: "   "}, wantCode: apperrors.ErrInvalidArgument},
		{name: "negative capacity", req: model.CreateEventRequest{Title: "Walk", Capacity: -1}, wantCode: apperrors.ErrInvalidArgument},
		{name: "capacity too large", req: model.CreateEventRequest{Title: "Walk", Capacity: MaxEventCapacity + 1}, wantCode: apperrors.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := svc.CreateEvent(ctx, tt.req)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, tt.wantCode), err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCap, ev.Capacity)
			assert.NotZero(t, ev.ID)
		})
	}
}

func TestGetEvent(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewEventService(store)
	ev := createEvent(t, store, 3)

	got, err := svc.GetEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.Title, got.Title)

	_, err = svc.GetEvent(context.Background(), 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))

	_, err = svc.GetEvent(context.Background(), 999)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

// ─── BookingService ───────────────────────────────────────────────────────────

func TestBook_Confirms(t *testing.T) {
	svc, store := newBookingService(t)
	ev := createEvent(t, store, 2)

	rec, err := svc.Book(context.Background(), bookingFor(ev.ID, "mei@example.com"))
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, rec.Status)
	assert.Equal(t, ev.ID, rec.EventID)
	assert.NotEmpty(t, rec.ID)
}

func TestBook_InvalidNeverReachesStore(t *testing.T) {
	svc, store := newBookingService(t)
	createEvent(t, store, 2)

	_, err := svc.Book(context.Background(), model.BookingRequest{})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidationFailed, appErr.Code)
	assert.Equal(t, []string{"Event ID is required", "Name is required", "Email is required"}, appErr.Details["errors"])
	assert.Zero(t, store.creates.Load())
}

func TestBook_UnknownEvent(t *testing.T) {
	svc, store := newBookingService(t)

	_, err := svc.Book(context.Background(), bookingFor(42, "mei@example.com"))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Zero(t, store.creates.Load())
}

func TestBook_Duplicate(t *testing.T) {
	svc, store := newBookingService(t)
	ev := createEvent(t, store, 5)
	ctx := context.Background()

	_, err := svc.Book(ctx, bookingFor(ev.ID, "mei@example.com"))
	require.NoError(t, err)

	_, err = svc.Book(ctx, bookingFor(ev.ID, "mei@example.com"))
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyBooked))

	// Email matching is case-sensitive.
	_, err = svc.Book(ctx, bookingFor(ev.ID, "Mei@example.com"))
	assert.NoError(t, err)
}

func TestBook_Full(t *testing.T) {
	svc, store := newBookingService(t)
	ev := createEvent(t, store, 1)
	ctx := context.Background()

	_, err := svc.Book(ctx, bookingFor(ev.ID, "a@example.com"))
	require.NoError(t, err)

	_, err = svc.Book(ctx, bookingFor(ev.ID, "b@example.com"))
	assert.True(t, apperrors.Is(err, apperrors.ErrEventFull))
}

func TestBook_LockBusy(t *testing.T) {
	store := &countingStore{MemoryStore: repository.NewMemoryStore()}
	svc := NewBookingService(store, busyLocker{}, time.Second, zerolog.Nop())
	ev := createEvent(t, store, 2)

	_, err := svc.Book(context.Background(), bookingFor(ev.ID, "mei@example.com"))
	assert.True(t, apperrors.Is(err, apperrors.ErrLockBusy))
	assert.Zero(t, store.creates.Load())
}

func TestBook_ConcurrentNeverOverbooks(t *testing.T) {
	svc, store := newBookingService(t)
	ev := createEvent(t, store, 5)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Book(context.Background(), bookingFor(ev.ID, fmt.Sprintf("user%d@example.com", i))); err == nil {
				accepted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(5), accepted.Load())
	info, err := svc.Capacity(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CapacityInfo{CurrentBookings: 5, MaxCapacity: 5, IsAvailable: false, RemainingSpots: 0}, info)
}

func TestBook_ConcurrentSameEmail(t *testing.T) {
	svc, store := newBookingService(t)
	ev := createEvent(t, store, 10)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Book(context.Background(), bookingFor(ev.ID, "mei@example.com")); err == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}

func TestCancel_FreesSeat(t *testing.T) {
	svc, store := newBookingService(t)
	ev := createEvent(t, store, 1)
	ctx := context.Background()

	rec, err := svc.Book(ctx, bookingFor(ev.ID, "a@example.com"))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)

	info, err := svc.Capacity(ctx, ev.ID)
	require.NoError(t, err)
	assert.True(t, info.IsAvailable)

	_, err = svc.Book(ctx, bookingFor(ev.ID, "b@example.com"))
	assert.NoError(t, err)

	_, err = svc.Cancel(ctx, " ")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))
	_, err = svc.Cancel(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestConfirmedAndUserBookings(t *testing.T) {
	svc, store := newBookingService(t)
	first := createEvent(t, store, 5)
	second := createEvent(t, store, 5)
	ctx := context.Background()

	_, err := svc.Book(ctx, bookingFor(first.ID, "mei@example.com"))
	require.NoError(t, err)
	_, err = svc.Book(ctx, bookingFor(second.ID, "mei@example.com"))
	require.NoError(t, err)
	_, err = svc.Book(ctx, bookingFor(first.ID, "ana@example.com"))
	require.NoError(t, err)

	confirmed, err := svc.ConfirmedBookings(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, confirmed, 2)

	_, err = svc.ConfirmedBookings(ctx, 999)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	history, err := svc.UserBookings(ctx, "mei@example.com", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = svc.UserBookings(ctx, "  ", 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))
}

// ─── TreeHoleService ──────────────────────────────────────────────────────────

func newTreeHole() *TreeHoleService {
	return NewTreeHoleService(
		moderation.NewModerator(nil, zerolog.Nop()),
		repository.NewMemoryStore(),
		zerolog.Nop(),
	)
}

func TestTreeHole_SubmitAndList(t *testing.T) {
	svc := newTreeHole()
	ctx := context.Background()

	ok, err := svc.Submit(ctx, model.Submission{Text: "  I am so grateful   for this community ", SubmitterID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, model.ActionApproved, ok.Decision.Action)
	assert.Equal(t, "I am so grateful for this community", ok.Post.Content)
	assert.NotEmpty(t, ok.Post.ID)

	rejected, err := svc.Submit(ctx, model.Submission{Text: "Some days I want to die"})
	require.NoError(t, err)
	assert.Equal(t, model.ActionRejected, rejected.Decision.Action)
	assert.Equal(t, model.ActionRejected, rejected.Post.Action)

	posts, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, ok.Post.ID, posts[0].ID)
}

func TestTreeHole_BlankSubmission(t *testing.T) {
	svc := newTreeHole()

	_, err := svc.Submit(context.Background(), model.Submission{Text: "   "})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))

	posts, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestTreeHole_Classify(t *testing.T) {
	decision, err := newTreeHole().Classify(context.Background(), model.Submission{Text: "you are an idiot"})
	require.NoError(t, err)
	assert.Equal(t, model.ActionNeedsRevision, decision.Action)
	assert.Equal(t, []string{moderation.SuggestionHateSpeech}, decision.Suggestions)
}
