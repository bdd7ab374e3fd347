package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myao0007/shetalks/internal/booking"
	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/model"
)

// PostgresStore implements Store with pgx directly (no ORM).
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

const bookingColumns = `id, event_id, attendee_name, attendee_email, attendee_phone, notes, status, created_at, updated_at`

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent inserts a new event and returns it with its generated id.
func (s *PostgresStore) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	event := &model.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		Capacity:    req.Capacity,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO events (title, description, location, starts_at, capacity, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		event.Title, event.Description, event.Location, event.StartsAt, event.Capacity, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// ListEvents returns all events ordered by start time.
func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, description, location, starts_at, capacity, created_at
		 FROM events
		 ORDER BY starts_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.Capacity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEvent returns a single event or a NOT_FOUND error.
func (s *PostgresStore) GetEvent(ctx context.Context, id model.EventID) (*model.Event, error) {
	var e model.Event
	err := s.db.QueryRow(ctx,
		`SELECT id, title, description, location, starts_at, capacity, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.Capacity, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", id.String())
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

// CreateBooking authorizes and inserts a booking inside one transaction.
//
// SELECT … FOR UPDATE on the event row blocks every other CreateBooking for
// the same event until this transaction commits or rolls back, so the
// confirmed bookings read below cannot change before the insert.
func (s *PostgresStore) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.BookingRecord, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	// ── Step 1: lock the event row. ──────────────────────────────────────────
	var capacity int
	err = tx.QueryRow(ctx,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`,
		req.EventID,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", req.EventID.String())
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	// ── Step 2: read confirmed bookings under the lock. ─────────────────────
	confirmed, err := queryConfirmed(ctx, tx, req.EventID)
	if err != nil {
		return nil, err
	}

	// ── Step 3: validity, duplicate and capacity rules. ─────────────────────
	if decision := booking.Authorize(req, confirmed, capacity); !decision.Accepted {
		return nil, decision.Err(req)
	}

	// ── Step 4: insert the confirmed record. ────────────────────────────────
	now := time.Now().UTC()
	rec := &model.BookingRecord{
		ID:           uuid.New().String(),
		EventID:      req.EventID,
		AttendeeInfo: req.AttendeeInfo,
		Notes:        req.Notes,
		Status:       model.BookingConfirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.EventID, rec.AttendeeInfo.Name, rec.AttendeeInfo.Email, rec.AttendeeInfo.Phone,
		rec.Notes, rec.Status, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	// ── Step 5: commit; only now do other transactions see the booking. ─────
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return rec, nil
}

// QueryConfirmed returns the confirmed bookings of an event, newest first.
func (s *PostgresStore) QueryConfirmed(ctx context.Context, eventID model.EventID) ([]model.BookingRecord, error) {
	return queryConfirmed(ctx, s.db, eventID)
}

// ListByEmail returns an attendee's booking history, newest first.
func (s *PostgresStore) ListByEmail(ctx context.Context, email string, limit int) ([]model.BookingRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE attendee_email = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		email, historyLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings by email: %w", err)
	}
	return collectBookings(rows)
}

// CancelBooking marks a booking cancelled.
func (s *PostgresStore) CancelBooking(ctx context.Context, id string) (*model.BookingRecord, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE bookings
		 SET status = $2, updated_at = $3
		 WHERE id = $1
		 RETURNING `+bookingColumns,
		id, model.BookingCancelled, time.Now().UTC(),
	)
	rec, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("booking", id)
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	return rec, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryConfirmed(ctx context.Context, q querier, eventID model.EventID) ([]model.BookingRecord, error) {
	rows, err := q.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE event_id = $1 AND status = $2
		 ORDER BY created_at DESC`,
		eventID, model.BookingConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("query confirmed bookings: %w", err)
	}
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]model.BookingRecord, error) {
	defer rows.Close()

	var out []model.BookingRecord
	for rows.Next() {
		rec, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*model.BookingRecord, error) {
	var rec model.BookingRecord
	err := row.Scan(
		&rec.ID, &rec.EventID,
		&rec.AttendeeInfo.Name, &rec.AttendeeInfo.Email, &rec.AttendeeInfo.Phone,
		&rec.Notes, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ─── Tree Hole posts ──────────────────────────────────────────────────────────

// CreatePost inserts a moderated post.
func (s *PostgresStore) CreatePost(ctx context.Context, post model.Post) (*model.Post, error) {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO posts (id, submitter_id, content, action, risk_level, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID, post.SubmitterID, post.Content, post.Action, post.RiskLevel, post.Reason, post.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return &post, nil
}

// ListPosts returns posts with the given action, newest first.
func (s *PostgresStore) ListPosts(ctx context.Context, action model.Action, limit int) ([]model.Post, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, submitter_id, content, action, risk_level, reason, created_at
		 FROM posts
		 WHERE action = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		action, historyLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.SubmitterID, &p.Content, &p.Action, &p.RiskLevel, &p.Reason, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
