// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	apperrors "github.com/myao0007/shetalks/internal/errors"
	"github.com/myao0007/shetalks/internal/model"
	"github.com/myao0007/shetalks/internal/moderation"
	"github.com/myao0007/shetalks/internal/service"
)

// Handler holds all HTTP handlers for the API.
type Handler struct {
	events   *service.EventService
	bookings *service.BookingService
	treehole *service.TreeHoleService
	gemini   *moderation.GeminiAnalyzer
	log      zerolog.Logger
}

// NewHandler constructs a Handler. gemini may be nil when model-backed
// moderation is disabled.
func NewHandler(
	events *service.EventService,
	bookings *service.BookingService,
	treehole *service.TreeHoleService,
	gemini *moderation.GeminiAnalyzer,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		events:   events,
		bookings: bookings,
		treehole: treehole,
		gemini:   gemini,
		log:      log.With().Str("component", "http").Logger(),
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with the status and code of its AppError. Anything
// else is logged and reported as a bare 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code == apperrors.ErrInternal {
		h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error: "internal error",
			Code:  string(apperrors.ErrInternal),
		})
		return
	}
	writeJSON(w, appErr.Status, model.ErrorResponse{
		Error:   appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewInvalidArgument("invalid request body: " + err.Error())
	}
	return nil
}

func eventIDParam(r *http.Request) (model.EventID, error) {
	id, err := model.ParseEventID(chi.URLParam(r, "id"))
	if err != nil {
		return 0, apperrors.NewInvalidArgument(err.Error())
	}
	return id, nil
}

func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewInvalidArgument("limit must be a non-negative integer")
	}
	return n, nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

// EventCapacity handles GET /events/{id}/capacity
func (h *Handler) EventCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	info, err := h.bookings.Capacity(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// CreateBooking handles POST /events/{id}/bookings
// The path id wins over any eventId in the body.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req model.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.EventID = id

	rec, err := h.bookings.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListEventBookings handles GET /events/{id}/bookings
func (h *Handler) ListEventBookings(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recs, err := h.bookings.ConfirmedBookings(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.BookingRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// ListUserBookings handles GET /bookings?email=&limit=
func (h *Handler) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recs, err := h.bookings.UserBookings(r.Context(), r.URL.Query().Get("email"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.BookingRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// CancelBooking handles POST /bookings/{id}/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	rec, err := h.bookings.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ─── Moderation ───────────────────────────────────────────────────────────────

// Classify handles POST /moderation/classify
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		h.writeError(w, r, err)
		return
	}

	decision, err := h.treehole.Classify(r.Context(), sub)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// ModerationStatus is the body of GET /moderation/status.
type ModerationStatus struct {
	PolicyVersion string                  `json:"policyVersion"`
	Analyzer      string                  `json:"analyzer"`
	Gemini        moderation.GeminiStatus `json:"gemini"`
}

// ModerationStatusHandler handles GET /moderation/status
func (h *Handler) ModerationStatusHandler(w http.ResponseWriter, r *http.Request) {
	st := ModerationStatus{
		PolicyVersion: moderation.PolicyVersion,
		Analyzer:      "keyword",
		Gemini:        h.gemini.Status(),
	}
	if st.Gemini.Initialized {
		st.Analyzer = "gemini"
	}
	writeJSON(w, http.StatusOK, st)
}

// SubmitPost handles POST /treehole/posts
// Posts that need revision or are rejected still return 200 with the
// decision; only malformed input is an error.
func (h *Handler) SubmitPost(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.treehole.Submit(r.Context(), sub)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Decision.Action == model.ActionApproved {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// ListPosts handles GET /treehole/posts
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	posts, err := h.treehole.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound renders unknown routes with the JSON error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, model.ErrorResponse{
		Error: "route not found: " + r.URL.Path,
		Code:  string(apperrors.ErrNotFound),
	})
}

// MethodNotAllowed renders wrong-method requests with the JSON error envelope.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{Error: "method not allowed"})
}
