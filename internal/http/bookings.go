package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/travel-agency/internal/domain"
	"github.com/robertarktes/travel-agency/internal/idempotency"
	"github.com/robertarktes/travel-agency/internal/observability"
)

const idempotencyHeader = "Idempotency-Key"

type createBookingRequest struct {
	UserID      int64        `json:"user_id" validate:"gt=0"`
	PackageID   int64        `json:"package_id" validate:"gt=0"`
	TotalPeople int          `json:"total_people" validate:"gt=0,lte=2147483647"`
	Date        *domain.Date `json:"date"`
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(idempotencyHeader)
	if key == "" || h.idemp == nil {
		status, body := h.createBooking(r)
		writeRaw(w, status, body)
		return
	}
	if len(key) < 16 {
		writeDetail(w, http.StatusBadRequest, "invalid Idempotency-Key")
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(payload))

	log := loggerFrom(r, h.logger).WithField("idempotency_key", key)
	claim, err := h.idemp.Begin(r.Context(), key, idempotency.Fingerprint(payload))
	switch {
	case errors.Is(err, idempotency.ErrInFlight):
		writeDetail(w, http.StatusConflict, "request with this Idempotency-Key is in progress")
		return
	case errors.Is(err, idempotency.ErrKeyReused):
		writeDetail(w, http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request body")
		return
	case err != nil:
		log.WithError(err).Warn("idempotency store unavailable, serving without replay")
		status, body := h.createBooking(r)
		writeRaw(w, status, body)
		return
	case claim.Replay != nil:
		w.Header().Set("Idempotent-Replayed", "true")
		writeRaw(w, claim.Replay.Status, claim.Replay.Result)
		return
	}

	status, body := h.createBooking(r)
	var resp *idempotency.Response
	if status < http.StatusInternalServerError {
		resp = &idempotency.Response{Status: status, Result: body}
	}
	// the request context may already be cancelled once the client is gone
	if err := h.idemp.End(context.WithoutCancel(r.Context()), key, claim, resp); err != nil {
		log.WithError(err).Warn("failed to store idempotent response")
	}
	writeRaw(w, status, body)
}

func (h *Handlers) createBooking(r *http.Request) (int, []byte) {
	var req createBookingRequest
	if err := h.decode(r, &req); err != nil {
		return h.errorResponse(r, err)
	}

	booking := domain.NewBooking(req.UserID, req.PackageID, req.TotalPeople, req.Date, h.now())
	created, err := h.stores.Bookings.CreateBooking(r.Context(), booking)
	if err != nil {
		observability.BookingsTotal.WithLabelValues("create", bookingResult(err)).Inc()
		return h.errorResponse(r, err)
	}
	observability.BookingsTotal.WithLabelValues("create", "ok").Inc()
	loggerFrom(r, h.logger).
		WithField("booking_id", created.ID).
		WithField("package_id", created.PackageID).
		WithField("total_people", created.TotalPeople).
		Info("booking created")
	return encode(http.StatusCreated, created)
}

func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.stores.Bookings.ListBookings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handlers) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bookings, err := h.stores.Bookings.ListBookingsByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.stores.Bookings.CancelBooking(r.Context(), id); err != nil {
		observability.BookingsTotal.WithLabelValues("cancel", bookingResult(err)).Inc()
		h.writeError(w, r, err)
		return
	}
	observability.BookingsTotal.WithLabelValues("cancel", "ok").Inc()
	loggerFrom(r, h.logger).WithField("booking_id", id).Info("booking cancelled")
	writeJSON(w, http.StatusOK, message{Message: "Booking cancelled successfully"})
}

func bookingResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrSerializationFailure):
		return "conflict"
	default:
		return "error"
	}
}
