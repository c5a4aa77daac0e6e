package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/robertarktes/travel-agency/internal/config"
	"github.com/robertarktes/travel-agency/internal/domain"
	"github.com/robertarktes/travel-agency/internal/idempotency"
	"github.com/robertarktes/travel-agency/internal/observability"
)

type UserStore interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
}

type PackageStore interface {
	ListPackages(ctx context.Context) ([]domain.Package, error)
	GetPackage(ctx context.Context, id int64) (domain.Package, error)
	SearchPackages(ctx context.Context, s domain.PackageSearch) ([]domain.Package, error)
	AvailablePackages(ctx context.Context, f domain.AvailableFilter) ([]domain.Package, error)
	CreatePackage(ctx context.Context, p domain.Package) (domain.Package, error)
	UpdatePackage(ctx context.Context, id int64, u domain.PackageUpdate) (domain.Package, error)
	DeletePackage(ctx context.Context, id int64) error
}

// BookingLedger owns every change to a package's slot count.
type BookingLedger interface {
	CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
	CancelBooking(ctx context.Context, id int64) error
	ListBookings(ctx context.Context) ([]domain.BookingDetails, error)
	ListBookingsByUser(ctx context.Context, userID int64) ([]domain.UserBooking, error)
}

type ReviewStore interface {
	UpsertReview(ctx context.Context, rv domain.Review) (domain.Review, bool, error)
	ListReviews(ctx context.Context) ([]domain.ReviewDetails, error)
	DeleteReview(ctx context.Context, id int64) error
}

type StaffStore interface {
	ListStaff(ctx context.Context) ([]domain.Staff, error)
	CreateStaff(ctx context.Context, s domain.Staff) (domain.Staff, error)
	UpdateStaff(ctx context.Context, id int64, u domain.StaffUpdate) (domain.Staff, error)
	DeleteStaff(ctx context.Context, id int64) error
}

type Dashboard interface {
	Availability(ctx context.Context) (domain.Availability, error)
	MonthlyRevenue(ctx context.Context, now time.Time) ([]domain.MonthlyRevenue, error)
	MonthlyBookings(ctx context.Context, now time.Time) ([]domain.MonthlyBookings, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores groups the persistence dependencies. The Postgres repository satisfies all of them.
type Stores struct {
	Users     UserStore
	Packages  PackageStore
	Bookings  BookingLedger
	Reviews   ReviewStore
	Staff     StaffStore
	Dashboard Dashboard
	Health    Pinger
}

// Idempotent replays responses for repeated Idempotency-Key requests.
type Idempotent interface {
	Begin(ctx context.Context, key, fingerprint string) (*idempotency.Claim, error)
	End(ctx context.Context, key string, claim *idempotency.Claim, resp *idempotency.Response) error
}

type Handlers struct {
	cfg      *config.Config
	stores   Stores
	idemp    Idempotent
	logger   observability.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewHandlers(cfg *config.Config, stores Stores, idemp Idempotent, logger observability.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		stores:   stores,
		idemp:    idemp,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
	}
}

type detail struct {
	Detail interface{} `json:"detail"`
}

type message struct {
	Message string `json:"message"`
}

func encode(status int, v interface{}) (int, []byte) {
	data, err := json.Marshal(v)
	if err != nil {
		return http.StatusInternalServerError, []byte(`{"detail":"Internal Server Error"}`)
	}
	return status, data
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	code, body := encode(status, v)
	writeRaw(w, code, body)
}

// errorResponse maps an error class to its status and a {"detail": ...} body.
func (h *Handlers) errorResponse(r *http.Request, err error) (int, []byte) {
	var verrs validationErrors
	if errors.As(err, &verrs) {
		return encode(http.StatusUnprocessableEntity, detail{Detail: verrs})
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrCapacityExceeded), errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrHasReferences), errors.Is(err, domain.ErrSerializationFailure):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	msg, ok := domain.PublicMessage(err)
	switch {
	case ok:
	case errors.Is(err, domain.ErrSerializationFailure):
		msg = "conflict, try again"
	case status == http.StatusInternalServerError:
		loggerFrom(r, h.logger).WithError(err).Error("request failed")
		msg = "Internal Server Error"
	default:
		msg = err.Error()
	}
	return encode(status, detail{Detail: msg})
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := h.errorResponse(r, err)
	writeRaw(w, status, body)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, detail{Detail: msg})
}

// decode reads a JSON body into dst and validates it.
func (h *Handlers) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid request body"), domain.ErrInvalidInput)
	}
	return h.check(dst)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, validationErrors{{Field: name, Message: "must be a positive integer"}}
	}
	return id, nil
}

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Travel Agency Management API",
		"status":  "running",
	})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.stores.Health.Ping(ctx); err != nil {
		loggerFrom(r, h.logger).WithError(err).Warn("readiness check failed")
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
