package postgres

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/travel-agency/internal/domain"
)

// CreateBooking reserves b.TotalPeople slots on the package and records the
// booking in one transaction. The conditional decrement locks the package row,
// so concurrent callers can never drive slot below zero.
func (r *Repository) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var slotAfter int
		err := tx.QueryRow(ctx, `
			UPDATE packages SET slot = slot - $1
			WHERE id = $2 AND slot >= $1
			RETURNING slot
		`, b.TotalPeople, b.PackageID).Scan(&slotAfter)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM packages WHERE id = $1)`, b.PackageID).Scan(&exists); err != nil {
				return errors.Wrap(err, "check package")
			}
			if !exists {
				return domain.ErrPackageNotFound
			}
			return domain.ErrNotEnoughSlots
		}
		if err != nil {
			return errors.Wrap(err, "reserve slots")
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO bookings (user_id, package_id, date, total_people)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, b.UserID, b.PackageID, b.Date.Time, b.TotalPeople).Scan(&b.ID)
		if violates(err, ForeignKeyViolationCode, "bookings_user_id_fkey") {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return errors.Wrap(err, "insert booking")
		}

		return r.insertBookingEvent(ctx, tx, domain.EventBookingCreated, b, slotAfter)
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

// CancelBooking deletes the booking and gives its slots back to the package.
// Only a booking that was actually deleted restores capacity, so a repeated
// cancel fails with ErrBookingNotFound and changes nothing.
func (r *Repository) CancelBooking(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var b domain.Booking
		err := tx.QueryRow(ctx, `
			DELETE FROM bookings WHERE id = $1
			RETURNING id, user_id, package_id, date, total_people
		`, id).Scan(&b.ID, &b.UserID, &b.PackageID, &b.Date.Time, &b.TotalPeople)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBookingNotFound
		}
		if err != nil {
			return errors.Wrap(err, "delete booking")
		}

		var slotAfter int
		err = tx.QueryRow(ctx, `
			UPDATE packages SET slot = slot + $1 WHERE id = $2 RETURNING slot
		`, b.TotalPeople, b.PackageID).Scan(&slotAfter)
		if err != nil {
			return errors.Wrap(err, "restore slots")
		}

		return r.insertBookingEvent(ctx, tx, domain.EventBookingCancelled, b, slotAfter)
	})
}

func (r *Repository) insertBookingEvent(ctx context.Context, tx pgx.Tx, eventType string, b domain.Booking, slotAfter int) error {
	payload, err := json.Marshal(domain.BookingEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		PackageID:   b.PackageID,
		TotalPeople: b.TotalPeople,
		Date:        b.Date,
		SlotAfter:   slotAfter,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal booking event")
	}
	return r.InsertOutbox(ctx, tx, OutboxRecord{
		ID:            uuid.New(),
		AggregateType: "booking",
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
		DedupeKey:     eventType + ":" + strconv.FormatInt(b.ID, 10),
	})
}

func (r *Repository) ListBookings(ctx context.Context) ([]domain.BookingDetails, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			b.id, b.user_id, b.package_id, b.date, b.total_people,
			u.username, p.name, p.type, p.price, p.location, p.duration
		FROM bookings b
		JOIN users u ON b.user_id = u.id
		JOIN packages p ON b.package_id = p.id
		ORDER BY b.date DESC, b.id DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query bookings")
	}
	bookings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BookingDetails, error) {
		var d domain.BookingDetails
		err := row.Scan(&d.ID, &d.UserID, &d.PackageID, &d.Date.Time, &d.TotalPeople,
			&d.UserName, &d.PackageName, &d.PackageType, &d.Price, &d.Location, &d.Duration)
		return d, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan bookings")
	}
	return bookings, nil
}

func (r *Repository) ListBookingsByUser(ctx context.Context, userID int64) ([]domain.UserBooking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			b.id, b.date, b.total_people,
			p.id, p.name, p.type, p.price, p.location, p.duration
		FROM bookings b
		JOIN packages p ON b.package_id = p.id
		WHERE b.user_id = $1
		ORDER BY b.date DESC, b.id DESC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query user bookings")
	}
	bookings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.UserBooking, error) {
		var ub domain.UserBooking
		err := row.Scan(&ub.BookingID, &ub.BookingDate.Time, &ub.TotalPeople,
			&ub.PackageID, &ub.PackageName, &ub.PackageType, &ub.PackagePrice, &ub.PackageLocation, &ub.PackageDuration)
		return ub, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan user bookings")
	}
	return bookings, nil
}
