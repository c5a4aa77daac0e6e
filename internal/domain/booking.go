package domain

import "time"

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// NewBooking builds an unsaved booking. A nil date means the booking is for today.
func NewBooking(userID, packageID int64, totalPeople int, date *Date, now time.Time) Booking {
	d := NewDate(now)
	if date != nil && !date.IsZero() {
		d = *date
	}
	return Booking{
		UserID:      userID,
		PackageID:   packageID,
		Date:        d,
		TotalPeople: totalPeople,
	}
}

// BookingEvent is the payload written to the outbox when the ledger changes.
type BookingEvent struct {
	BookingID   int64     `json:"booking_id"`
	UserID      int64     `json:"user_id"`
	PackageID   int64     `json:"package_id"`
	TotalPeople int       `json:"total_people"`
	Date        Date      `json:"date"`
	SlotAfter   int       `json:"slot_after"`
	OccurredAt  time.Time `json:"occurred_at"`
}
