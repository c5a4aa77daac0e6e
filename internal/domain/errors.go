package domain

import "github.com/cockroachdb/errors"

// Error classes. Handlers map these to HTTP statuses with errors.Is.
var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInvalidInput         = errors.New("invalid input")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrHasReferences        = errors.New("referenced by other records")
	ErrUnauthorized         = errors.New("unauthorized")
)

var (
	ErrUserNotFound    = errors.Mark(errors.New("User not found"), ErrNotFound)
	ErrPackageNotFound = errors.Mark(errors.New("Package not found"), ErrNotFound)
	ErrBookingNotFound = errors.Mark(errors.New("Booking not found"), ErrNotFound)
	ErrReviewNotFound  = errors.Mark(errors.New("Review not found"), ErrNotFound)
	ErrStaffNotFound   = errors.Mark(errors.New("Staff not found."), ErrNotFound)

	ErrUsernameTaken   = errors.Mark(errors.New("Username already exists"), ErrConflict)
	ErrPackageExists   = errors.Mark(errors.New("Package Already Exists!"), ErrConflict)
	ErrPhoneTaken      = errors.Mark(errors.New("Phone Number Already Exists!"), ErrConflict)
	ErrNotEnoughSlots  = errors.Mark(errors.New("Not enough slots available"), ErrCapacityExceeded)
	ErrPackageInUse    = errors.Mark(errors.New("Package has existing bookings and cannot be deleted!"), ErrHasReferences)
	ErrBadCredentials  = errors.Mark(errors.New("Invalid Username Or Password"), ErrUnauthorized)
	ErrNoFieldsToApply = errors.Mark(errors.New("No fields to update"), ErrInvalidInput)
)

var public = []error{
	ErrUserNotFound, ErrPackageNotFound, ErrBookingNotFound, ErrReviewNotFound, ErrStaffNotFound,
	ErrUsernameTaken, ErrPackageExists, ErrPhoneTaken, ErrNotEnoughSlots, ErrPackageInUse,
	ErrBadCredentials, ErrNoFieldsToApply,
}

// PublicMessage returns the caller-facing text of err when err is one of the
// concrete domain errors above.
func PublicMessage(err error) (string, bool) {
	for _, e := range public {
		if errors.Is(err, e) {
			return e.Error(), true
		}
	}
	return "", false
}
