package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking_DefaultsToToday(t *testing.T) {
	now := time.Date(2026, 10, 16, 15, 4, 5, 0, time.UTC)

	b := NewBooking(1, 2, 3, nil, now)
	assert.Equal(t, "2026-10-16", b.Date.String())
	assert.Equal(t, 3, b.TotalPeople)

	d, err := ParseDate("2026-12-24")
	require.NoError(t, err)
	b = NewBooking(1, 2, 3, &d, now)
	assert.Equal(t, "2026-12-24", b.Date.String())
}

func TestDate_JSON(t *testing.T) {
	var req struct {
		Date *Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-03-01"}`), &req))
	require.NotNil(t, req.Date)
	assert.Equal(t, time.March, req.Date.Month())

	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-03-01T22:00:00Z"}`), &req))
	assert.Equal(t, "2026-03-01", req.Date.String())

	out, err := json.Marshal(Booking{ID: 7, Date: *req.Date})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"date":"2026-03-01"`)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"01/03/2026"}`), &req))
}

func TestNewAvailability(t *testing.T) {
	empty := NewAvailability(0, 0, 0)
	assert.Zero(t, empty.AvailableSlots)
	assert.Zero(t, empty.OccupancyPercentage)

	a := NewAvailability(3, 30, 7)
	assert.Equal(t, int64(23), a.AvailableSlots)
	assert.Equal(t, 23.33, a.OccupancyPercentage)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Oct 2026", MonthLabel(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPackageUpdate_Empty(t *testing.T) {
	assert.True(t, PackageUpdate{}.Empty())
	slot := 0
	assert.False(t, PackageUpdate{Slot: &slot}.Empty())
	assert.True(t, StaffUpdate{}.Empty())
}

func TestUser_Authenticate(t *testing.T) {
	u, err := NewUser("alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, RoleGuest, u.Role)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	assert.NoError(t, u.Authenticate("s3cret"))
	assert.True(t, errors.Is(u.Authenticate("wrong"), ErrUnauthorized))
}

func TestPublicMessage(t *testing.T) {
	msg, ok := PublicMessage(errors.Wrap(ErrNotEnoughSlots, "create booking"))
	require.True(t, ok)
	assert.Equal(t, "Not enough slots available", msg)
	assert.True(t, errors.Is(ErrNotEnoughSlots, ErrCapacityExceeded))
	assert.False(t, errors.Is(ErrNotEnoughSlots, ErrNotFound))

	_, ok = PublicMessage(errors.New("boom"))
	assert.False(t, ok)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+12015550123", NormalizePhone(" +1 201-555-0123 ", ""))
	assert.Equal(t, "+12015550123", NormalizePhone("(201) 555-0123", "us"))
	assert.Equal(t, "12345", NormalizePhone("12345", ""))
	assert.Equal(t, "", NormalizePhone("   ", "US"))
}
