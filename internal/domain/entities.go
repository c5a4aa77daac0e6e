package domain

import (
	"encoding/json"
	"strings"
	"time"
)

const RoleGuest = "guest"

const dateLayout = "2006-01-02"

// Date is a calendar date serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		// accept full timestamps, keep the calendar day
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		*d = NewDate(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

type Package struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Slot     int    `json:"slot"`
	Location string `json:"location"`
	Duration int    `json:"duration"`
}

type Booking struct {
	ID          int64 `json:"id"`
	UserID      int64 `json:"user_id"`
	PackageID   int64 `json:"package_id"`
	Date        Date  `json:"date"`
	TotalPeople int   `json:"total_people"`
}

// BookingDetails is a booking joined with its user and package for the admin list.
type BookingDetails struct {
	Booking
	UserName    string `json:"user_name"`
	PackageName string `json:"package_name"`
	PackageType string `json:"package_type"`
	Price       int64  `json:"price"`
	Location    string `json:"location"`
	Duration    int    `json:"duration"`
}

// UserBooking is one row of a user's own booking history.
type UserBooking struct {
	BookingID       int64  `json:"booking_id"`
	BookingDate     Date   `json:"booking_date"`
	TotalPeople     int    `json:"total_people"`
	PackageID       int64  `json:"package_id"`
	PackageName     string `json:"package_name"`
	PackageType     string `json:"package_type"`
	PackagePrice    int64  `json:"package_price"`
	PackageLocation string `json:"package_location"`
	PackageDuration int    `json:"package_duration"`
}

type Review struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	PackageID int64  `json:"package_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type ReviewDetails struct {
	Review
	UserName    string `json:"user_name"`
	PackageName string `json:"package_name"`
	Location    string `json:"location"`
	PackageType string `json:"package_type"`
	Price       int64  `json:"price"`
}

type Staff struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}
