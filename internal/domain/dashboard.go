package domain

import (
	"math"
	"time"
)

type Availability struct {
	TotalPackages       int64   `json:"total_packages"`
	TotalSlots          int64   `json:"total_slots"`
	BookedPeople        int64   `json:"booked_people"`
	AvailableSlots      int64   `json:"available_slots"`
	OccupancyPercentage float64 `json:"occupancy_percentage"`
}

// NewAvailability derives the free capacity and occupancy from the raw sums.
// Both derived values are zero when there is no capacity at all.
func NewAvailability(totalPackages, totalSlots, bookedPeople int64) Availability {
	a := Availability{
		TotalPackages: totalPackages,
		TotalSlots:    totalSlots,
		BookedPeople:  bookedPeople,
	}
	if totalSlots > 0 {
		a.AvailableSlots = totalSlots - bookedPeople
		a.OccupancyPercentage = math.Round(float64(bookedPeople)/float64(totalSlots)*100*100) / 100
	}
	return a
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type MonthlyBookings struct {
	Period string `json:"period"`
	Count  int64  `json:"count"`
}

// MonthLabel renders a month bucket as "Jan 2006".
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// DashboardWindow is how far back the monthly series reach.
const DashboardWindow = 12
