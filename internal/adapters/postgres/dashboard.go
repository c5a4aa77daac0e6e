package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/travel-agency/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Availability runs the three aggregate reads concurrently, each on its own pooled connection.
func (r *Repository) Availability(ctx context.Context) (domain.Availability, error) {
	var totalPackages, totalSlots, bookedPeople int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM packages`).Scan(&totalPackages)
	})
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COALESCE(SUM(slot), 0) FROM packages`).Scan(&totalSlots)
	})
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COALESCE(SUM(total_people), 0) FROM bookings`).Scan(&bookedPeople)
	})
	if err := g.Wait(); err != nil {
		return domain.Availability{}, errors.Wrap(err, "aggregate availability")
	}
	return domain.NewAvailability(totalPackages, totalSlots, bookedPeople), nil
}

func windowStart(now time.Time) time.Time {
	return now.AddDate(0, -domain.DashboardWindow, 0)
}

// MonthlyRevenue sums price*people per calendar month. Months without bookings are absent.
func (r *Repository) MonthlyRevenue(ctx context.Context, now time.Time) ([]domain.MonthlyRevenue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('month', b.date)::date AS month,
		       SUM(p.price * b.total_people)::float8 AS revenue
		FROM bookings b
		JOIN packages p ON b.package_id = p.id
		WHERE b.date >= $1
		GROUP BY 1
		ORDER BY 1
	`, windowStart(now))
	if err != nil {
		return nil, errors.Wrap(err, "query monthly revenue")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MonthlyRevenue, error) {
		var month time.Time
		var revenue *float64
		if err := row.Scan(&month, &revenue); err != nil {
			return domain.MonthlyRevenue{}, err
		}
		m := domain.MonthlyRevenue{Month: domain.MonthLabel(month)}
		if revenue != nil {
			m.Revenue = *revenue
		}
		return m, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan monthly revenue")
	}
	return out, nil
}

func (r *Repository) MonthlyBookings(ctx context.Context, now time.Time) ([]domain.MonthlyBookings, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('month', date)::date AS period, COUNT(*)
		FROM bookings
		WHERE date >= $1
		GROUP BY 1
		ORDER BY 1
	`, windowStart(now))
	if err != nil {
		return nil, errors.Wrap(err, "query monthly bookings")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MonthlyBookings, error) {
		var period time.Time
		var m domain.MonthlyBookings
		if err := row.Scan(&period, &m.Count); err != nil {
			return domain.MonthlyBookings{}, err
		}
		m.Period = domain.MonthLabel(period)
		return m, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan monthly bookings")
	}
	return out, nil
}
