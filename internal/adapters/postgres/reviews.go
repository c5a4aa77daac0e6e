package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/travel-agency/internal/domain"
)

// UpsertReview stores at most one review per (user, package). The returned
// flag reports whether a new row was inserted rather than an existing one overwritten.
func (r *Repository) UpsertReview(ctx context.Context, rv domain.Review) (domain.Review, bool, error) {
	var inserted bool
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM packages WHERE id = $1)`, rv.PackageID).Scan(&exists); err != nil {
			return errors.Wrap(err, "check package")
		}
		if !exists {
			return domain.ErrPackageNotFound
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO reviews (user_id, package_id, rating, comment)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT ON CONSTRAINT reviews_user_package_key
			DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment
			RETURNING id, user_id, package_id, rating, comment, (xmax = 0)
		`, rv.UserID, rv.PackageID, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.UserID, &rv.PackageID, &rv.Rating, &rv.Comment, &inserted)
		switch {
		case violates(err, ForeignKeyViolationCode, "reviews_user_id_fkey"):
			return domain.ErrUserNotFound
		case violates(err, ForeignKeyViolationCode, "reviews_package_id_fkey"):
			return domain.ErrPackageNotFound
		case err != nil:
			return errors.Wrap(err, "upsert review")
		}
		return nil
	})
	if err != nil {
		return domain.Review{}, false, err
	}
	return rv, inserted, nil
}

func (r *Repository) ListReviews(ctx context.Context) ([]domain.ReviewDetails, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			r.id, r.user_id, r.package_id, r.rating, r.comment,
			u.username, p.name, p.location, p.type, p.price
		FROM reviews r
		JOIN users u ON r.user_id = u.id
		JOIN packages p ON r.package_id = p.id
		ORDER BY r.id DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query reviews")
	}
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ReviewDetails, error) {
		var d domain.ReviewDetails
		err := row.Scan(&d.ID, &d.UserID, &d.PackageID, &d.Rating, &d.Comment,
			&d.UserName, &d.PackageName, &d.Location, &d.PackageType, &d.Price)
		return d, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan reviews")
	}
	return reviews, nil
}

func (r *Repository) DeleteReview(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete review")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}
