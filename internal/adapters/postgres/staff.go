package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/travel-agency/internal/domain"
)

const staffColumns = "id, name, role, phone"

func scanStaff(row pgx.Row) (domain.Staff, error) {
	var s domain.Staff
	err := row.Scan(&s.ID, &s.Name, &s.Role, &s.Phone)
	return s, err
}

func (r *Repository) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "query staff")
	}
	staff, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Staff, error) {
		return scanStaff(row)
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan staff")
	}
	return staff, nil
}

func (r *Repository) CreateStaff(ctx context.Context, s domain.Staff) (domain.Staff, error) {
	created, err := scanStaff(r.pool.QueryRow(ctx, `
		INSERT INTO staff (name, role, phone) VALUES ($1, $2, $3)
		RETURNING `+staffColumns, s.Name, s.Role, s.Phone))
	if violates(err, UniqueViolationCode, "staff_phone_key") {
		return domain.Staff{}, domain.ErrPhoneTaken
	}
	if err != nil {
		return domain.Staff{}, errors.Wrap(err, "insert staff")
	}
	return created, nil
}

func (r *Repository) UpdateStaff(ctx context.Context, id int64, u domain.StaffUpdate) (domain.Staff, error) {
	if u.Empty() {
		return domain.Staff{}, domain.ErrNoFieldsToApply
	}
	q := psql.Update("staff")
	if u.Name != nil {
		q = q.Set("name", *u.Name)
	}
	if u.Role != nil {
		q = q.Set("role", *u.Role)
	}
	if u.Phone != nil {
		q = q.Set("phone", *u.Phone)
	}
	query, args, err := q.Where(sq.Eq{"id": id}).Suffix("RETURNING " + staffColumns).ToSql()
	if err != nil {
		return domain.Staff{}, errors.Wrap(err, "build staff update")
	}

	updated, err := scanStaff(r.pool.QueryRow(ctx, query, args...))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.Staff{}, domain.ErrStaffNotFound
	case violates(err, UniqueViolationCode, "staff_phone_key"):
		return domain.Staff{}, domain.ErrPhoneTaken
	case err != nil:
		return domain.Staff{}, errors.Wrap(err, "update staff")
	}
	return updated, nil
}

func (r *Repository) DeleteStaff(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete staff")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaffNotFound
	}
	return nil
}
