package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/travel-agency/internal/domain"
)

const packageColumns = "id, type, name, price, slot, location, duration"

func scanPackage(row pgx.Row) (domain.Package, error) {
	var p domain.Package
	err := row.Scan(&p.ID, &p.Type, &p.Name, &p.Price, &p.Slot, &p.Location, &p.Duration)
	return p, err
}

func (r *Repository) queryPackages(ctx context.Context, q sq.SelectBuilder) ([]domain.Package, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build package query")
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query packages")
	}
	packages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Package, error) {
		return scanPackage(row)
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan packages")
	}
	return packages, nil
}

func (r *Repository) ListPackages(ctx context.Context) ([]domain.Package, error) {
	return r.queryPackages(ctx, psql.Select(packageColumns).From("packages").OrderBy("id"))
}

func (r *Repository) GetPackage(ctx context.Context, id int64) (domain.Package, error) {
	p, err := scanPackage(r.pool.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Package{}, domain.ErrPackageNotFound
	}
	if err != nil {
		return domain.Package{}, errors.Wrap(err, "select package")
	}
	return p, nil
}

// SearchPackages returns packages that can seat s.TotalPeople, cheapest first.
func (r *Repository) SearchPackages(ctx context.Context, s domain.PackageSearch) ([]domain.Package, error) {
	q := psql.Select(packageColumns).From("packages").Where(sq.GtOrEq{"slot": s.TotalPeople})
	q = withTextFilters(q, s.Type, s.Location)
	return r.queryPackages(ctx, q.OrderBy("price"))
}

func (r *Repository) AvailablePackages(ctx context.Context, f domain.AvailableFilter) ([]domain.Package, error) {
	q := psql.Select(packageColumns).From("packages").Where(sq.Gt{"slot": 0})
	if f.MaxPrice != nil {
		q = q.Where(sq.LtOrEq{"price": *f.MaxPrice})
	}
	q = withTextFilters(q, f.Type, f.Location)
	return r.queryPackages(ctx, q.OrderBy("id"))
}

func withTextFilters(q sq.SelectBuilder, typ, location string) sq.SelectBuilder {
	if typ != "" {
		q = q.Where("LOWER(type) = LOWER(?)", typ)
	}
	if location != "" {
		q = q.Where("LOWER(location) = LOWER(?)", location)
	}
	return q
}

func (r *Repository) CreatePackage(ctx context.Context, p domain.Package) (domain.Package, error) {
	created, err := scanPackage(r.pool.QueryRow(ctx, `
		INSERT INTO packages (type, name, price, slot, location, duration)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+packageColumns,
		p.Type, p.Name, p.Price, p.Slot, p.Location, p.Duration))
	if violates(err, UniqueViolationCode, "packages_name_key") {
		return domain.Package{}, domain.ErrPackageExists
	}
	if err != nil {
		return domain.Package{}, errors.Wrap(err, "insert package")
	}
	return created, nil
}

// UpdatePackage applies only the fields set in u, in fixed column order.
func (r *Repository) UpdatePackage(ctx context.Context, id int64, u domain.PackageUpdate) (domain.Package, error) {
	if u.Empty() {
		return domain.Package{}, domain.ErrNoFieldsToApply
	}
	q := psql.Update("packages")
	if u.Type != nil {
		q = q.Set("type", *u.Type)
	}
	if u.Name != nil {
		q = q.Set("name", *u.Name)
	}
	if u.Price != nil {
		q = q.Set("price", *u.Price)
	}
	if u.Slot != nil {
		q = q.Set("slot", *u.Slot)
	}
	if u.Location != nil {
		q = q.Set("location", *u.Location)
	}
	if u.Duration != nil {
		q = q.Set("duration", *u.Duration)
	}
	query, args, err := q.Where(sq.Eq{"id": id}).Suffix("RETURNING " + packageColumns).ToSql()
	if err != nil {
		return domain.Package{}, errors.Wrap(err, "build package update")
	}

	updated, err := scanPackage(r.pool.QueryRow(ctx, query, args...))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.Package{}, domain.ErrPackageNotFound
	case violates(err, UniqueViolationCode, "packages_name_key"):
		return domain.Package{}, domain.ErrPackageExists
	case violates(err, CheckViolationCode, ""):
		return domain.Package{}, errors.Mark(errors.Wrap(err, "update package"), domain.ErrInvalidInput)
	case err != nil:
		return domain.Package{}, errors.Wrap(err, "update package")
	}
	return updated, nil
}

func (r *Repository) DeletePackage(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if violates(err, ForeignKeyViolationCode, "") {
		return domain.ErrPackageInUse
	}
	if err != nil {
		return errors.Wrap(err, "delete package")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}
