package postgres

import (
	"context"
	_ "embed"

	"github.com/cockroachdb/errors"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}
