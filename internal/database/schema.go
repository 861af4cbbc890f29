package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed migrations/0001_init.up.sql
var schemaSQL string

// Migrate creates the tables if they do not exist yet. It is safe to run on
// every start.
func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
