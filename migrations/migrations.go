// Package migrations holds the embedded goose migrations for the Postgres
// schema.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/cockroachdb/errors"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedded embed.FS

// Up applies all pending migrations.
func Up(db *sql.DB) error {
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "failed to set goose dialect")
	}
	if err := goose.Up(db, "."); err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}
	return nil
}
