// Package migrations накатывает схему хранилища PostgreSQL.
// SQL-файлы встроены в бинарник, поэтому сервису не нужен путь к ним.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Run применяет все ещё не применённые миграции.
func Run(db *sql.DB) error {
	const op = "migrations.Run"
	source, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx_v5", driver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
