// Package postgresql реализует storage.KV поверх таблицы kv_store в PostgreSQL.
// Атомарное обновление выполняется в транзакции с блокировкой строки SELECT ... FOR UPDATE.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/fashion-storefront/internal/migrations"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New подключается к PostgreSQL и накатывает миграции.
func New(ctx context.Context, connectionString string) (*Storage, error) {
	const op = "storage.postgresql.New"

	db, err := sql.Open("pgx", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// Get возвращает значение ключа или storage.ErrNotFound.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.postgresql.Get"

	var value []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = $1 AND value IS NOT NULL`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

// Set записывает значение ключа, перезаписывая прежнее.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const op = "storage.postgresql.Set"

	query := `INSERT INTO kv_store (key, value, updated_at)
			  VALUES ($1, $2, now())
			  ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет ключ.
func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "storage.postgresql.Delete"

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Update блокирует строку ключа, применяет fn и сохраняет результат в той же транзакции.
// Для отсутствующего ключа строка-заглушка создаётся внутри транзакции и
// исчезает при откате. Ошибка fn возвращается без обёртки.
func (s *Storage) Update(ctx context.Context, key string, fn storage.UpdateFunc) (err error) {
	const op = "storage.postgresql.Update"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO kv_store (key, value) VALUES ($1, NULL) ON CONFLICT (key) DO NOTHING`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var current []byte
	if err = tx.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key = $1 FOR UPDATE`, key).Scan(&current); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	next, err := fn(current, current != nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE kv_store SET value = $2, updated_at = now() WHERE key = $1`, key, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}
