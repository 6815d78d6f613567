// Package redis реализует storage.KV поверх Redis. Атомарное обновление
// построено на оптимистичной транзакции WATCH/MULTI/EXEC.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/fashion-storefront/internal/config"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
)

const defaultUpdateRetries = 16

// ErrConflict возвращается, если Update не смог применить изменение
// из-за конкурирующих записей за отведённое число попыток.
var ErrConflict = errors.New("storage.redis: too many concurrent updates")

// Storage хранилище на основе Redis.
type Storage struct {
	Db      *redis.Client
	retries int
}

// Connect создаёт клиент Redis по настройкам и проверяет соединение.
func Connect(ctx context.Context, cfg config.RedisConnection) (*redis.Client, error) {
	const op = "storage.redis.Connect"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// New оборачивает готовый клиент Redis.
func New(db *redis.Client) *Storage {
	return &Storage{Db: db, retries: defaultUpdateRetries}
}

// Get возвращает значение ключа или storage.ErrNotFound.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.redis.Get"
	val, err := s.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return val, nil
}

// Set записывает значение без срока жизни.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const op = "storage.redis.Set"
	if err := s.Db.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет ключ.
func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "storage.redis.Delete"
	if err := s.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Update читает ключ под WATCH, применяет fn и записывает результат в MULTI/EXEC.
// При конфликте транзакция повторяется. Ошибка fn возвращается без обёртки.
func (s *Storage) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	const op = "storage.redis.Update"

	var fnErr error
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			current, found = nil, false
		} else if err != nil {
			return err
		}

		next, err := fn(current, found)
		if err != nil {
			fnErr = err
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for range s.retries {
		fnErr = nil
		err := s.Db.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if fnErr != nil {
			return fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, ErrConflict)
}

// Close закрывает клиент Redis.
func (s *Storage) Close() error {
	return s.Db.Close()
}
