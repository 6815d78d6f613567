// Package cache кеширует ответы удалённого каталога в Redis в виде JSON.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache кеш JSON-значений в Redis. Все ключи получают префикс.
type Cache struct {
	Db     *redis.Client
	prefix string
}

// New создаёт кеш поверх готового клиента. Ключи хранятся как prefix + key.
func New(db *redis.Client, prefix string) *Cache {
	return &Cache{Db: db, prefix: prefix}
}

// Get декодирует значение ключа в result. found == false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set кодирует value в JSON и сохраняет его на время expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.Db.Set(ctx, c.prefix+key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет ключи.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	const op = "cache.Invalidate"
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.Db.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Nop кеш, в котором ничего не хранится. Используется без Redis.
type Nop struct{}

// Get всегда сообщает о промахе.
func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }

// Set ничего не делает.
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }

// Invalidate ничего не делает.
func (Nop) Invalidate(context.Context, ...string) error { return nil }
