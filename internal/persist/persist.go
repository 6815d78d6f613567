// Package persist реализует сохраняемые коллекции поверх storage.KV.
//
// Store кодирует значение в JSON и пишет его под ключом. Повреждённое или
// отсутствующее значение превращается в пустое значение по умолчанию:
// потеря данных предпочтительнее падения. Повреждённое значение удаляется
// из хранилища и попадает только в лог.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
)

// Ключи коллекций витрины.
const (
	CartPrefix      = "cart"
	FavoritesPrefix = "favorites"
	SessionPrefix   = "user"
	SubscribersKey  = "newsletter_subscribers"
)

// DeviceKey возвращает ключ коллекции prefix для устройства.
func DeviceKey(prefix, deviceID string) string {
	return prefix + ":" + deviceID
}

// Store сохраняемое значение типа T.
type Store[T any] struct {
	kv  storage.KV
	log *slog.Logger
	def func() T
}

// New создаёт Store. def возвращает значение по умолчанию (например, пустой срез).
func New[T any](kv storage.KV, log *slog.Logger, def func() T) *Store[T] {
	return &Store[T]{kv: kv, log: log, def: def}
}

// Load читает значение ключа. Ошибки чтения и декодирования не возвращаются:
// вместо них возвращается значение по умолчанию.
func (s *Store[T]) Load(ctx context.Context, key string) T {
	v, err := s.Fetch(ctx, key)
	if err != nil {
		s.log.Error("failed to read persisted value", sl.Op("persist.Load"), slog.String("key", key), sl.Err(err))
		return s.def()
	}
	return v
}

// Fetch читает значение ключа. Отсутствующее или повреждённое значение
// превращается в значение по умолчанию, а ошибка хранилища возвращается:
// по пустому результату неудачного чтения нельзя перезаписывать данные.
func (s *Store[T]) Fetch(ctx context.Context, key string) (T, error) {
	const op = "persist.Fetch"
	log := s.log.With(sl.Op(op), slog.String("key", key))

	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return s.def(), nil
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	v, ok := s.decode(ctx, log, key, raw)
	if !ok {
		return s.def(), nil
	}
	return v, nil
}

// Save кодирует и безусловно записывает значение.
func (s *Store[T]) Save(ctx context.Context, key string, value T) error {
	const op = "persist.Save"
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет значение ключа.
func (s *Store[T]) Delete(ctx context.Context, key string) error {
	const op = "persist.Delete"
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Update атомарно применяет fn к текущему значению и сохраняет результат.
// fn получает значение по умолчанию, если ключ отсутствует или повреждён.
// Ошибка fn отменяет запись и возвращается как есть.
func (s *Store[T]) Update(ctx context.Context, key string, fn func(T) (T, error)) (T, error) {
	const op = "persist.Update"
	log := s.log.With(sl.Op(op), slog.String("key", key))

	var result T
	err := s.kv.Update(ctx, key, func(raw []byte, found bool) ([]byte, error) {
		current := s.def()
		if found {
			if err := json.Unmarshal(raw, &current); err != nil {
				log.Warn("discarding corrupt persisted value", sl.Err(err))
				current = s.def()
			}
		}
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = next
		return encoded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func (s *Store[T]) decode(ctx context.Context, log *slog.Logger, key string, raw []byte) (T, bool) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn("discarding corrupt persisted value", sl.Err(err))
		if delErr := s.kv.Delete(ctx, key); delErr != nil {
			log.Error("failed to delete corrupt value", sl.Err(delErr))
		}
		return v, false
	}
	return v, true
}
