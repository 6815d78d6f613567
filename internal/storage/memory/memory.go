// Package memory реализует storage.KV в памяти процесса.
// Используется для локального запуска и в тестах.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
)

// Storage потокобезопасное хранилище в памяти.
type Storage struct {
	mu   sync.Mutex
	data map[string][]byte
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

// Get возвращает копию значения ключа.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.memory.Get"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(v), nil
}

// Set записывает копию значения.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const op = "storage.memory.Set"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	s.data[key] = clone(value)
	s.mu.Unlock()
	return nil
}

// Delete удаляет ключ.
func (s *Storage) Delete(ctx context.Context, key string) error {
	const op = "storage.memory.Delete"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Update выполняет fn под блокировкой хранилища.
func (s *Storage) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	const op = "storage.memory.Update"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, found := s.data[key]
	next, err := fn(clone(current), found)
	if err != nil {
		return err
	}
	s.data[key] = clone(next)
	return nil
}

// Close ничего не делает.
func (s *Storage) Close() error {
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
