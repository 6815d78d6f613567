// Package storage описывает контракт долговременного key-value хранилища,
// в котором витрина держит состояние устройств и список подписчиков.
// Реализации находятся в подпакетах memory, redis и postgresql.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, если ключ отсутствует в хранилище.
var ErrNotFound = errors.New("storage: key not found")

// UpdateFunc получает текущее значение ключа (found == false, если ключа нет)
// и возвращает новое значение. Ошибка отменяет запись.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// KV хранилище сырых значений по строковым ключам. Запись безусловно
// перезаписывает значение; атомарность между разными ключами не гарантируется.
type KV interface {
	// Get возвращает значение ключа или ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set записывает значение ключа.
	Set(ctx context.Context, key string, value []byte) error
	// Delete удаляет ключ. Удаление отсутствующего ключа не ошибка.
	Delete(ctx context.Context, key string) error
	// Update атомарно выполняет чтение-изменение-запись одного ключа.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Close освобождает ресурсы хранилища.
	Close() error
}
