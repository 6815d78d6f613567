// Package notify доставляет пользовательские уведомления, которые порождают
// операции корзины, избранного, рассылки и авторизации.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/fashion-storefront/internal/models"
)

// Notifier принимает уведомления.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Func адаптер функции к Notifier.
type Func func(ctx context.Context, n models.Notification)

// Notify вызывает f.
func (f Func) Notify(ctx context.Context, n models.Notification) {
	f(ctx, n)
}

// Info создаёт обычное уведомление.
func Info(title, description string) models.Notification {
	return models.Notification{Title: title, Description: description, Variant: models.VariantDefault}
}

// Failure создаёт уведомление об ошибке.
func Failure(title, description string) models.Notification {
	return models.Notification{Title: title, Description: description, Variant: models.VariantDestructive}
}

// Inbox буферизует уведомления устройства до тех пор, пока HTTP-слой
// не заберёт их в ответ.
type Inbox struct {
	mu    sync.Mutex
	items []models.Notification
	limit int
}

// NewInbox создаёт буфер, хранящий не более limit последних уведомлений.
func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = 32
	}
	return &Inbox{limit: limit}
}

// Notify добавляет уведомление, вытесняя самое старое при переполнении.
func (b *Inbox) Notify(_ context.Context, n models.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, n)
	if over := len(b.items) - b.limit; over > 0 {
		b.items = b.items[over:]
	}
}

// Drain возвращает накопленные уведомления и очищает буфер.
func (b *Inbox) Drain() []models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

// Log пишет уведомления в лог на уровне debug.
type Log struct {
	log *slog.Logger
}

// NewLog создаёт Notifier, пишущий в лог.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// Notify пишет уведомление в лог.
func (l *Log) Notify(ctx context.Context, n models.Notification) {
	l.log.DebugContext(ctx, "notification",
		slog.String("title", n.Title),
		slog.String("description", n.Description),
		slog.String("variant", n.Variant),
	)
}

// Multi рассылает уведомление всем получателям по порядку.
type Multi []Notifier

// Notify вызывает Notify у каждого получателя.
func (m Multi) Notify(ctx context.Context, n models.Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Discard отбрасывает уведомления.
var Discard Notifier = Func(func(context.Context, models.Notification) {})
