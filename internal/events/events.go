// Package events описывает события витрины, которые уходят в брокер сообщений.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/fashion-storefront/internal/models"
)

// Ключи маршрутизации событий.
const (
	NewsletterSubscribed   = "newsletter.subscribed"
	NewsletterUnsubscribed = "newsletter.unsubscribed"
	OrderPlaced            = "order.placed"
)

// ErrMalformed сообщение нельзя разобрать. Повторная доставка его не исправит.
var ErrMalformed = errors.New("malformed event")

// Publisher публикует событие с ключом маршрутизации routingKey.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// NewsletterEvent событие изменения подписки на рассылку.
type NewsletterEvent struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribed_at"`
	Reactivated  bool      `json:"reactivated,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// OrderEvent событие оформления заказа.
type OrderEvent struct {
	Order models.Order `json:"order"`
}

// Nop отбрасывает события. Используется, когда брокер не настроен.
type Nop struct{}

// Publish ничего не делает.
func (Nop) Publish(context.Context, string, any) error {
	return nil
}
