package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// Publisher публикует события в обменник. Канал AMQP не рассчитан
// на конкурентную публикацию, поэтому вызовы сериализуются.
type Publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewPublisher создаёт Publisher для канала ch и обменника exchange.
func NewPublisher(ch *amqp.Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// Publish сериализует event в JSON и публикует его как persistent-сообщение.
func (p *Publisher) Publish(ctx context.Context, routingKey string, event any) error {
	const op = "rabbitmq.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
