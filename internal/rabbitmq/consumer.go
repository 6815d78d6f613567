package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fashion-storefront/internal/events"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
)

const maxInFlight = 10

// ConsumerMessage запускает потребителя очереди queueName. Каждое сообщение
// обрабатывается handler; при ошибке сообщение возвращается в очередь,
// а сообщение с ошибкой events.ErrMalformed отбрасывается.
// Потребитель останавливается при отмене ctx или закрытии канала.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(sl.Op(op), slog.String("queue", queueName))
	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					handleDelivery(d, handler, log)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// handleDelivery подтверждает сообщение после успешной обработки.
func handleDelivery(d amqp.Delivery, handler func([]byte) error, log *slog.Logger) {
	if err := handler(d.Body); err != nil {
		requeue := !errors.Is(err, events.ErrMalformed)
		log.Error("failed to handle message", slog.Bool("requeue", requeue), sl.Err(err))
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
