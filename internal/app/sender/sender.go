// Package sender собирает сервис рассылки писем: слушает очереди событий
// рассылки в RabbitMQ и отправляет письма через SMTP.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fashion-storefront/internal/config"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/smtp"
	"github.com/magabrotheeeer/fashion-storefront/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/fashion-storefront/internal/services/sender"
)

// ErrNoBroker не задан адрес RabbitMQ.
var ErrNoBroker = errors.New("rabbitmq url is not configured")

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoBroker)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.NewsletterQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.New(transport, logger),
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	consumers := []struct {
		queue   string
		handler func([]byte) error
	}{
		{queue: rabbitmq.QueueNewsletterSubscribed, handler: a.senderService.SendWelcome},
		{queue: rabbitmq.QueueNewsletterUnsubscribed, handler: a.senderService.SendGoodbye},
	}
	for _, c := range consumers {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, c.queue, a.logger, c.handler); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", c.queue), sl.Err(err))
			a.close()
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
