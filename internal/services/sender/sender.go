// Package sender отправляет письма подписчикам рассылки по событиям
// newsletter.subscribed и newsletter.unsubscribed.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/fashion-storefront/internal/events"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/smtp"
)

// Service отправляет приветственные и прощальные письма.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создаёт Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{transport: transport, log: log}
}

// SendWelcome обрабатывает событие подписки.
func (s *Service) SendWelcome(body []byte) error {
	const op = "sender.SendWelcome"
	ev, err := decode(body)
	if err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	subject := "Welcome to our newsletter"
	text := "Thanks for subscribing! You'll receive updates about new arrivals and exclusive offers."
	if ev.Reactivated {
		subject = "Welcome back to our newsletter"
		text = "Your subscription has been reactivated. We're glad to have you back."
	}
	if err := s.sendEmail([]string{ev.Email}, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendGoodbye обрабатывает событие отписки.
func (s *Service) SendGoodbye(body []byte) error {
	const op = "sender.SendGoodbye"
	ev, err := decode(body)
	if err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	text := "You have been unsubscribed from our newsletter. You can subscribe again at any time."
	if err := s.sendEmail([]string{ev.Email}, "You have been unsubscribed", text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func decode(body []byte) (events.NewsletterEvent, error) {
	var ev events.NewsletterEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("%w: %w", events.ErrMalformed, err)
	}
	if ev.Email == "" {
		return ev, fmt.Errorf("%w: event without email", events.ErrMalformed)
	}
	return ev, nil
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		_ = wc.Close()
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
