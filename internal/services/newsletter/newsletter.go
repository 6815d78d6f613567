// Package newsletter ведёт общий для всех устройств список подписчиков рассылки.
//
// Список хранится под одним ключом и изменяется только атомарным
// чтением-изменением-записью, поэтому параллельные подписки не теряют
// друг друга. Отписка не удаляет запись, а переводит её в неактивное состояние.
package newsletter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/fashion-storefront/internal/events"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/month"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/persist"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
)

var (
	// ErrAlreadySubscribed email уже активно подписан.
	ErrAlreadySubscribed = errors.New("email is already subscribed")
	// ErrNotSubscribed email не найден среди подписчиков.
	ErrNotSubscribed = errors.New("email is not subscribed")
)

// StatsMonths количество месяцев в помесячной статистике.
const StatsMonths = 6

// Исходы операций для метрик.
const (
	resultOK                = "ok"
	resultAlreadySubscribed = "already_subscribed"
	resultNotSubscribed     = "not_subscribed"
	resultError             = "error"
)

// ResultCounter считает операции по исходу.
type ResultCounter interface {
	Inc(op, result string)
}

type nopCounter struct{}

func (nopCounter) Inc(string, string) {}

// Options зависимости реестра. Нулевые поля заменяются заглушками.
type Options struct {
	Publisher events.Publisher
	Results   ResultCounter
	Log       *slog.Logger
	Delay     time.Duration
	Now       func() time.Time
}

// Service реестр подписчиков.
type Service struct {
	store     *persist.Store[[]models.Subscriber]
	publisher events.Publisher
	results   ResultCounter
	log       *slog.Logger
	delay     time.Duration
	now       func() time.Time
}

// New создаёт реестр поверх kv.
func New(kv storage.KV, opts Options) *Service {
	s := &Service{
		publisher: opts.Publisher,
		results:   opts.Results,
		log:       opts.Log,
		delay:     opts.Delay,
		now:       opts.Now,
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.results == nil {
		s.results = nopCounter{}
	}
	if s.log == nil {
		s.log = sl.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.store = persist.New(kv, s.log, func() []models.Subscriber { return []models.Subscriber{} })
	return s
}

// Subscribe подписывает email. Неактивная запись активируется с сохранением
// даты первой подписки, новая добавляется в конец списка.
func (s *Service) Subscribe(ctx context.Context, email string) (models.Subscriber, error) {
	const op = "newsletter.Subscribe"
	if err := s.wait(ctx); err != nil {
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}

	var (
		record      models.Subscriber
		reactivated bool
	)
	_, err := s.store.Update(ctx, persist.SubscribersKey, func(subs []models.Subscriber) ([]models.Subscriber, error) {
		reactivated = false
		for i := range subs {
			if subs[i].Email != email {
				continue
			}
			if subs[i].IsActive() {
				return nil, ErrAlreadySubscribed
			}
			subs[i].Status = models.SubscriberActive
			record, reactivated = subs[i], true
			return subs, nil
		}
		record = models.Subscriber{Email: email, SubscribedAt: s.now().UTC(), Status: models.SubscriberActive}
		return append(subs, record), nil
	})
	if err != nil {
		s.count("subscribe", err)
		if errors.Is(err, ErrAlreadySubscribed) {
			return models.Subscriber{}, err
		}
		return models.Subscriber{}, fmt.Errorf("%s: %w", op, err)
	}
	s.count("subscribe", nil)

	s.publish(ctx, op, events.NewsletterSubscribed, events.NewsletterEvent{
		Email:        record.Email,
		SubscribedAt: record.SubscribedAt,
		Reactivated:  reactivated,
		OccurredAt:   s.now().UTC(),
	})
	return record, nil
}

// Unsubscribe переводит подписчика в неактивное состояние.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	const op = "newsletter.Unsubscribe"
	if err := s.wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var (
		record    models.Subscriber
		wasActive bool
	)
	_, err := s.store.Update(ctx, persist.SubscribersKey, func(subs []models.Subscriber) ([]models.Subscriber, error) {
		for i := range subs {
			if subs[i].Email == email {
				wasActive = subs[i].IsActive()
				subs[i].Status = models.SubscriberInactive
				record = subs[i]
				return subs, nil
			}
		}
		return nil, ErrNotSubscribed
	})
	if err != nil {
		s.count("unsubscribe", err)
		if errors.Is(err, ErrNotSubscribed) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.count("unsubscribe", nil)

	if wasActive {
		s.publish(ctx, op, events.NewsletterUnsubscribed, events.NewsletterEvent{
			Email:        record.Email,
			SubscribedAt: record.SubscribedAt,
			OccurredAt:   s.now().UTC(),
		})
	}
	return nil
}

// Subscribers возвращает все записи в порядке добавления.
func (s *Service) Subscribers(ctx context.Context) []models.Subscriber {
	return s.store.Load(ctx, persist.SubscribersKey)
}

// Search возвращает записи, email которых содержит term без учёта регистра.
// Пустой term возвращает все записи.
func (s *Service) Search(ctx context.Context, term string) []models.Subscriber {
	subs := s.Subscribers(ctx)
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return subs
	}
	out := make([]models.Subscriber, 0, len(subs))
	for _, sub := range subs {
		if strings.Contains(strings.ToLower(sub.Email), term) {
			out = append(out, sub)
		}
	}
	return out
}

// Stats считает подписчиков. Помесячная разбивка охватывает текущий
// и пять предыдущих календарных месяцев и учитывает только активных.
func (s *Service) Stats(ctx context.Context) models.SubscriberStats {
	subs := s.Subscribers(ctx)
	now := s.now()
	keys := month.TrailingKeys(now, StatsMonths)

	stats := models.SubscriberStats{
		Total:   len(subs),
		Monthly: make(map[string]int, len(keys)),
	}
	for _, k := range keys {
		stats.Monthly[k] = 0
	}
	for _, sub := range subs {
		if !sub.IsActive() {
			continue
		}
		stats.Active++
		k := month.Key(sub.SubscribedAt.In(now.Location()))
		if _, ok := stats.Monthly[k]; ok {
			stats.Monthly[k]++
		}
	}
	stats.Inactive = stats.Total - stats.Active

	stats.Series = make([]models.MonthCount, len(keys))
	for i, k := range keys {
		stats.Series[i] = models.MonthCount{Month: k, Count: stats.Monthly[k]}
	}
	return stats
}

// ExportCSV пишет список подписчиков в CSV: email, дата подписки, статус.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	const op = "newsletter.ExportCSV"
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Email", "Subscribed At", "Status"}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, sub := range s.Subscribers(ctx) {
		status := "Inactive"
		if sub.IsActive() {
			status = "Active"
		}
		if err := cw.Write([]string{sub.Email, sub.SubscribedAt.Format(time.DateOnly), status}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// wait имитирует задержку удалённого вызова. Отмена ctx прерывает ожидание
// до любых изменений.
func (s *Service) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) publish(ctx context.Context, op, key string, ev events.NewsletterEvent) {
	if err := s.publisher.Publish(ctx, key, ev); err != nil {
		s.log.Error("failed to publish newsletter event", sl.Op(op), slog.String("routing_key", key), sl.Err(err))
	}
}

func (s *Service) count(op string, err error) {
	switch {
	case err == nil:
		s.results.Inc(op, resultOK)
	case errors.Is(err, ErrAlreadySubscribed):
		s.results.Inc(op, resultAlreadySubscribed)
	case errors.Is(err, ErrNotSubscribed):
		s.results.Inc(op, resultNotSubscribed)
	default:
		s.results.Inc(op, resultError)
	}
}
