package newsletter

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fashion-storefront/internal/config"
	"github.com/magabrotheeeer/fashion-storefront/internal/events"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage/memory"
	redisstorage "github.com/magabrotheeeer/fashion-storefront/internal/storage/redis"
)

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []events.NewsletterEvent
}

func (p *recordingPublisher) Publish(_ context.Context, key string, ev any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, ev.(events.NewsletterEvent))
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newService(kv storage.KV, pub events.Publisher, clk *clock) *Service {
	return New(kv, Options{Publisher: pub, Log: sl.Discard(), Now: clk.Now})
}

func TestSubscribe_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	clk := &clock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newService(memory.New(), pub, clk)

	rec, err := svc.Subscribe(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriberActive, rec.Status)
	firstAt := rec.SubscribedAt

	_, err = svc.Subscribe(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	require.NoError(t, svc.Unsubscribe(ctx, "a@x.com"))
	subs := svc.Subscribers(ctx)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriberInactive, subs[0].Status)

	clk.Set(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	rec, err = svc.Subscribe(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, rec.IsActive())
	assert.True(t, firstAt.Equal(rec.SubscribedAt), "reactivation keeps the first subscription date")
	assert.Len(t, svc.Subscribers(ctx), 1)

	assert.Equal(t, []string{
		events.NewsletterSubscribed,
		events.NewsletterUnsubscribed,
		events.NewsletterSubscribed,
	}, pub.keys)
	assert.False(t, pub.events[0].Reactivated)
	assert.True(t, pub.events[2].Reactivated)
}

func TestSubscribe_EmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New(), nil, &clock{now: time.Now()})

	_, err := svc.Subscribe(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "A@x.com")
	require.NoError(t, err)

	assert.Len(t, svc.Subscribers(ctx), 2)
}

func TestUnsubscribe_Unknown(t *testing.T) {
	svc := newService(memory.New(), nil, &clock{now: time.Now()})

	err := svc.Unsubscribe(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotSubscribed)
	assert.Empty(t, svc.Subscribers(context.Background()))
}

func TestUnsubscribe_InactiveIsNoError(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newService(memory.New(), pub, &clock{now: time.Now()})

	_, err := svc.Subscribe(ctx, "a@x.com")
	require.NoError(t, err)
	require.NoError(t, svc.Unsubscribe(ctx, "a@x.com"))
	require.NoError(t, svc.Unsubscribe(ctx, "a@x.com"))

	assert.Equal(t, []string{events.NewsletterSubscribed, events.NewsletterUnsubscribed}, pub.keys)
}

func TestSubscribe_CancelledBeforeDelayMutatesNothing(t *testing.T) {
	kv := memory.New()
	svc := New(kv, Options{Delay: time.Hour, Log: sl.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Subscribe(ctx, "a@x.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, svc.Unsubscribe(ctx, "a@x.com"), context.Canceled)
	assert.Empty(t, svc.Subscribers(context.Background()))
}

func TestSubscribe_DelayApplied(t *testing.T) {
	svc := New(memory.New(), Options{Delay: 20 * time.Millisecond, Log: sl.Discard()})

	start := time.Now()
	_, err := svc.Subscribe(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSubscribe_ConcurrentDoesNotLoseUpdates(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	db, err := redisstorage.Connect(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	kv := redisstorage.New(db)
	t.Cleanup(func() { _ = kv.Close() })

	backends := map[string]storage.KV{
		"memory": memory.New(),
		"redis":  kv,
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			svc := newService(backend, nil, &clock{now: time.Now()})
			const n = 10

			var wg sync.WaitGroup
			for i := range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.Subscribe(context.Background(), fmt.Sprintf("user%d@x.com", i))
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			assert.Len(t, svc.Subscribers(context.Background()), n)
		})
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New(), nil, &clock{now: time.Now()})
	for _, e := range []string{"Alice@shop.com", "bob@mail.com", "carol@shop.com"} {
		_, err := svc.Subscribe(ctx, e)
		require.NoError(t, err)
	}

	tests := []struct {
		term string
		want []string
	}{
		{term: "", want: []string{"Alice@shop.com", "bob@mail.com", "carol@shop.com"}},
		{term: "SHOP", want: []string{"Alice@shop.com", "carol@shop.com"}},
		{term: "alice", want: []string{"Alice@shop.com"}},
		{term: "zed", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := make([]string, 0)
			for _, s := range svc.Search(ctx, tt.term) {
				got = append(got, s.Email)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func seed(t *testing.T, kv storage.KV, subs string) {
	t.Helper()
	require.NoError(t, kv.Set(context.Background(), "newsletter_subscribers", []byte(subs)))
}

func TestStats(t *testing.T) {
	kv := memory.New()
	seed(t, kv, `[
		{"email":"a@x.com","subscribed_at":"2025-08-02T10:00:00Z","status":"active"},
		{"email":"b@x.com","subscribed_at":"2025-08-20T10:00:00Z","status":"active"},
		{"email":"c@x.com","subscribed_at":"2025-03-01T00:00:00Z","status":"active"},
		{"email":"d@x.com","subscribed_at":"2025-02-28T23:00:00Z","status":"active"},
		{"email":"e@x.com","subscribed_at":"2025-07-01T00:00:00Z","status":"inactive"},
		{"email":"f@x.com","subscribedAt":"2025-06-15T00:00:00Z","active":true}
	]`)
	svc := newService(kv, nil, &clock{now: time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)})

	stats := svc.Stats(context.Background())

	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 5, stats.Active)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, map[string]int{
		"2025-3": 1,
		"2025-4": 0,
		"2025-5": 0,
		"2025-6": 1,
		"2025-7": 0,
		"2025-8": 2,
	}, stats.Monthly)
	assert.Equal(t, []models.MonthCount{
		{Month: "2025-3", Count: 1},
		{Month: "2025-4", Count: 0},
		{Month: "2025-5", Count: 0},
		{Month: "2025-6", Count: 1},
		{Month: "2025-7", Count: 0},
		{Month: "2025-8", Count: 2},
	}, stats.Series)
}

func TestStats_Empty(t *testing.T) {
	svc := newService(memory.New(), nil, &clock{now: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)})

	stats := svc.Stats(context.Background())
	assert.Zero(t, stats.Total)
	assert.Len(t, stats.Monthly, 6)
	assert.Contains(t, stats.Monthly, "2024-8")
	assert.Contains(t, stats.Monthly, "2025-1")
}

func TestSubscribers_CorruptListIsReset(t *testing.T) {
	kv := memory.New()
	seed(t, kv, `{"broken"`)
	svc := newService(kv, nil, &clock{now: time.Now()})

	assert.Empty(t, svc.Subscribers(context.Background()))

	_, err := svc.Subscribe(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Len(t, svc.Subscribers(context.Background()), 1)
}

func TestExportCSV(t *testing.T) {
	kv := memory.New()
	seed(t, kv, `[
		{"email":"a@x.com","subscribed_at":"2025-08-02T10:00:00Z","status":"active"},
		{"email":"b@x.com","subscribed_at":"2025-07-20T10:00:00Z","status":"inactive"}
	]`)
	svc := newService(kv, nil, &clock{now: time.Now()})

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))

	assert.Equal(t,
		"Email,Subscribed At,Status\n"+
			"a@x.com,2025-08-02,Active\n"+
			"b@x.com,2025-07-20,Inactive\n",
		buf.String())
}
