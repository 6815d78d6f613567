package newsletter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
	newsletterservice "github.com/magabrotheeeer/fashion-storefront/internal/services/newsletter"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage/memory"
)

const devID = "0b7e5c1e-7f35-4d3a-9b1e-2c8f3f9a6d10"

type envelope struct {
	Status        string                `json:"status"`
	Error         string                `json:"error"`
	Data          json.RawMessage       `json:"data"`
	Notifications []models.Notification `json:"notifications"`
}

var fixedNow = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

func newRouter() http.Handler {
	svc := newsletterservice.New(memory.New(), newsletterservice.Options{
		Now: func() time.Time { return fixedNow },
	})
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	h.now = func() time.Time { return fixedNow }
	st := &device.State{ID: devID, Inbox: notify.NewInbox(8)}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(device.WithState(r.Context(), st)))
		})
	})
	r.Post("/newsletter/subscribe", h.Subscribe)
	r.Post("/newsletter/unsubscribe", h.Unsubscribe)
	r.Get("/admin/newsletter/subscribers", h.Subscribers)
	r.Get("/admin/newsletter/subscribers.csv", h.Export)
	r.Delete("/admin/newsletter/subscribers/{email}", h.Remove)
	r.Get("/admin/newsletter/stats", h.Stats)
	return r
}

func do(t *testing.T, h http.Handler, method, url, body string) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, url, rd))
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestHandler_Subscribe(t *testing.T) {
	router := newRouter()

	code, env := do(t, router, http.MethodPost, "/newsletter/subscribe", `{"email":"a@x.io"}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Subscription successful!", env.Notifications[0].Title)
	assert.Equal(t, models.VariantDefault, env.Notifications[0].Variant)

	code, env = do(t, router, http.MethodPost, "/newsletter/subscribe", `{"email":"a@x.io"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, alreadySubscribedMsg, env.Error)
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Subscription failed", env.Notifications[0].Title)
	assert.Equal(t, models.VariantDestructive, env.Notifications[0].Variant)
}

func TestHandler_SubscribeValidation(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{name: "malformed email", body: `{"email":"not-an-email"}`, expectedStatus: http.StatusUnprocessableEntity, expectedError: "field Email must be a valid email address"},
		{name: "missing email", body: `{}`, expectedStatus: http.StatusUnprocessableEntity, expectedError: "field Email is a required field"},
		{name: "bad json", body: `{`, expectedStatus: http.StatusBadRequest, expectedError: "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, newRouter(), http.MethodPost, "/newsletter/subscribe", tt.body)
			assert.Equal(t, tt.expectedStatus, code)
			assert.Equal(t, tt.expectedError, env.Error)
		})
	}
}

func TestHandler_Unsubscribe(t *testing.T) {
	router := newRouter()

	code, env := do(t, router, http.MethodPost, "/newsletter/unsubscribe", `{"email":"ghost@x.io"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, notSubscribedMsg, env.Error)

	do(t, router, http.MethodPost, "/newsletter/subscribe", `{"email":"a@x.io"}`)
	code, _ = do(t, router, http.MethodPost, "/newsletter/unsubscribe", `{"email":"a@x.io"}`)
	assert.Equal(t, http.StatusOK, code)

	_, env = do(t, router, http.MethodGet, "/admin/newsletter/subscribers", "")
	var subs []models.Subscriber
	require.NoError(t, json.Unmarshal(env.Data, &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriberInactive, subs[0].Status)
}

func TestHandler_AdminEndpoints(t *testing.T) {
	router := newRouter()
	for _, e := range []string{"anna@shop.io", "bob@mail.io", "ANNIE@mail.io"} {
		code, _ := do(t, router, http.MethodPost, "/newsletter/subscribe", `{"email":"`+e+`"}`)
		require.Equal(t, http.StatusOK, code)
	}

	_, env := do(t, router, http.MethodGet, "/admin/newsletter/subscribers?search=ann", "")
	var subs []models.Subscriber
	require.NoError(t, json.Unmarshal(env.Data, &subs))
	assert.Len(t, subs, 2)

	code, env := do(t, router, http.MethodDelete, "/admin/newsletter/subscribers/bob@mail.io", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Subscriber removed", env.Notifications[0].Title)
	assert.Equal(t, "bob@mail.io has been unsubscribed from the newsletter.", env.Notifications[0].Description)

	_, env = do(t, router, http.MethodGet, "/admin/newsletter/stats", "")
	var stats models.SubscriberStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Inactive)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/newsletter/subscribers.csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "newsletter_subscribers_2025-05-20.csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Email,Subscribed At,Status", lines[0])
	assert.Equal(t, "bob@mail.io,2025-05-20,Inactive", lines[2])

	// Уведомление о выгрузке приходит со следующим JSON-ответом.
	_, env = do(t, router, http.MethodGet, "/admin/newsletter/stats", "")
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Export successful", env.Notifications[0].Title)
}

func TestHandler_SubscribeCanceled(t *testing.T) {
	router := newRouter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/newsletter/subscribe", strings.NewReader(`{"email":"a@x.io"}`)).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	_, env := do(t, router, http.MethodGet, "/admin/newsletter/subscribers", "")
	var subs []models.Subscriber
	require.NoError(t, json.Unmarshal(env.Data, &subs))
	assert.Empty(t, subs)
}
