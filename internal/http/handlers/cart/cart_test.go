package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fashion-storefront/internal/catalog"
	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage/memory"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Product(ctx context.Context, id int) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

const devID = "0b7e5c1e-7f35-4d3a-9b1e-2c8f3f9a6d10"

type envelope struct {
	Status        string                `json:"status"`
	Error         string                `json:"error"`
	Data          json.RawMessage       `json:"data"`
	Notifications []models.Notification `json:"notifications"`
}

func newRouter(t *testing.T, cat Catalog) http.Handler {
	t.Helper()
	reg := device.NewRegistry(memory.New(), device.Options{})
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), cat)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, err := reg.Get(r.Context(), devID)
			require.NoError(t, err)
			next.ServeHTTP(w, r.WithContext(device.WithState(r.Context(), st)))
		})
	})
	r.Get("/cart", h.Get)
	r.Post("/cart/items", h.AddItem)
	r.Put("/cart/items/{id}", h.UpdateItem)
	r.Delete("/cart/items/{id}", h.RemoveItem)
	r.Delete("/cart", h.Clear)
	r.Post("/cart/checkout", h.Checkout)
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

func shirt() *models.Product {
	return &models.Product{ID: 1, Title: "Shirt", Price: 10.5}
}

func TestHandler_AddItem(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(*MockCatalog)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "default quantity",
			body: `{"product_id":1}`,
			mockSetup: func(m *MockCatalog) {
				m.On("Product", mock.Anything, 1).Return(shirt(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"total_items":1`,
		},
		{
			name: "explicit quantity",
			body: `{"product_id":1,"quantity":3}`,
			mockSetup: func(m *MockCatalog) {
				m.On("Product", mock.Anything, 1).Return(shirt(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"total_price":"31.5"`,
		},
		{
			name:           "negative quantity",
			body:           `{"product_id":1,"quantity":-2}`,
			mockSetup:      func(*MockCatalog) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "Quantity",
		},
		{
			name:           "missing product",
			body:           `{}`,
			mockSetup:      func(*MockCatalog) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field ProductID is a required field",
		},
		{
			name: "unknown product",
			body: `{"product_id":999}`,
			mockSetup: func(m *MockCatalog) {
				m.On("Product", mock.Anything, 999).Return(nil, catalog.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "failed to fetch product",
		},
		{
			name:           "bad json",
			body:           `{"product_id":`,
			mockSetup:      func(*MockCatalog) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := new(MockCatalog)
			tt.mockSetup(cat)
			router := newRouter(t, cat)

			req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			cat.AssertExpectations(t)
		})
	}
}

func TestHandler_AddItemCatalogFailureNotifies(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedDesc   string
	}{
		{name: "remote down", err: errors.New("dial tcp: connection refused"), expectedStatus: http.StatusBadGateway, expectedDesc: "Failed to load the product. Please try again."},
		{name: "not found", err: catalog.ErrNotFound, expectedStatus: http.StatusNotFound, expectedDesc: "The product could not be found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := new(MockCatalog)
			cat.On("Product", mock.Anything, 1).Return(nil, tt.err)

			code, env := do(t, newRouter(t, cat), http.MethodPost, "/cart/items", `{"product_id":1}`)
			assert.Equal(t, tt.expectedStatus, code)
			require.Len(t, env.Notifications, 1)
			assert.Equal(t, models.VariantDestructive, env.Notifications[0].Variant)
			assert.Equal(t, tt.expectedDesc, env.Notifications[0].Description)
		})
	}
}

func TestHandler_CartFlow(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("Product", mock.Anything, 1).Return(shirt(), nil)
	router := newRouter(t, cat)

	code, env := do(t, router, http.MethodPost, "/cart/items", `{"product_id":1}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Added to Cart", env.Notifications[0].Title)

	code, env = do(t, router, http.MethodPost, "/cart/items", `{"product_id":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Cart Updated", env.Notifications[0].Title)
	assert.Equal(t, "Shirt quantity updated to 3", env.Notifications[0].Description)

	code, env = do(t, router, http.MethodPut, "/cart/items/1", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, code)
	var v View
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, 5, v.TotalItems)
	assert.Equal(t, "52.5", v.TotalPrice.String())

	code, env = do(t, router, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Notifications)

	code, env = do(t, router, http.MethodPost, "/cart/checkout", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Notifications, 2)
	assert.Equal(t, "Order Placed", env.Notifications[0].Title)
	assert.Equal(t, "Cart Cleared", env.Notifications[1].Title)
	var order models.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, 5, order.TotalItems)
	assert.Equal(t, devID, order.DeviceID)

	code, env = do(t, router, http.MethodPost, "/cart/checkout", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "cart is empty", env.Error)
}

func TestHandler_RemoveAndClear(t *testing.T) {
	cat := new(MockCatalog)
	cat.On("Product", mock.Anything, 1).Return(shirt(), nil)
	cat.On("Product", mock.Anything, 2).Return(&models.Product{ID: 2, Title: "Hat", Price: 5}, nil)
	router := newRouter(t, cat)

	do(t, router, http.MethodPost, "/cart/items", `{"product_id":1}`)
	do(t, router, http.MethodPost, "/cart/items", `{"product_id":2}`)

	code, env := do(t, router, http.MethodDelete, "/cart/items/1", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Removed from Cart", env.Notifications[0].Title)

	code, env = do(t, router, http.MethodDelete, "/cart/items/42", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Notifications)

	code, env = do(t, router, http.MethodPut, "/cart/items/2", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, code)
	var v View
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Empty(t, v.Items)

	code, env = do(t, router, http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Cart Cleared", env.Notifications[0].Title)

	code, _ = do(t, router, http.MethodDelete, "/cart/items/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
