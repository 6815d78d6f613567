package products

import (
	"context"
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

	"github.com/magabrotheeeer/fashion-storefront/internal/catalog"
	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Search(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	args := m.Called(ctx, f)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *MockService) Product(ctx context.Context, id int) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *MockService) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]string)
	return c, args.Error(1)
}

func (m *MockService) CreateProduct(ctx context.Context, in models.ProductInput, token string) (*models.Product, error) {
	args := m.Called(ctx, in, token)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *MockService) UpdateProduct(ctx context.Context, id int, in models.ProductInput, token string) (*models.Product, error) {
	args := m.Called(ctx, id, in, token)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *MockService) DeleteProduct(ctx context.Context, id int, token string) (*models.Product, error) {
	args := m.Called(ctx, id, token)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Session(ctx context.Context, deviceID string) (*models.Session, error) {
	args := m.Called(ctx, deviceID)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

const devID = "0b7e5c1e-7f35-4d3a-9b1e-2c8f3f9a6d10"

func newRouter(h *Handler, st *device.State) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(device.WithState(r.Context(), st)))
		})
	})
	r.Get("/products", h.List)
	r.Get("/products/categories", h.Categories)
	r.Get("/products/{id}", h.Get)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
	return r
}

func newHandler() (*Handler, *MockService, *MockSessions) {
	svc := new(MockService)
	sessions := new(MockSessions)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, svc, sessions), svc, sessions
}

func newState() *device.State {
	return &device.State{ID: devID, Inbox: notify.NewInbox(8)}
}

func TestHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		mockSetup      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "filters passed through",
			url:  "/products?limit=2&category=jewelery&search=ring",
			mockSetup: func(m *MockService) {
				m.On("Search", mock.Anything, models.ProductFilter{Limit: 2, Category: "jewelery", Search: "ring"}).
					Return([]models.Product{{ID: 5, Title: "Ring"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"title":"Ring"`,
		},
		{
			name:           "invalid limit",
			url:            "/products?limit=abc",
			mockSetup:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid limit",
		},
		{
			name: "remote failure",
			url:  "/products",
			mockSetup: func(m *MockService) {
				m.On("Search", mock.Anything, models.ProductFilter{}).Return(nil, errors.New("timeout"))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "failed to fetch products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc, _ := newHandler()
			tt.mockSetup(svc)

			w := httptest.NewRecorder()
			newRouter(h, newState()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		mockSetup      func(*MockService)
		expectedStatus int
	}{
		{
			name: "found",
			url:  "/products/1",
			mockSetup: func(m *MockService) {
				m.On("Product", mock.Anything, 1).Return(&models.Product{ID: 1}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found",
			url:  "/products/999",
			mockSetup: func(m *MockService) {
				m.On("Product", mock.Anything, 999).Return(nil, catalog.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "remote failure",
			url:  "/products/2",
			mockSetup: func(m *MockService) {
				m.On("Product", mock.Anything, 2).Return(nil, &catalog.StatusError{StatusCode: 500})
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "bad id",
			url:            "/products/abc",
			mockSetup:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc, _ := newHandler()
			tt.mockSetup(svc)

			w := httptest.NewRecorder()
			newRouter(h, newState()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Categories(t *testing.T) {
	h, svc, _ := newHandler()
	svc.On("Categories", mock.Anything).Return([]string{"electronics", "jewelery"}, nil)

	w := httptest.NewRecorder()
	newRouter(h, newState()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/categories", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jewelery")
}

const validProduct = `{"title":"Linen shirt","price":29.5,"description":"A breezy linen shirt","category":"men's clothing","image":"https://example.com/shirt.png"}`

func TestHandler_Create(t *testing.T) {
	in := models.ProductInput{
		Title:       "Linen shirt",
		Price:       29.5,
		Description: "A breezy linen shirt",
		Category:    "men's clothing",
		Image:       "https://example.com/shirt.png",
	}

	tests := []struct {
		name           string
		body           string
		mockSetup      func(*MockService, *MockSessions)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "created",
			body: validProduct,
			mockSetup: func(m *MockService, s *MockSessions) {
				s.On("Session", mock.Anything, devID).Return(&models.Session{Token: "remote"}, nil)
				m.On("CreateProduct", mock.Anything, in, "remote").Return(&models.Product{ID: 21, Title: in.Title}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   "Product Created",
		},
		{
			name: "no session",
			body: validProduct,
			mockSetup: func(_ *MockService, s *MockSessions) {
				s.On("Session", mock.Anything, devID).Return(nil, errors.New("no session"))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "You must be logged in to create a product.",
		},
		{
			name: "validation error",
			body: `{"title":"ab","price":0,"description":"short","category":"","image":"not a url"}`,
			mockSetup: func(_ *MockService, s *MockSessions) {
				s.On("Session", mock.Anything, devID).Return(&models.Session{Token: "remote"}, nil)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Title must be at least 3",
		},
		{
			name: "invalid json",
			body: `{"title":`,
			mockSetup: func(_ *MockService, s *MockSessions) {
				s.On("Session", mock.Anything, devID).Return(&models.Session{Token: "remote"}, nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
		{
			name: "remote failure",
			body: validProduct,
			mockSetup: func(m *MockService, s *MockSessions) {
				s.On("Session", mock.Anything, devID).Return(&models.Session{Token: "remote"}, nil)
				m.On("CreateProduct", mock.Anything, in, "remote").Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "Failed to create the product.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc, sessions := newHandler()
			tt.mockSetup(svc, sessions)

			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			newRouter(h, newState()).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
			sessions.AssertExpectations(t)
		})
	}
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	h, svc, sessions := newHandler()
	sessions.On("Session", mock.Anything, devID).Return(&models.Session{Token: "remote"}, nil)
	svc.On("UpdateProduct", mock.Anything, 3, mock.AnythingOfType("models.ProductInput"), "remote").
		Return(&models.Product{ID: 3}, nil)
	svc.On("DeleteProduct", mock.Anything, 3, "remote").Return(&models.Product{ID: 3}, nil)
	router := newRouter(h, newState())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/products/3", strings.NewReader(validProduct)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Product Updated")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/products/3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Product Deleted")

	svc.AssertExpectations(t)
}
