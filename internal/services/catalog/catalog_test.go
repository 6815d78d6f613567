package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fashion-storefront/internal/cache"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
)

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Products(ctx context.Context, limit int) ([]models.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockRemote) Product(ctx context.Context, id int) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockRemote) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRemote) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockRemote) CreateProduct(ctx context.Context, in models.ProductInput, token string) (*models.Product, error) {
	args := m.Called(ctx, in, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockRemote) UpdateProduct(ctx context.Context, id int, in models.ProductInput, token string) (*models.Product, error) {
	args := m.Called(ctx, id, in, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockRemote) DeleteProduct(ctx context.Context, id int, token string) (*models.Product, error) {
	args := m.Called(ctx, id, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

var testProducts = []models.Product{
	{ID: 1, Title: "Fjallraven Backpack", Description: "Fits 15 inch laptops", Category: "men's clothing", Price: 109.95},
	{ID: 2, Title: "Gold Chain Bracelet", Description: "Solid gold", Category: "jewelery", Price: 695},
	{ID: 3, Title: "Rain Jacket", Description: "Lightweight, perfect for trip", Category: "women's clothing", Price: 39.99},
}

func newRedisCache(t *testing.T) *cache.Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	db := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = db.Close() })
	return cache.New(db, "catalog:")
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		filter  models.ProductFilter
		wantIDs []int
	}{
		{name: "no filter", filter: models.ProductFilter{}, wantIDs: []int{1, 2, 3}},
		{name: "all category", filter: models.ProductFilter{Category: "all"}, wantIDs: []int{1, 2, 3}},
		{name: "exact category", filter: models.ProductFilter{Category: "jewelery"}, wantIDs: []int{2}},
		{name: "search title case insensitive", filter: models.ProductFilter{Search: "BACKPACK"}, wantIDs: []int{1}},
		{name: "search description", filter: models.ProductFilter{Search: "trip"}, wantIDs: []int{3}},
		{name: "search category", filter: models.ProductFilter{Search: "clothing"}, wantIDs: []int{1, 3}},
		{name: "category and search", filter: models.ProductFilter{Category: "women's clothing", Search: "jacket"}, wantIDs: []int{3}},
		{name: "no match", filter: models.ProductFilter{Search: "shoes"}, wantIDs: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(testProducts, tt.filter)
			ids := make([]int, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestService_ProductsCacheHit(t *testing.T) {
	remote := new(MockRemote)
	remote.On("Products", mock.Anything, 0).Return(testProducts, nil).Once()

	svc := New(remote, newRedisCache(t), sl.Discard(), time.Hour, 24*time.Hour)

	first, err := svc.Products(context.Background())
	require.NoError(t, err)
	second, err := svc.Products(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	remote.AssertNumberOfCalls(t, "Products", 1)
}

func TestService_MutationInvalidatesCache(t *testing.T) {
	remote := new(MockRemote)
	remote.On("Products", mock.Anything, 0).Return(testProducts, nil).Twice()
	in := models.ProductInput{Title: "Scarf", Price: 10, Description: "Silk scarf!", Category: "jewelery", Image: "https://x.io/a.png"}
	remote.On("CreateProduct", mock.Anything, in, "tok").Return(&models.Product{ID: 21, Title: "Scarf"}, nil).Once()

	svc := New(remote, newRedisCache(t), sl.Discard(), time.Hour, 24*time.Hour)
	ctx := context.Background()

	_, err := svc.Products(ctx)
	require.NoError(t, err)

	p, err := svc.CreateProduct(ctx, in, "tok")
	require.NoError(t, err)
	assert.Equal(t, 21, p.ID)

	_, err = svc.Products(ctx)
	require.NoError(t, err)
	remote.AssertNumberOfCalls(t, "Products", 2)
}

func TestService_ProductUpdateInvalidatesProduct(t *testing.T) {
	remote := new(MockRemote)
	remote.On("Product", mock.Anything, 1).Return(&testProducts[0], nil).Twice()
	in := models.ProductInput{Title: "Backpack v2", Price: 99, Description: "Fits 17 inch laptops", Category: "men's clothing", Image: "https://x.io/b.png"}
	remote.On("UpdateProduct", mock.Anything, 1, in, "tok").Return(&models.Product{ID: 1, Title: "Backpack v2"}, nil).Once()

	svc := New(remote, newRedisCache(t), sl.Discard(), time.Hour, 24*time.Hour)
	ctx := context.Background()

	_, err := svc.Product(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Product(ctx, 1)
	require.NoError(t, err)
	remote.AssertNumberOfCalls(t, "Product", 1)

	_, err = svc.UpdateProduct(ctx, 1, in, "tok")
	require.NoError(t, err)

	_, err = svc.Product(ctx, 1)
	require.NoError(t, err)
	remote.AssertNumberOfCalls(t, "Product", 2)
}

func TestService_SearchByCategoryUsesCategoryEndpoint(t *testing.T) {
	remote := new(MockRemote)
	remote.On("ProductsByCategory", mock.Anything, "jewelery").Return([]models.Product{testProducts[1]}, nil).Once()

	svc := New(remote, cache.Nop{}, sl.Discard(), time.Hour, 24*time.Hour)

	got, err := svc.Search(context.Background(), models.ProductFilter{Category: "jewelery", Search: "gold"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
	remote.AssertNotCalled(t, "Products", mock.Anything, mock.Anything)
}

func TestService_SearchLimit(t *testing.T) {
	remote := new(MockRemote)
	remote.On("Products", mock.Anything, 0).Return(testProducts, nil).Once()

	svc := New(remote, cache.Nop{}, sl.Discard(), time.Hour, 24*time.Hour)

	got, err := svc.Search(context.Background(), models.ProductFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_RemoteErrorNotCached(t *testing.T) {
	remote := new(MockRemote)
	remote.On("Categories", mock.Anything).Return(nil, errors.New("boom")).Once()
	remote.On("Categories", mock.Anything).Return([]string{"jewelery"}, nil).Once()

	svc := New(remote, newRedisCache(t), sl.Discard(), time.Hour, 24*time.Hour)

	_, err := svc.Categories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	got, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"jewelery"}, got)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("cache down")
}

func (failingCache) Invalidate(context.Context, ...string) error {
	return errors.New("cache down")
}

func TestService_CacheFailureDoesNotFailRead(t *testing.T) {
	remote := new(MockRemote)
	remote.On("Products", mock.Anything, 0).Return(testProducts, nil)

	svc := New(remote, failingCache{}, sl.Discard(), time.Hour, 24*time.Hour)

	got, err := svc.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
