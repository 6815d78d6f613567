// Package catalog читает товары удалённого каталога через кеш
// и фильтрует их по категории и строке поиска.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
)

// Remote операции удалённого каталога.
type Remote interface {
	Products(ctx context.Context, limit int) ([]models.Product, error)
	Product(ctx context.Context, id int) (*models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	ProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductInput, token string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int, in models.ProductInput, token string) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int, token string) (*models.Product, error)
}

// Cache хранилище ответов каталога с истечением срока.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// AllCategories значение фильтра, отключающее фильтрацию по категории.
const AllCategories = "all"

const (
	keyProducts   = "products"
	keyCategories = "categories"
)

func keyProduct(id int) string { return "product:" + strconv.Itoa(id) }

func keyCategory(c string) string { return "category:" + c }

// Service каталог с кешем чтения.
type Service struct {
	remote        Remote
	cache         Cache
	log           *slog.Logger
	productsTTL   time.Duration
	categoriesTTL time.Duration
}

// New создаёт Service. productsTTL действует на списки и отдельные товары,
// categoriesTTL на список категорий.
func New(remote Remote, cache Cache, log *slog.Logger, productsTTL, categoriesTTL time.Duration) *Service {
	return &Service{
		remote:        remote,
		cache:         cache,
		log:           log,
		productsTTL:   productsTTL,
		categoriesTTL: categoriesTTL,
	}
}

// Products возвращает все товары.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	const op = "services.catalog.Products"
	return cached(ctx, s, op, keyProducts, s.productsTTL, func(ctx context.Context) ([]models.Product, error) {
		return s.remote.Products(ctx, 0)
	})
}

// Product возвращает товар по id.
func (s *Service) Product(ctx context.Context, id int) (*models.Product, error) {
	const op = "services.catalog.Product"
	p, err := cached(ctx, s, op, keyProduct(id), s.productsTTL, func(ctx context.Context) (models.Product, error) {
		p, err := s.remote.Product(ctx, id)
		if err != nil {
			return models.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Categories возвращает список категорий.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	const op = "services.catalog.Categories"
	return cached(ctx, s, op, keyCategories, s.categoriesTTL, s.remote.Categories)
}

// Search возвращает товары, прошедшие фильтр. Товары категории берутся
// отдельным запросом, затем применяется поиск и ограничение количества.
func (s *Service) Search(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	const op = "services.catalog.Search"
	var (
		products []models.Product
		err      error
	)
	if f.Category == "" || f.Category == AllCategories {
		products, err = s.Products(ctx)
	} else {
		category := f.Category
		products, err = cached(ctx, s, op, keyCategory(category), s.productsTTL, func(ctx context.Context) ([]models.Product, error) {
			return s.remote.ProductsByCategory(ctx, category)
		})
	}
	if err != nil {
		return nil, err
	}

	out := Filter(products, f)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Filter применяет к products фильтр категории и поиска. Поиск без учёта
// регистра ищет подстроку в названии, описании и категории.
func Filter(products []models.Product, f models.ProductFilter) []models.Product {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Category != "" && f.Category != AllCategories && p.Category != f.Category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.Category), term) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CreateProduct создаёт товар и сбрасывает кеш списков.
func (s *Service) CreateProduct(ctx context.Context, in models.ProductInput, token string) (*models.Product, error) {
	const op = "services.catalog.CreateProduct"
	p, err := s.remote.CreateProduct(ctx, in, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op, keyProducts, keyCategories, keyCategory(in.Category))
	return p, nil
}

// UpdateProduct изменяет товар и сбрасывает кеш товара и списков.
func (s *Service) UpdateProduct(ctx context.Context, id int, in models.ProductInput, token string) (*models.Product, error) {
	const op = "services.catalog.UpdateProduct"
	keys := []string{keyProducts, keyCategories, keyProduct(id), keyCategory(in.Category)}
	var old models.Product
	if found, _ := s.cache.Get(ctx, keyProduct(id), &old); found && old.Category != in.Category {
		keys = append(keys, keyCategory(old.Category))
	}

	p, err := s.remote.UpdateProduct(ctx, id, in, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, op, keys...)
	return p, nil
}

// DeleteProduct удаляет товар и сбрасывает кеш товара и списков.
func (s *Service) DeleteProduct(ctx context.Context, id int, token string) (*models.Product, error) {
	const op = "services.catalog.DeleteProduct"
	keys := []string{keyProducts, keyProduct(id)}
	var old models.Product
	if found, _ := s.cache.Get(ctx, keyProduct(id), &old); found {
		keys = append(keys, keyCategory(old.Category))
	}

	p, err := s.remote.DeleteProduct(ctx, id, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.Category != "" {
		keys = append(keys, keyCategory(p.Category))
	}
	s.invalidate(ctx, op, keys...)
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, op string, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate catalog cache", sl.Op(op), sl.Err(err))
	}
}

// cached читает key из кеша, а при промахе вызывает load и кладёт результат
// в кеш. Ошибки кеша только логируются.
func cached[T any](ctx context.Context, s *Service, op, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	log := s.log.With(sl.Op(op), slog.String("cache_key", key))

	var v T
	found, err := s.cache.Get(ctx, key, &v)
	if err != nil {
		log.Warn("catalog cache read failed", sl.Err(err))
	}
	if found {
		return v, nil
	}

	v, err = load(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, v, ttl); err != nil {
		log.Warn("catalog cache write failed", sl.Err(err))
	}
	return v, nil
}
