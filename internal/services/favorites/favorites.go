// Package favorites управляет избранными товарами одного устройства.
package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
	"github.com/magabrotheeeer/fashion-storefront/internal/persist"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
)

// OpCounter считает выполненные операции.
type OpCounter interface {
	Inc(op string)
}

type nopCounter struct{}

func (nopCounter) Inc(string) {}

// Favorites упорядоченный набор избранных товаров без повторов.
// Изменение становится видимым только после успешной записи.
type Favorites struct {
	mu       sync.Mutex
	store    *persist.Store[[]models.Product]
	key      string
	items    []models.Product
	notifier notify.Notifier
	ops      OpCounter
	log      *slog.Logger
}

// NewStore создаёт хранилище избранного. Отсутствующий набор читается как пустой.
func NewStore(kv storage.KV, log *slog.Logger) *persist.Store[[]models.Product] {
	return persist.New(kv, log, func() []models.Product { return []models.Product{} })
}

// New загружает избранное устройства deviceID. notifier, ops и log могут быть nil.
// Ошибка чтения хранилища возвращается.
func New(ctx context.Context, store *persist.Store[[]models.Product], deviceID string, notifier notify.Notifier, ops OpCounter, log *slog.Logger) (*Favorites, error) {
	const op = "favorites.New"
	if notifier == nil {
		notifier = notify.Discard
	}
	if ops == nil {
		ops = nopCounter{}
	}
	if log == nil {
		log = sl.Discard()
	}
	f := &Favorites{
		store:    store,
		key:      persist.DeviceKey(persist.FavoritesPrefix, deviceID),
		notifier: notifier,
		ops:      ops,
		log:      log.With(sl.Device(deviceID)),
	}
	items, err := store.Fetch(ctx, f.key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f.items = dedup(items)
	return f, nil
}

// IsFavorite сообщает, есть ли товар в избранном.
func (f *Favorites) IsFavorite(productID int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexOf(productID) >= 0
}

// AddToFavorites добавляет товар. Повторное добавление ничего не меняет.
func (f *Favorites) AddToFavorites(ctx context.Context, product models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.add(ctx, product)
}

func (f *Favorites) add(ctx context.Context, product models.Product) error {
	const op = "favorites.AddToFavorites"
	if f.indexOf(product.ID) >= 0 {
		return nil
	}
	next := make([]models.Product, 0, len(f.items)+1)
	next = append(next, f.items...)
	next = append(next, product)
	if err := f.commit(ctx, op, next); err != nil {
		return err
	}
	f.ops.Inc("add")
	f.notifier.Notify(ctx, notify.Info("Added to Favorites", product.Title+" added to your favorites"))
	return nil
}

// RemoveFromFavorites удаляет товар. Отсутствующий товар не ошибка.
func (f *Favorites) RemoveFromFavorites(ctx context.Context, productID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove(ctx, productID)
}

func (f *Favorites) remove(ctx context.Context, productID int) error {
	const op = "favorites.RemoveFromFavorites"
	idx := f.indexOf(productID)
	if idx < 0 {
		return nil
	}
	removed := f.items[idx]
	next := make([]models.Product, 0, len(f.items)-1)
	next = append(next, f.items[:idx]...)
	next = append(next, f.items[idx+1:]...)
	if err := f.commit(ctx, op, next); err != nil {
		return err
	}
	f.ops.Inc("remove")
	f.notifier.Notify(ctx, notify.Info("Removed from Favorites", removed.Title+" removed from your favorites"))
	return nil
}

// ToggleFavorite добавляет товар или убирает его, если он уже в избранном.
// Возвращает новое состояние принадлежности.
func (f *Favorites) ToggleFavorite(ctx context.Context, product models.Product) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexOf(product.ID) >= 0 {
		if err := f.remove(ctx, product.ID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := f.add(ctx, product); err != nil {
		return false, err
	}
	return true, nil
}

// Items возвращает копию избранного в порядке добавления.
func (f *Favorites) Items() []models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Product, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Favorites) commit(ctx context.Context, op string, next []models.Product) error {
	if err := f.store.Save(ctx, f.key, next); err != nil {
		f.log.Error("failed to persist favorites", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	f.items = next
	return nil
}

func (f *Favorites) indexOf(productID int) int {
	for i, p := range f.items {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

func dedup(items []models.Product) []models.Product {
	seen := make(map[int]struct{}, len(items))
	out := make([]models.Product, 0, len(items))
	for _, p := range items {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
