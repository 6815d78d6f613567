// Package device хранит состояние клиентских устройств: корзину,
// избранное и очередь уведомлений. Состояние создаётся при первом
// обращении и загружается из хранилища.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/fashion-storefront/internal/events"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
	"github.com/magabrotheeeer/fashion-storefront/internal/persist"
	"github.com/magabrotheeeer/fashion-storefront/internal/services/cart"
	"github.com/magabrotheeeer/fashion-storefront/internal/services/favorites"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
)

const inboxLimit = 32

// NewID возвращает новый идентификатор устройства.
func NewID() string {
	return uuid.NewString()
}

// IsValidID сообщает, похож ли id на выданный идентификатор устройства.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// State состояние одного устройства.
type State struct {
	ID        string
	Cart      *cart.Cart
	Favorites *favorites.Favorites
	Inbox     *notify.Inbox
	// Notifier доставляет уведомления в Inbox и в лог.
	Notifier notify.Notifier
}

// Значения по умолчанию для вытеснения устройств.
const (
	DefaultIdleTTL    = 30 * time.Minute
	DefaultMaxDevices = 100_000
)

// Options зависимости менеджеров устройства.
//
// IdleTTL и MaxDevices ограничивают число загруженных устройств: к кому
// не обращались дольше IdleTTL, выгружаются, а при переполнении выгружается
// самое давнее. Данные остаются в хранилище и загружаются заново.
type Options struct {
	Publisher     events.Publisher
	CartOps       cart.OpCounter
	FavoritesOps  favorites.OpCounter
	CheckoutDelay time.Duration
	IdleTTL       time.Duration
	MaxDevices    int
	Log           *slog.Logger
}

type entry struct {
	state    *State
	lastSeen time.Time
}

// Registry реестр состояний устройств. Для каждого загруженного устройства
// существует ровно один экземпляр State, поэтому изменения его корзины идут
// через один мьютекс.
type Registry struct {
	mu        sync.Mutex
	devices   map[string]*entry
	lastSweep time.Time
	cartStore *persist.Store[[]models.CartEntry]
	favStore  *persist.Store[[]models.Product]
	opts      Options
	now       func() time.Time
}

// NewRegistry создаёт реестр поверх kv.
func NewRegistry(kv storage.KV, opts Options) *Registry {
	if opts.Log == nil {
		opts.Log = sl.Discard()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.MaxDevices <= 0 {
		opts.MaxDevices = DefaultMaxDevices
	}
	return &Registry{
		devices:   make(map[string]*entry),
		cartStore: cart.NewStore(kv, opts.Log),
		favStore:  favorites.NewStore(kv, opts.Log),
		opts:      opts,
		now:       time.Now,
	}
}

// Get возвращает состояние устройства id, загружая его при первом обращении.
// Если хранилище недоступно, возвращается ошибка и ничего не кешируется:
// следующий вызов попробует загрузить состояние снова.
func (r *Registry) Get(ctx context.Context, id string) (*State, error) {
	const op = "device.Registry.Get"
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.devices[id]; ok {
		e.lastSeen = now
		return e.state, nil
	}
	r.sweep(now)

	st, err := r.load(ctx, id)
	if err != nil {
		r.opts.Log.Error("failed to load device state", sl.Op(op), sl.Device(id), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(r.devices) >= r.opts.MaxDevices {
		r.evictOldest()
	}
	r.devices[id] = &entry{state: st, lastSeen: now}
	return st, nil
}

func (r *Registry) load(ctx context.Context, id string) (*State, error) {
	// Загрузка не должна обрываться вместе с запросом: пустая корзина
	// после отменённого чтения затёрла бы сохранённую при следующей записи.
	loadCtx := context.WithoutCancel(ctx)
	inbox := notify.NewInbox(inboxLimit)
	notifier := notify.Multi{inbox, notify.NewLog(r.opts.Log.With(sl.Device(id)))}

	c, err := cart.New(loadCtx, r.cartStore, id, cart.Options{
		Notifier:      notifier,
		Publisher:     r.opts.Publisher,
		Ops:           r.opts.CartOps,
		Log:           r.opts.Log,
		CheckoutDelay: r.opts.CheckoutDelay,
	})
	if err != nil {
		return nil, err
	}
	f, err := favorites.New(loadCtx, r.favStore, id, notifier, r.opts.FavoritesOps, r.opts.Log)
	if err != nil {
		return nil, err
	}
	return &State{ID: id, Inbox: inbox, Cart: c, Favorites: f, Notifier: notifier}, nil
}

// sweep выгружает устройства, простаивающие дольше IdleTTL.
// Проход выполняется не чаще раза в IdleTTL.
func (r *Registry) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.opts.IdleTTL {
		return
	}
	r.lastSweep = now
	for id, e := range r.devices {
		if now.Sub(e.lastSeen) > r.opts.IdleTTL {
			delete(r.devices, id)
		}
	}
}

func (r *Registry) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range r.devices {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	delete(r.devices, oldestID)
}

// Len возвращает количество загруженных устройств.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

type ctxKey struct{}

// WithState кладёт состояние устройства в контекст запроса.
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext возвращает состояние устройства текущего запроса.
func FromContext(ctx context.Context) (*State, bool) {
	st, ok := ctx.Value(ctxKey{}).(*State)
	return st, ok && st != nil
}

// Notify отправляет уведомление устройству.
func (s *State) Notify(ctx context.Context, n models.Notification) {
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, n)
		return
	}
	s.Inbox.Notify(ctx, n)
}
