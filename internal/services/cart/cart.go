// Package cart управляет корзиной одного устройства.
//
// Изменения корзины выполняются по одному. Новое состояние сначала
// записывается в хранилище и только после успешной записи становится
// текущим, поэтому неудачная запись оставляет корзину прежней.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/fashion-storefront/internal/events"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
	"github.com/magabrotheeeer/fashion-storefront/internal/persist"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
)

var (
	// ErrInvalidQuantity количество добавляемого товара меньше единицы.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrEmptyCart оформление пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
)

var cleared = notify.Info("Cart Cleared", "All items have been removed from your cart")

// OpCounter считает выполненные операции.
type OpCounter interface {
	Inc(op string)
}

type nopCounter struct{}

func (nopCounter) Inc(string) {}

// Options зависимости корзины. Нулевые поля заменяются заглушками.
type Options struct {
	Notifier      notify.Notifier
	Publisher     events.Publisher
	Ops           OpCounter
	Log           *slog.Logger
	CheckoutDelay time.Duration
}

// Cart корзина устройства.
type Cart struct {
	mu       sync.Mutex
	store    *persist.Store[[]models.CartEntry]
	key      string
	deviceID string
	items    []models.CartEntry

	notifier  notify.Notifier
	publisher events.Publisher
	ops       OpCounter
	log       *slog.Logger
	delay     time.Duration
	now       func() time.Time
}

// NewStore создаёт хранилище корзин. Отсутствующая корзина читается как пустая.
func NewStore(kv storage.KV, log *slog.Logger) *persist.Store[[]models.CartEntry] {
	return persist.New(kv, log, func() []models.CartEntry { return []models.CartEntry{} })
}

// New загружает корзину устройства deviceID из store. Ошибка чтения
// хранилища возвращается, а не превращается в пустую корзину.
func New(ctx context.Context, store *persist.Store[[]models.CartEntry], deviceID string, opts Options) (*Cart, error) {
	const op = "cart.New"
	c := &Cart{
		store:     store,
		key:       persist.DeviceKey(persist.CartPrefix, deviceID),
		deviceID:  deviceID,
		notifier:  opts.Notifier,
		publisher: opts.Publisher,
		ops:       opts.Ops,
		log:       opts.Log,
		delay:     opts.CheckoutDelay,
		now:       time.Now,
	}
	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	if c.publisher == nil {
		c.publisher = events.Nop{}
	}
	if c.ops == nil {
		c.ops = nopCounter{}
	}
	if c.log == nil {
		c.log = sl.Discard()
	}
	c.log = c.log.With(sl.Device(deviceID))
	items, err := store.Fetch(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.items = sanitize(items)
	return c, nil
}

// AddToCart добавляет quantity единиц товара. Если товар уже в корзине,
// количество увеличивается, иначе добавляется новая позиция в конец.
func (c *Cart) AddToCart(ctx context.Context, product models.Product, quantity int) error {
	const op = "cart.AddToCart"
	if quantity < 1 {
		return fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.snapshot()
	idx := indexOf(next, product.ID)
	var n models.Notification
	if idx >= 0 {
		next[idx].Quantity += quantity
		n = notify.Info("Cart Updated",
			product.Title+" quantity updated to "+strconv.Itoa(next[idx].Quantity))
	} else {
		next = append(next, models.CartEntry{Product: product, Quantity: quantity})
		n = notify.Info("Added to Cart", product.Title+" added to your cart")
	}

	if err := c.commit(ctx, op, next); err != nil {
		return err
	}
	c.ops.Inc("add")
	c.notifier.Notify(ctx, n)
	return nil
}

// RemoveFromCart удаляет позицию товара. Отсутствующий товар не ошибка.
func (c *Cart) RemoveFromCart(ctx context.Context, productID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(ctx, productID)
}

func (c *Cart) remove(ctx context.Context, productID int) error {
	const op = "cart.RemoveFromCart"
	idx := indexOf(c.items, productID)
	if idx < 0 {
		return nil
	}
	removed := c.items[idx].Product

	next := make([]models.CartEntry, 0, len(c.items)-1)
	next = append(next, c.items[:idx]...)
	next = append(next, c.items[idx+1:]...)
	if err := c.commit(ctx, op, next); err != nil {
		return err
	}
	c.ops.Inc("remove")
	c.notifier.Notify(ctx, notify.Info("Removed from Cart", removed.Title+" removed from your cart"))
	return nil
}

// UpdateQuantity задаёт количество товара. Значение <= 0 удаляет позицию,
// неизвестный товар игнорируется.
func (c *Cart) UpdateQuantity(ctx context.Context, productID, quantity int) error {
	const op = "cart.UpdateQuantity"
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		return c.remove(ctx, productID)
	}
	idx := indexOf(c.items, productID)
	if idx < 0 {
		return nil
	}
	next := c.snapshot()
	next[idx].Quantity = quantity
	if err := c.commit(ctx, op, next); err != nil {
		return err
	}
	c.ops.Inc("update")
	return nil
}

// ClearCart очищает корзину.
func (c *Cart) ClearCart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clear(ctx)
}

func (c *Cart) clear(ctx context.Context) error {
	const op = "cart.ClearCart"
	if err := c.commit(ctx, op, []models.CartEntry{}); err != nil {
		return err
	}
	c.ops.Inc("clear")
	c.notifier.Notify(ctx, cleared)
	return nil
}

// Checkout имитирует оплату: ждёт заданную задержку, очищает корзину
// и публикует событие заказа. Отмена ctx во время ожидания ничего не меняет.
func (c *Cart) Checkout(ctx context.Context) (*models.Order, error) {
	const op = "cart.Checkout"
	if len(c.Items()) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	case <-timer.C:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}
	order := &models.Order{
		ID:         uuid.NewString(),
		DeviceID:   c.deviceID,
		Items:      c.snapshot(),
		TotalItems: totalItems(c.items),
		TotalPrice: totalPrice(c.items),
		PlacedAt:   c.now().UTC(),
	}

	if err := c.commit(ctx, op, []models.CartEntry{}); err != nil {
		return nil, err
	}
	c.ops.Inc("checkout")
	c.notifier.Notify(ctx, notify.Info("Order Placed", "Your order has been successfully placed!"))
	c.notifier.Notify(ctx, cleared)

	if err := c.publisher.Publish(ctx, events.OrderPlaced, events.OrderEvent{Order: *order}); err != nil {
		c.log.Error("failed to publish order event", sl.Op(op), slog.String("order_id", order.ID), sl.Err(err))
	}
	return order, nil
}

// Summary позиции корзины и итоги, снятые под одной блокировкой.
type Summary struct {
	Items      []models.CartEntry
	TotalItems int
	TotalPrice decimal.Decimal
}

// Snapshot возвращает согласованные позиции и итоги корзины.
func (c *Cart) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summary{
		Items:      c.snapshot(),
		TotalItems: totalItems(c.items),
		TotalPrice: totalPrice(c.items),
	}
}

// Items возвращает копию позиций корзины в порядке добавления.
func (c *Cart) Items() []models.CartEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// TotalItems возвращает суммарное количество единиц товара.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalItems(c.items)
}

// TotalPrice возвращает сумму цена × количество по всем позициям.
func (c *Cart) TotalPrice() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalPrice(c.items)
}

func (c *Cart) commit(ctx context.Context, op string, next []models.CartEntry) error {
	if err := c.store.Save(ctx, c.key, next); err != nil {
		c.log.Error("failed to persist cart", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	c.items = next
	return nil
}

func (c *Cart) snapshot() []models.CartEntry {
	out := make([]models.CartEntry, len(c.items))
	copy(out, c.items)
	return out
}

func indexOf(items []models.CartEntry, productID int) int {
	for i, e := range items {
		if e.Product.ID == productID {
			return i
		}
	}
	return -1
}

func totalItems(items []models.CartEntry) int {
	n := 0
	for _, e := range items {
		n += e.Quantity
	}
	return n
}

func totalPrice(items []models.CartEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range items {
		sum = sum.Add(e.Subtotal())
	}
	return sum
}

// sanitize отбрасывает из загруженного состояния позиции с количеством
// меньше единицы и повторы товара, оставляя первую позицию.
func sanitize(items []models.CartEntry) []models.CartEntry {
	out := make([]models.CartEntry, 0, len(items))
	for _, e := range items {
		if e.Quantity < 1 || indexOf(out, e.Product.ID) >= 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}
