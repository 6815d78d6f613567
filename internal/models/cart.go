package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartEntry позиция корзины. В корзине не более одной позиции на товар.
type CartEntry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal возвращает стоимость позиции: цена × количество.
func (e CartEntry) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(e.Product.Price).Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Order результат имитации оформления заказа. Не сохраняется, только публикуется событием.
type Order struct {
	ID         string          `json:"id"`
	DeviceID   string          `json:"device_id"`
	Items      []CartEntry     `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	PlacedAt   time.Time       `json:"placed_at"`
}
