// Package models содержит доменные структуры витрины: товары каталога,
// позиции корзины, подписчиков рассылки, сессии пользователей и уведомления.
package models

// Rating оценка товара в удалённом каталоге.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product товар удалённого каталога. После получения считается неизменяемым:
// корзина и избранное хранят копии, а не ссылки.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// ProductInput данные для создания или изменения товара.
type ProductInput struct {
	Title       string  `json:"title" validate:"required,min=3"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Description string  `json:"description" validate:"required,min=10"`
	Category    string  `json:"category" validate:"required"`
	Image       string  `json:"image" validate:"required,url"`
	Rating      *Rating `json:"rating,omitempty"`
}

// ProductFilter параметры фильтрации списка товаров.
// Пустая категория или "all" означает отсутствие фильтра по категории.
type ProductFilter struct {
	Limit    int
	Category string
	Search   string
}
