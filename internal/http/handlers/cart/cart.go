// Package cart реализует HTTP-обработчики корзины устройства.
//
// Клиент передаёт только id товара: карточка и цена берутся из каталога,
// поэтому цену в корзине нельзя подменить запросом.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/handlers"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/response"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	cartservice "github.com/magabrotheeeer/fashion-storefront/internal/services/cart"
)

// Cart корзина одного устройства.
type Cart interface {
	AddToCart(ctx context.Context, product models.Product, quantity int) error
	RemoveFromCart(ctx context.Context, productID int) error
	UpdateQuantity(ctx context.Context, productID, quantity int) error
	ClearCart(ctx context.Context) error
	Checkout(ctx context.Context) (*models.Order, error)
	Snapshot() cartservice.Summary
}

// Catalog выдаёт карточку товара.
type Catalog interface {
	Product(ctx context.Context, id int) (*models.Product, error)
}

// AddRequest тело POST /cart/items.
type AddRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"omitempty,min=1"`
}

// UpdateRequest тело PUT /cart/items/{id}. Количество 0 и меньше удаляет позицию.
type UpdateRequest struct {
	Quantity int `json:"quantity"`
}

// View содержимое корзины с итогами.
type View struct {
	Items      []models.CartEntry `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

// Handler обработчики /cart.
type Handler struct {
	log      *slog.Logger
	catalog  Catalog
	validate *validator.Validate
	cartOf   func(ctx context.Context) (Cart, bool)
}

// New создает новый Handler.
func New(log *slog.Logger, catalog Catalog) *Handler {
	return &Handler{
		log:      log,
		catalog:  catalog,
		validate: validator.New(),
		cartOf: func(ctx context.Context) (Cart, bool) {
			st, ok := device.FromContext(ctx)
			if !ok {
				return nil, false
			}
			return st.Cart, true
		},
	}
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request, op string) (*slog.Logger, Cart, bool) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	c, ok := h.cartOf(r.Context())
	if !ok {
		log.Error("device state missing")
		response.JSON(w, r, http.StatusInternalServerError, response.Error("device not identified"))
		return nil, nil, false
	}
	return log, c, true
}

func view(c Cart) View {
	s := c.Snapshot()
	return View{
		Items:      s.Items,
		TotalItems: s.TotalItems,
		TotalPrice: s.TotalPrice,
	}
}

// Get godoc
// @Summary Корзина устройства
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Response
// @Router /cart [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.begin(w, r, "handlers.cart.Get")
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(view(c)))
}

// AddItem godoc
// @Summary Добавить товар в корзину
// @Description Если товар уже в корзине, количество увеличивается. Количество по умолчанию 1.
// @Tags Cart
// @Accept json
// @Produce json
// @Param request body AddRequest true "Товар и количество"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /cart/items [post]
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	log, c, ok := h.begin(w, r, "handlers.cart.AddItem")
	if !ok {
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.JSON(w, r, http.StatusUnprocessableEntity, validationError(err))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, err := h.catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		log.Info("failed to fetch product", slog.Int("product_id", req.ProductID), sl.Err(err))
		handlers.ProductFetchFailed(r, err)
		response.JSON(w, r, handlers.RemoteStatus(err), response.Error("failed to fetch product"))
		return
	}

	if err := c.AddToCart(r.Context(), *p, req.Quantity); err != nil {
		h.fail(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(view(c)))
}

// UpdateItem godoc
// @Summary Изменить количество товара
// @Tags Cart
// @Accept json
// @Produce json
// @Param id path int true "ID товара"
// @Param request body UpdateRequest true "Новое количество"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /cart/items/{id} [put]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	log, c, ok := h.begin(w, r, "handlers.cart.UpdateItem")
	if !ok {
		return
	}

	id, err := handlers.ParamID(r, "id")
	if err != nil {
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid product id"))
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}

	if err := c.UpdateQuantity(r.Context(), id, req.Quantity); err != nil {
		h.fail(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(view(c)))
}

// RemoveItem godoc
// @Summary Удалить товар из корзины
// @Tags Cart
// @Produce json
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /cart/items/{id} [delete]
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	log, c, ok := h.begin(w, r, "handlers.cart.RemoveItem")
	if !ok {
		return
	}

	id, err := handlers.ParamID(r, "id")
	if err != nil {
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid product id"))
		return
	}
	if err := c.RemoveFromCart(r.Context(), id); err != nil {
		h.fail(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(view(c)))
}

// Clear godoc
// @Summary Очистить корзину
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /cart [delete]
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	log, c, ok := h.begin(w, r, "handlers.cart.Clear")
	if !ok {
		return
	}
	if err := c.ClearCart(r.Context()); err != nil {
		h.fail(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(view(c)))
}

// Checkout godoc
// @Summary Оформить заказ
// @Description Оформляет заказ из текущей корзины и очищает её.
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Корзина пуста"
// @Failure 500 {object} response.ErrorResponse
// @Router /cart/checkout [post]
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	log, c, ok := h.begin(w, r, "handlers.cart.Checkout")
	if !ok {
		return
	}

	order, err := c.Checkout(r.Context())
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	log.Info("order placed", slog.String("order_id", order.ID))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(order))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, cartservice.ErrInvalidQuantity):
		response.JSON(w, r, http.StatusUnprocessableEntity, response.Error("quantity must be at least 1"))
	case errors.Is(err, cartservice.ErrEmptyCart):
		response.JSON(w, r, http.StatusUnprocessableEntity, response.Error("cart is empty"))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Info("request cancelled", sl.Err(err))
		response.JSON(w, r, http.StatusServiceUnavailable, response.Error("request cancelled"))
	default:
		log.Error("cart operation failed", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error("failed to update cart"))
	}
}

func validationError(err error) response.Response {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return response.ValidationError(verrs)
	}
	return response.Error("invalid request")
}
