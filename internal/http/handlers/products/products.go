// Package products реализует HTTP-обработчики каталога товаров.
//
// Чтение доступно всем. Создание, изменение и удаление выполняются
// от имени администратора с токеном удалённого API из сессии устройства.
package products

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/handlers"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/response"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
)

// Service описывает каталог товаров.
type Service interface {
	Search(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	Product(ctx context.Context, id int) (*models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, in models.ProductInput, token string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int, in models.ProductInput, token string) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int, token string) (*models.Product, error)
}

// Sessions выдаёт сессию устройства.
type Sessions interface {
	Session(ctx context.Context, deviceID string) (*models.Session, error)
}

// Handler обработчики /products.
type Handler struct {
	log      *slog.Logger
	service  Service
	sessions Sessions
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, sessions Sessions) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		sessions: sessions,
		validate: validator.New(),
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List godoc
// @Summary Список товаров
// @Description Возвращает товары с фильтром по категории и поиском по названию, описанию и категории.
// @Tags Products
// @Produce json
// @Param limit query int false "Максимум товаров"
// @Param category query string false "Категория, all без фильтра"
// @Param search query string false "Подстрока поиска"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /products [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.List"
	log := h.logger(r, op)

	q := r.URL.Query()
	f := models.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			log.Info("invalid limit", slog.String("limit", v))
			response.JSON(w, r, http.StatusBadRequest, response.Error("invalid limit"))
			return
		}
		f.Limit = limit
	}

	products, err := h.service.Search(r.Context(), f)
	if err != nil {
		log.Error("failed to fetch products", sl.Err(err))
		response.JSON(w, r, http.StatusBadGateway, response.Error("failed to fetch products"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(products))
}

// Get godoc
// @Summary Товар по id
// @Tags Products
// @Produce json
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /products/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.Get"
	log := h.logger(r, op)

	id, err := handlers.ParamID(r, "id")
	if err != nil {
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid product id"))
		return
	}

	p, err := h.service.Product(r.Context(), id)
	if err != nil {
		status := handlers.RemoteStatus(err)
		log.Info("failed to fetch product", slog.Int("id", id), sl.Err(err))
		if status == http.StatusNotFound {
			response.JSON(w, r, status, response.Error("product not found"))
			return
		}
		response.JSON(w, r, status, response.Error("failed to fetch product"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(p))
}

// Categories godoc
// @Summary Категории товаров
// @Tags Products
// @Produce json
// @Success 200 {object} response.Response
// @Failure 502 {object} response.ErrorResponse
// @Router /products/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.Categories"

	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger(r, op).Error("failed to fetch categories", sl.Err(err))
		response.JSON(w, r, http.StatusBadGateway, response.Error("failed to fetch categories"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(categories))
}

// Create godoc
// @Summary Создать товар
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ProductInput true "Товар"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /products [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.Create"
	log := h.logger(r, op)

	st, in, token, ok := h.prepareWrite(w, r, log, "create")
	if !ok {
		return
	}

	p, err := h.service.CreateProduct(r.Context(), in, token)
	if err != nil {
		log.Error("failed to create product", sl.Err(err))
		st.Notify(r.Context(), notify.Failure("Error", "Failed to create the product."))
		response.JSON(w, r, handlers.RemoteStatus(err), response.Error("failed to create product"))
		return
	}

	log.Info("product created", slog.Int("id", p.ID))
	st.Notify(r.Context(), notify.Info("Product Created", "The product has been created successfully."))
	response.JSON(w, r, http.StatusCreated, response.StatusOKWithData(p))
}

// Update godoc
// @Summary Изменить товар
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID товара"
// @Param request body models.ProductInput true "Товар"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /products/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.Update"
	log := h.logger(r, op)

	id, err := handlers.ParamID(r, "id")
	if err != nil {
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid product id"))
		return
	}
	st, in, token, ok := h.prepareWrite(w, r, log, "edit")
	if !ok {
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), id, in, token)
	if err != nil {
		log.Error("failed to update product", slog.Int("id", id), sl.Err(err))
		st.Notify(r.Context(), notify.Failure("Error", "Failed to update the product."))
		response.JSON(w, r, handlers.RemoteStatus(err), response.Error("failed to update product"))
		return
	}

	log.Info("product updated", slog.Int("id", id))
	st.Notify(r.Context(), notify.Info("Product Updated", "The product has been updated successfully."))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(p))
}

// Delete godoc
// @Summary Удалить товар
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /products/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.Delete"
	log := h.logger(r, op)

	id, err := handlers.ParamID(r, "id")
	if err != nil {
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid product id"))
		return
	}
	st, token, ok := h.session(w, r, log, "delete")
	if !ok {
		return
	}

	p, err := h.service.DeleteProduct(r.Context(), id, token)
	if err != nil {
		log.Error("failed to delete product", slog.Int("id", id), sl.Err(err))
		st.Notify(r.Context(), notify.Failure("Error", "Failed to delete the product."))
		response.JSON(w, r, handlers.RemoteStatus(err), response.Error("failed to delete product"))
		return
	}

	log.Info("product deleted", slog.Int("id", id))
	st.Notify(r.Context(), notify.Info("Product Deleted", "The product has been successfully deleted."))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(p))
}

// prepareWrite проверяет сессию устройства и разбирает тело запроса.
func (h *Handler) prepareWrite(w http.ResponseWriter, r *http.Request, log *slog.Logger, action string) (*device.State, models.ProductInput, string, bool) {
	var in models.ProductInput

	st, token, ok := h.session(w, r, log, action)
	if !ok {
		return nil, in, "", false
	}

	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return nil, in, "", false
	}
	if err := h.validate.Struct(in); err != nil {
		log.Info("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.JSON(w, r, http.StatusUnprocessableEntity, response.ValidationError(verrs))
		} else {
			response.JSON(w, r, http.StatusUnprocessableEntity, response.Error("invalid product"))
		}
		return nil, in, "", false
	}
	return st, in, token, true
}

// session возвращает устройство и токен удалённого API из его сессии.
func (h *Handler) session(w http.ResponseWriter, r *http.Request, log *slog.Logger, action string) (*device.State, string, bool) {
	st, ok := device.FromContext(r.Context())
	if !ok {
		log.Error("device state missing")
		response.JSON(w, r, http.StatusInternalServerError, response.Error("device not identified"))
		return nil, "", false
	}

	s, err := h.sessions.Session(r.Context(), st.ID)
	if err != nil {
		msg := "You must be logged in to " + action + " a product."
		log.Info("no session for product write", sl.Device(st.ID), sl.Err(err))
		st.Notify(r.Context(), notify.Failure("Error", msg))
		response.JSON(w, r, http.StatusUnauthorized, response.Error(msg))
		return nil, "", false
	}
	return st, s.Token, true
}
