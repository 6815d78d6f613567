// Package favorites реализует HTTP-обработчики избранного устройства.
package favorites

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/handlers"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/response"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
)

// Favorites избранное одного устройства.
type Favorites interface {
	IsFavorite(productID int) bool
	AddToFavorites(ctx context.Context, product models.Product) error
	RemoveFromFavorites(ctx context.Context, productID int) error
	ToggleFavorite(ctx context.Context, product models.Product) (bool, error)
	Items() []models.Product
}

// Catalog выдаёт карточку товара.
type Catalog interface {
	Product(ctx context.Context, id int) (*models.Product, error)
}

// ToggleResult ответ на переключение избранного.
type ToggleResult struct {
	ProductID  int  `json:"product_id"`
	IsFavorite bool `json:"is_favorite"`
}

// Handler обработчики /favorites.
type Handler struct {
	log     *slog.Logger
	catalog Catalog
	favOf   func(ctx context.Context) (Favorites, bool)
}

// New создает новый Handler.
func New(log *slog.Logger, catalog Catalog) *Handler {
	return &Handler{
		log:     log,
		catalog: catalog,
		favOf: func(ctx context.Context) (Favorites, bool) {
			st, ok := device.FromContext(ctx)
			if !ok {
				return nil, false
			}
			return st.Favorites, true
		},
	}
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request, op string) (*slog.Logger, Favorites, bool) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	f, ok := h.favOf(r.Context())
	if !ok {
		log.Error("device state missing")
		response.JSON(w, r, http.StatusInternalServerError, response.Error("device not identified"))
		return nil, nil, false
	}
	return log, f, true
}

// product разбирает id из пути и загружает товар из каталога.
func (h *Handler) product(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*models.Product, bool) {
	id, err := handlers.ParamID(r, "id")
	if err != nil {
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid product id"))
		return nil, false
	}
	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		log.Info("failed to fetch product", slog.Int("product_id", id), sl.Err(err))
		handlers.ProductFetchFailed(r, err)
		response.JSON(w, r, handlers.RemoteStatus(err), response.Error("failed to fetch product"))
		return nil, false
	}
	return p, true
}

// List godoc
// @Summary Избранные товары
// @Tags Favorites
// @Produce json
// @Success 200 {object} response.Response
// @Router /favorites [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, f, ok := h.begin(w, r, "handlers.favorites.List")
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(f.Items()))
}

// Toggle godoc
// @Summary Переключить товар в избранном
// @Tags Favorites
// @Produce json
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /favorites/{id}/toggle [post]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	log, f, ok := h.begin(w, r, "handlers.favorites.Toggle")
	if !ok {
		return
	}
	id, err := handlers.ParamID(r, "id")
	if err != nil {
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid product id"))
		return
	}

	// Для удаления карточка не нужна: снятие отметки работает и без каталога.
	p := &models.Product{ID: id}
	if !f.IsFavorite(id) {
		if p, ok = h.product(w, r, log); !ok {
			return
		}
	}

	added, err := f.ToggleFavorite(r.Context(), *p)
	if err != nil {
		log.Error("failed to toggle favorite", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error("failed to update favorites"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(ToggleResult{ProductID: p.ID, IsFavorite: added}))
}

// Add godoc
// @Summary Добавить товар в избранное
// @Description Повторное добавление ничего не меняет.
// @Tags Favorites
// @Produce json
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /favorites/{id} [put]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	log, f, ok := h.begin(w, r, "handlers.favorites.Add")
	if !ok {
		return
	}
	p, ok := h.product(w, r, log)
	if !ok {
		return
	}

	if err := f.AddToFavorites(r.Context(), *p); err != nil {
		log.Error("failed to add favorite", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error("failed to update favorites"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(f.Items()))
}

// Remove godoc
// @Summary Удалить товар из избранного
// @Tags Favorites
// @Produce json
// @Param id path int true "ID товара"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /favorites/{id} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	log, f, ok := h.begin(w, r, "handlers.favorites.Remove")
	if !ok {
		return
	}
	id, err := handlers.ParamID(r, "id")
	if err != nil {
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid product id"))
		return
	}

	if err := f.RemoveFromFavorites(r.Context(), id); err != nil {
		log.Error("failed to remove favorite", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error("failed to update favorites"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(f.Items()))
}
