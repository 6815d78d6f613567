// Package newsletter реализует HTTP-обработчики рассылки: публичные
// подписку и отписку, а также административный список подписчиков,
// статистику и выгрузку в CSV.
package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/response"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
	newsletterservice "github.com/magabrotheeeer/fashion-storefront/internal/services/newsletter"
)

const (
	alreadySubscribedMsg = "This email is already subscribed to our newsletter."
	notSubscribedMsg     = "This email is not subscribed to our newsletter."
	genericFailureMsg    = "An error occurred. Please try again."
)

// Service описывает реестр подписчиков.
type Service interface {
	Subscribe(ctx context.Context, email string) (models.Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	Search(ctx context.Context, term string) []models.Subscriber
	Stats(ctx context.Context) models.SubscriberStats
	ExportCSV(ctx context.Context, w io.Writer) error
}

// Request тело запросов подписки и отписки.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Handler обработчики рассылки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	now      func() time.Time
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func notifyDevice(r *http.Request, n models.Notification) {
	if st, ok := device.FromContext(r.Context()); ok {
		st.Notify(r.Context(), n)
	}
}

// decode разбирает и проверяет тело запроса. При ошибке ответ уже отправлен.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger) (Request, bool) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.JSON(w, r, http.StatusUnprocessableEntity, response.ValidationError(verrs))
		} else {
			response.JSON(w, r, http.StatusUnprocessableEntity, response.Error("invalid email"))
		}
		return req, false
	}
	return req, true
}

// Subscribe godoc
// @Summary Подписаться на рассылку
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param request body Request true "Email подписчика"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Email уже подписан"
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /newsletter/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.Subscribe"
	log := h.logger(r, op)

	req, ok := h.decode(w, r, log)
	if !ok {
		return
	}

	sub, err := h.service.Subscribe(r.Context(), req.Email)
	switch {
	case errors.Is(err, newsletterservice.ErrAlreadySubscribed):
		notifyDevice(r, notify.Failure("Subscription failed", alreadySubscribedMsg))
		response.JSON(w, r, http.StatusConflict, response.Error(alreadySubscribedMsg))
		return
	case err != nil:
		log.Error("failed to subscribe", sl.Err(err))
		notifyDevice(r, notify.Failure("Subscription failed", genericFailureMsg))
		response.JSON(w, r, failureStatus(err), response.Error(genericFailureMsg))
		return
	}

	log.Info("subscribed to newsletter")
	notifyDevice(r, notify.Info("Subscription successful!", "Thank you for subscribing to our newsletter."))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(sub))
}

// Unsubscribe godoc
// @Summary Отписаться от рассылки
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param request body Request true "Email подписчика"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Email не подписан"
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /newsletter/unsubscribe [post]
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.Unsubscribe"
	log := h.logger(r, op)

	req, ok := h.decode(w, r, log)
	if !ok {
		return
	}
	if !h.unsubscribe(w, r, log, req.Email) {
		return
	}

	notifyDevice(r, notify.Info("Unsubscribed", "You have been unsubscribed from our newsletter."))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(map[string]string{"email": req.Email}))
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request, log *slog.Logger, email string) bool {
	err := h.service.Unsubscribe(r.Context(), email)
	switch {
	case errors.Is(err, newsletterservice.ErrNotSubscribed):
		notifyDevice(r, notify.Failure("Error", notSubscribedMsg))
		response.JSON(w, r, http.StatusNotFound, response.Error(notSubscribedMsg))
		return false
	case err != nil:
		log.Error("failed to unsubscribe", sl.Err(err))
		notifyDevice(r, notify.Failure("Error", genericFailureMsg))
		response.JSON(w, r, failureStatus(err), response.Error(genericFailureMsg))
		return false
	}
	return true
}

// Subscribers godoc
// @Summary Подписчики рассылки
// @Description Поиск по подстроке email без учёта регистра.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Подстрока email"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/newsletter/subscribers [get]
func (h *Handler) Subscribers(w http.ResponseWriter, r *http.Request) {
	subs := h.service.Search(r.Context(), r.URL.Query().Get("search"))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(subs))
}

// Remove godoc
// @Summary Отписать подписчика
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param email path string true "Email подписчика"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/newsletter/subscribers/{email} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.Remove"
	log := h.logger(r, op)

	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid email"))
		return
	}
	if !h.unsubscribe(w, r, log, email) {
		return
	}

	log.Info("subscriber removed by admin")
	notifyDevice(r, notify.Info("Subscriber removed", email+" has been unsubscribed from the newsletter."))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(map[string]string{"email": email}))
}

// Stats godoc
// @Summary Статистика рассылки
// @Description Итоги и число подписок за последние шесть месяцев.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/newsletter/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(h.service.Stats(r.Context())))
}

// Export godoc
// @Summary Выгрузка подписчиков в CSV
// @Tags Admin
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {string} string "CSV"
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/newsletter/subscribers.csv [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.Export"
	log := h.logger(r, op)

	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf); err != nil {
		log.Error("failed to export subscribers", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error("failed to export subscribers"))
		return
	}

	filename := "newsletter_subscribers_" + h.now().UTC().Format(time.DateOnly) + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error("failed to write csv", sl.Err(err))
		return
	}
	notifyDevice(r, notify.Info("Export successful", "Subscriber data has been exported to CSV."))
}

// failureStatus 503 для отменённого запроса, иначе 500.
func failureStatus(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
