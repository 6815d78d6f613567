// Package auth реализует HTTP-обработчики входа, выхода и профиля.
//
// Вход проверяет учётные данные в удалённом API и возвращает подписанный
// токен доступа, привязанный к устройству. Токен удалённого API остаётся
// в сессии на сервере и клиенту не отдаётся.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fashion-storefront/internal/catalog"
	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/response"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
	authservice "github.com/magabrotheeeer/fashion-storefront/internal/services/auth"
)

// Service описывает сервис сессий.
type Service interface {
	Login(ctx context.Context, deviceID, username, password string, n notify.Notifier) (*authservice.LoginResult, error)
	Logout(ctx context.Context, deviceID string, n notify.Notifier) error
	Session(ctx context.Context, deviceID string) (*models.Session, error)
}

// LoginRequest тело POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Profile пользователь сессии без учётных данных удалённого API.
type Profile struct {
	models.User
	Role models.Role `json:"role"`
}

// LoginResponse данные успешного входа.
type LoginResponse struct {
	User        Profile `json:"user"`
	AccessToken string  `json:"access_token"`
}

// Handler обработчики /auth.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request, op string) (*slog.Logger, *device.State, bool) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	st, ok := device.FromContext(r.Context())
	if !ok {
		log.Error("device state missing")
		response.JSON(w, r, http.StatusInternalServerError, response.Error("device not identified"))
		return nil, nil, false
	}
	return log.With(sl.Device(st.ID)), st, true
}

// Login godoc
// @Summary Вход
// @Description Проверяет учётные данные в удалённом API и выдаёт токен доступа для устройства.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Учётные данные"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Login"
	log, st, ok := h.begin(w, r, op)
	if !ok {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.JSON(w, r, http.StatusUnprocessableEntity, response.ValidationError(verrs))
		} else {
			response.JSON(w, r, http.StatusUnprocessableEntity, response.Error("invalid credentials"))
		}
		return
	}

	res, err := h.service.Login(r.Context(), st.ID, req.Username, req.Password, st)
	if err != nil {
		status := loginStatus(err)
		log.Info("login rejected", slog.Int("status", status), sl.Err(err))
		response.JSON(w, r, status, response.Error("login failed"))
		return
	}

	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(LoginResponse{
		User:        Profile{User: res.Session.User, Role: res.Session.Role},
		AccessToken: res.AccessToken,
	}))
}

// Logout godoc
// @Summary Выход
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Logout"
	log, st, ok := h.begin(w, r, op)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), st.ID, st); err != nil {
		log.Error("failed to logout", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error("failed to logout"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(nil))
}

// Me godoc
// @Summary Текущий пользователь
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Me"
	log, st, ok := h.begin(w, r, op)
	if !ok {
		return
	}

	s, err := h.service.Session(r.Context(), st.ID)
	if err != nil {
		log.Info("no session", sl.Err(err))
		response.JSON(w, r, http.StatusUnauthorized, response.Error("not logged in"))
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(Profile{User: s.User, Role: s.Role}))
}

// loginStatus: отказ удалённого API в учётных данных и неизвестный
// пользователь дают 401, сбои удалённого API 502.
func loginStatus(err error) int {
	var se *catalog.StatusError
	switch {
	case errors.Is(err, authservice.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
