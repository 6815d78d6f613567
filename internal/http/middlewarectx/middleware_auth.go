// Package middlewarectx содержит HTTP middleware витрины: определение
// устройства, проверку токена доступа и роли, ограничение частоты запросов
// и метрики.
//
// JWTMiddleware проверяет подписанный токен из заголовка Authorization и
// кладёт в контекст имя пользователя, его id и роль. Токен действителен
// только для устройства, которому он был выдан.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/response"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для имени пользователя в контексте
	User Key = "username"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
	// UserID — ключ для id пользователя удалённого API
	UserID Key = "uid"
)

const (
	loginRequired = "You must be logged in to access this page."
	adminRequired = "You must be an administrator to access this page."
)

// TokenValidator проверяет токен доступа.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
func JWTMiddleware(auth TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				accessDenied(r, loginRequired)
				response.JSON(w, r, http.StatusUnauthorized, response.Error("missing or invalid authorization header"))
				return
			}

			claims, err := auth.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				accessDenied(r, loginRequired)
				response.JSON(w, r, http.StatusUnauthorized, response.Error("invalid or expired token"))
				return
			}
			if st, ok := device.FromContext(r.Context()); ok && st.ID != claims.DeviceID() {
				log.Info("token issued for another device", sl.Device(st.ID))
				accessDenied(r, loginRequired)
				response.JSON(w, r, http.StatusUnauthorized, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), User, claims.Username)
			ctx = context.WithValue(ctx, Role, claims.Role)
			ctx = context.WithValue(ctx, UserID, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пропускает только запросы с ролью администратора.
// Должен стоять после JWTMiddleware.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(Role).(models.Role)
			if role != models.RoleAdmin {
				log.Info("admin access denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("role", string(role)),
				)
				accessDenied(r, adminRequired)
				response.JSON(w, r, http.StatusForbidden, response.Error(adminRequired))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accessDenied(r *http.Request, msg string) {
	if st, ok := device.FromContext(r.Context()); ok {
		st.Notify(r.Context(), notify.Failure("Access Denied", msg))
	}
}
