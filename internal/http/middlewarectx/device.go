package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/http/response"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
)

const (
	// DeviceHeader заголовок с идентификатором устройства.
	DeviceHeader = "X-Device-ID"
	// DeviceCookie cookie с идентификатором устройства.
	DeviceCookie = "device_id"

	deviceCookieMaxAge = 365 * 24 * 60 * 60
)

// DeviceRegistry выдаёт состояние устройства по идентификатору.
type DeviceRegistry interface {
	Get(ctx context.Context, id string) (*device.State, error)
}

// DeviceMiddleware определяет устройство клиента по заголовку X-Device-ID
// или cookie device_id. Если идентификатора нет или он некорректен,
// выдаётся новый и записывается в cookie. Если состояние устройства
// не удалось загрузить, запрос получает 503.
func DeviceMiddleware(registry DeviceRegistry, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := deviceID(r)
			if id == "" {
				id = device.NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   deviceCookieMaxAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug("issued device id", slog.String("device_id", id))
			}
			w.Header().Set(DeviceHeader, id)

			st, err := registry.Get(r.Context(), id)
			if err != nil {
				log.Error("failed to load device state", slog.String("device_id", id), sl.Err(err))
				response.JSON(w, r, http.StatusServiceUnavailable, response.Error("device state is temporarily unavailable"))
				return
			}
			next.ServeHTTP(w, r.WithContext(device.WithState(r.Context(), st)))
		})
	}
}

func deviceID(r *http.Request) string {
	if id := r.Header.Get(DeviceHeader); device.IsValidID(id) {
		return id
	}
	if c, err := r.Cookie(DeviceCookie); err == nil && device.IsValidID(c.Value) {
		return c.Value
	}
	return ""
}
