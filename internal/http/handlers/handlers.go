// Package handlers содержит общие помощники HTTP-обработчиков витрины.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/fashion-storefront/internal/catalog"
	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
)

const (
	productNotFoundMsg    = "The product could not be found."
	productUnavailableMsg = "Failed to load the product. Please try again."
)

// ErrBadID параметр пути не является положительным числом.
var ErrBadID = errors.New("invalid id")

// ParamID разбирает числовой параметр пути name.
func ParamID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, ErrBadID
	}
	return id, nil
}

// RemoteStatus выбирает HTTP-статус для ошибки удалённого каталога.
func RemoteStatus(err error) int {
	if errors.Is(err, catalog.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// ProductFetchFailed отправляет устройству уведомление о том,
// что товар не удалось получить из каталога.
func ProductFetchFailed(r *http.Request, err error) {
	st, ok := device.FromContext(r.Context())
	if !ok {
		return
	}
	msg := productUnavailableMsg
	if errors.Is(err, catalog.ErrNotFound) {
		msg = productNotFoundMsg
	}
	st.Notify(r.Context(), notify.Failure("Error", msg))
}
