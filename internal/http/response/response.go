// Package response формирует JSON‑ответы HTTP‑обработчиков в едином формате
// и доставляет клиенту накопленные уведомления устройства.
package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fashion-storefront/internal/device"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Notifications содержит уведомления, накопленные устройством с прошлого ответа.
type Response struct {
	Status        string                `json:"status"`
	Error         string                `json:"error,omitempty"`
	Data          any                   `json:"data,omitempty"`
	Notifications []models.Notification `json:"notifications,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status        string                `json:"status" example:"Error"`
	Error         string                `json:"error" example:"invalid request body"`
	Notifications []models.Notification `json:"notifications,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email address", err.Field()))
		case "url":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid url", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// JSON отправляет resp со статусом status. Уведомления устройства из
// контекста запроса забираются из его очереди и прикладываются к ответу.
func JSON(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	if st, ok := device.FromContext(r.Context()); ok {
		resp.Notifications = append(resp.Notifications, st.Inbox.Drain()...)
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
