// Package jwt выпускает и проверяет подписанные токены доступа витрины.
//
// Роль пользователя решает сервер при входе и кладёт в подписанный claim,
// поэтому клиент не может повысить себе права, изменив сохранённые данные.
package jwt

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/fashion-storefront/internal/models"
)

// CustomClaims данные сессии, хранящиеся в токене. Subject содержит
// идентификатор устройства, для которого выпущен токен.
type CustomClaims struct {
	UserID               int         `json:"uid"`
	Username             string      `json:"username"`
	Role                 models.Role `json:"role"`
	jwt.RegisteredClaims             // ExpiresAt, IssuedAt, Subject
}

// DeviceID возвращает устройство, которому выдан токен.
func (c *CustomClaims) DeviceID() string {
	return c.Subject
}

// IsAdmin сообщает, подписана ли в токене роль администратора.
func (c *CustomClaims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}
