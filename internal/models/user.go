package models

// Role роль пользователя витрины.
type Role string

const (
	// RoleAdmin администратор: управление каталогом и рассылкой.
	RoleAdmin Role = "admin"
	// RoleClient обычный покупатель.
	RoleClient Role = "client"
)

// Name имя пользователя удалённого API.
type Name struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// User пользователь удалённого API.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     Name   `json:"name"`
	Phone    string `json:"phone,omitempty"`
}

// Session активная сессия устройства. Token — учётные данные удалённого API,
// Role выдаётся сервером и подписывается в токене доступа.
type Session struct {
	User
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// IsAdmin сообщает, является ли пользователь сессии администратором.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
