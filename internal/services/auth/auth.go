// Package auth входит в систему через удалённый API, хранит сессию
// устройства и выпускает подписанный токен доступа с ролью пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/magabrotheeeer/fashion-storefront/internal/catalog"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/fashion-storefront/internal/models"
	"github.com/magabrotheeeer/fashion-storefront/internal/notify"
	"github.com/magabrotheeeer/fashion-storefront/internal/persist"
	"github.com/magabrotheeeer/fashion-storefront/internal/storage"
)

var (
	// ErrUserNotFound удалённый API принял учётные данные, но пользователя нет в списке.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoSession у устройства нет активной сессии.
	ErrNoSession = errors.New("no active session")
)

// Remote операции удалённого API, нужные для входа.
type Remote interface {
	Login(ctx context.Context, username, password string) (string, error)
	Users(ctx context.Context) ([]models.User, error)
}

// AdminPolicy решает, является ли удалённый пользователь администратором.
type AdminPolicy interface {
	IsAdmin(userID int) bool
}

// LoginResult сессия и выпущенный для неё токен доступа.
type LoginResult struct {
	Session     models.Session `json:"user"`
	AccessToken string         `json:"access_token"`
}

// AuthService отвечает за вход, выход и сессии устройств.
type AuthService struct {
	remote   Remote
	jwtMaker jwt.Maker
	admins   AdminPolicy
	sessions *persist.Store[*models.Session]
	log      *slog.Logger
}

// NewAuthService создаёт AuthService. Сессии хранятся в kv.
func NewAuthService(remote Remote, jwtMaker jwt.Maker, admins AdminPolicy, kv storage.KV, log *slog.Logger) *AuthService {
	return &AuthService{
		remote:   remote,
		jwtMaker: jwtMaker,
		admins:   admins,
		sessions: persist.New(kv, log, func() *models.Session { return nil }),
		log:      log,
	}
}

// Login проверяет учётные данные в удалённом API, находит пользователя,
// назначает роль и сохраняет сессию устройства.
func (s *AuthService) Login(ctx context.Context, deviceID, username, password string, n notify.Notifier) (*LoginResult, error) {
	const op = "auth.Login"
	log := s.log.With(sl.Op(op), sl.Device(deviceID), slog.String("username", username))

	res, err := s.login(ctx, deviceID, username, password)
	if err != nil {
		log.Info("login failed", sl.Err(err))
		n.Notify(ctx, notify.Failure("Login Failed", loginFailure(err)))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u := res.Session.User
	n.Notify(ctx, notify.Info("Login Successful",
		"Welcome back, "+u.Name.Firstname+" "+u.Name.Lastname+"!"))
	log.Info("user logged in", slog.String("role", string(res.Session.Role)))
	return res, nil
}

func (s *AuthService) login(ctx context.Context, deviceID, username, password string) (*LoginResult, error) {
	token, err := s.remote.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	users, err := s.remote.Users(ctx)
	if err != nil {
		return nil, err
	}

	var found *models.User
	for i := range users {
		if users[i].Username == username {
			found = &users[i]
			break
		}
	}
	if found == nil {
		return nil, ErrUserNotFound
	}

	session := models.Session{User: *found, Token: token, Role: models.RoleClient}
	if s.admins.IsAdmin(found.ID) {
		session.Role = models.RoleAdmin
	}

	access, err := s.jwtMaker.GenerateToken(deviceID, session)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sessionKey(deviceID), &session); err != nil {
		return nil, err
	}
	return &LoginResult{Session: session, AccessToken: access}, nil
}

// Logout удаляет сессию устройства.
func (s *AuthService) Logout(ctx context.Context, deviceID string, n notify.Notifier) error {
	const op = "auth.Logout"
	if err := s.sessions.Delete(ctx, sessionKey(deviceID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n.Notify(ctx, notify.Info("Logged Out", "You have been successfully logged out."))
	return nil
}

// Session возвращает сессию устройства или ErrNoSession.
// Повреждённая сессия удаляется и считается отсутствующей.
func (s *AuthService) Session(ctx context.Context, deviceID string) (*models.Session, error) {
	const op = "auth.Session"
	session := s.sessions.Load(ctx, sessionKey(deviceID))
	if session == nil || session.Token == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	return session, nil
}

// ValidateToken проверяет токен доступа и возвращает его claims.
func (s *AuthService) ValidateToken(token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}

func sessionKey(deviceID string) string {
	return persist.DeviceKey(persist.SessionPrefix, deviceID)
}

func loginFailure(err error) string {
	var se *catalog.StatusError
	switch {
	case errors.As(err, &se):
		return "Login failed with status: " + strconv.Itoa(se.StatusCode)
	case errors.Is(err, catalog.ErrNoToken):
		return "Authentication failed: no token received"
	case errors.Is(err, ErrUserNotFound):
		return "User not found"
	default:
		return "Invalid username or password."
	}
}
