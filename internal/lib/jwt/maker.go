package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/fashion-storefront/internal/models"
)

// ErrInvalidToken возвращается для токена с неверной подписью, сроком или форматом.
var ErrInvalidToken = errors.New("invalid token")

// Maker описывает выпуск и разбор токенов доступа.
type Maker interface {
	GenerateToken(deviceID string, session models.Session) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены алгоритмом HS256.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт MakerImpl с секретным ключом и временем жизни токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// GenerateToken выпускает токен для сессии устройства deviceID.
func (j *MakerImpl) GenerateToken(deviceID string, session models.Session) (string, error) {
	const op = "jwt.GenerateToken"
	now := j.now()
	claims := CustomClaims{
		UserID:   session.ID,
		Username: session.Username,
		Role:     session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает его claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return claims, nil
}
