// Package jwt разбирает токены, выданные бэкендом KYC.
//
// Подпись токена проверяет только бэкенд: у портала нет ключа. Портал читает claims,
// чтобы заранее отбросить просроченную сессию при гидрации из хранилища.
// Непрозрачные (не JWT) токены считаются действующими, их срок знает только бэкенд.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry возвращается, если в токене нет claim exp.
var ErrNoExpiry = errors.New("token has no expiry")

// CustomClaims описывает пользовательские данные, которые бэкенд кладёт в JWT.
type CustomClaims struct {
	UserID               string `json:"id,omitempty"`
	Email                string `json:"email,omitempty"`
	Role                 string `json:"role,omitempty"`
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// ParseUnverified разбирает токен без проверки подписи.
func ParseUnverified(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseUnverified"
	claims := &CustomClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}

// ExpiresAt возвращает момент истечения токена.
func ExpiresAt(tokenStr string) (time.Time, error) {
	const op = "jwt.ExpiresAt"
	claims, err := ParseUnverified(tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrNoExpiry)
	}
	return claims.ExpiresAt.Time, nil
}

// Expired сообщает, что токен является JWT и его exp не позже now.
func Expired(tokenStr string, now time.Time) bool {
	exp, err := ExpiresAt(tokenStr)
	if err != nil {
		return false
	}
	return !exp.After(now)
}
