package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims — утверждения токена, выданного внешним сервисом идентификации.
// Ядро доверяет только идентификатору субъекта.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

var secretKey []byte

// Init запоминает ключ проверки подписи токенов
func Init(secret string) {
	secretKey = []byte(secret)
}

// VerifyToken извлекает идентификатор пользователя из заголовка Authorization.
// Никакой дополнительной информации о пользователе ядро не запрашивает —
// принципал остаётся непрозрачной строкой.
func VerifyToken(r *http.Request) (string, error) {
	authToken := r.Header.Get("Authorization")
	if authToken == "" {
		return "", fmt.Errorf("no authorization header")
	}
	authToken = strings.TrimPrefix(authToken, "Bearer ")

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(authToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", fmt.Errorf("token carries no user id")
	}

	return userID, nil
}
