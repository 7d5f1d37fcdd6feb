package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
)

// Тип для ключа контекста.
type contextKey string

// AdminKey - ключ, под которым в контексте хранится имя администратора.
const AdminKey contextKey = "admin"

// TokenVerifier проверяет токен и возвращает имя администратора.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// Authenticator проверяет JWT токен из заголовка Authorization.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	log := logger.Component("AuthMiddleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Debug().Str("path", r.URL.Path).Msg("Заголовок Authorization отсутствует")
				http.Error(w, "Требуется аутентификация", http.StatusUnauthorized)
				return
			}

			// Формат "Bearer token"
			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
				log.Debug().Msg("Неверный формат заголовка Authorization")
				http.Error(w, "Неверный формат токена", http.StatusUnauthorized)
				return
			}

			admin, err := verifier.VerifyToken(headerParts[1])
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Ошибка валидации токена")
				http.Error(w, "Невалидный токен", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext извлекает имя администратора из контекста запроса.
func AdminFromContext(ctx context.Context) (string, bool) {
	admin, ok := ctx.Value(AdminKey).(string)
	return admin, ok
}
