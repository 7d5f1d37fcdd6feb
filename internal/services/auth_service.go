package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
)

// AuthService определяет интерфейс для аутентификации администратора консоли.
type AuthService interface {
	Login(username, password string) (string, error) // Возвращает JWT токен или ошибку
	// VerifyToken проверяет токен и возвращает имя администратора.
	VerifyToken(token string) (string, error)
}

// Параметры JWT.
const (
	DefaultTokenTTL = time.Hour * 24
	tokenIssuer     = "hot-updater-server"
)

// AuthConfig - учетные данные администратора и секрет подписи токенов.
type AuthConfig struct {
	Username     string
	PasswordHash string // bcrypt-хэш пароля
	Secret       []byte
	TokenTTL     time.Duration
}

var _ AuthService = (*authService)(nil)

type authService struct {
	cfg AuthConfig
	log zerolog.Logger
}

// NewAuthService создает сервис аутентификации.
func NewAuthService(cfg AuthConfig) (AuthService, error) {
	if cfg.Username == "" || cfg.PasswordHash == "" {
		return nil, errors.New("не заданы учетные данные администратора")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("не задан секрет подписи JWT")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &authService{cfg: cfg, log: logger.Component("AuthService")}, nil
}

// Login проверяет учетные данные и выдает JWT токен.
func (s *authService) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	// Хэш сравнивается всегда, чтобы время ответа не зависело от имени.
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		s.log.Warn().Str("username", username).Msg("Неудачная попытка входа")
		return "", ErrInvalidCredentials
	}

	token, err := s.generateJWT(username)
	if err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("Ошибка генерации JWT")
		return "", errors.New("внутренняя ошибка сервера при генерации токена")
	}

	s.log.Info().Str("username", username).Msg("Администратор успешно аутентифицирован")
	return token, nil
}

// VerifyToken разбирает токен, проверяя подпись, срок действия и издателя.
func (s *authService) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return s.cfg.Secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: пустой subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// generateJWT создает и подписывает токен HS256 для администратора.
func (s *authService) generateJWT(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи JWT: %w", err)
	}
	return signed, nil
}

// Ошибки аутентификации.
var (
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	ErrInvalidToken       = errors.New("невалидный токен")
)
