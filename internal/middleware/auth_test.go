package middleware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gronxb/hot-updater-sub000/internal/middleware"
)

// MockVerifier is a mock implementation of middleware.TokenVerifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func TestAdminFromContext(t *testing.T) {
	tests := []struct {
		name          string
		ctx           context.Context
		expectedAdmin string
		expectedOK    bool
	}{
		{
			name:          "Контекст с администратором",
			ctx:           context.WithValue(context.Background(), middleware.AdminKey, "admin"),
			expectedAdmin: "admin",
			expectedOK:    true,
		},
		{
			name: "Пустой контекст",
			ctx:  context.Background(),
		},
		{
			name: "Значение неверного типа",
			ctx:  context.WithValue(context.Background(), middleware.AdminKey, 42),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin, ok := middleware.AdminFromContext(tt.ctx)
			assert.Equal(t, tt.expectedAdmin, admin)
			assert.Equal(t, tt.expectedOK, ok)
		})
	}
}

func TestAuthenticator(t *testing.T) {
	// Тестовый обработчик, который будет вызван после middleware
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := middleware.AdminFromContext(r.Context())
		if !ok {
			http.Error(w, "нет администратора в контексте", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, "OK "+admin)
	})

	tests := []struct {
		name           string
		authHeader     string
		mockSetup      func(v *MockVerifier)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:       "Валидный токен",
			authHeader: "Bearer good-token",
			mockSetup: func(v *MockVerifier) {
				v.On("VerifyToken", "good-token").Return("admin", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "OK admin",
		},
		{
			name:       "Схема в нижнем регистре",
			authHeader: "bearer good-token",
			mockSetup: func(v *MockVerifier) {
				v.On("VerifyToken", "good-token").Return("admin", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "OK admin",
		},
		{
			name:           "Нет заголовка",
			mockSetup:      func(_ *MockVerifier) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Требуется аутентификация\n",
		},
		{
			name:           "Неверный формат",
			authHeader:     "Token abc",
			mockSetup:      func(_ *MockVerifier) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Неверный формат токена\n",
		},
		{
			name:       "Невалидный токен",
			authHeader: "Bearer bad-token",
			mockSetup: func(v *MockVerifier) {
				v.On("VerifyToken", "bad-token").Return("", errors.New("token is expired")).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Невалидный токен\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockVerifier)
			tt.mockSetup(verifier)

			req := httptest.NewRequest(http.MethodGet, "/api/bundles", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			middleware.Authenticator(verifier)(nextHandler).ServeHTTP(rr, req)

			require.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedBody, rr.Body.String())
			verifier.AssertExpectations(t)
		})
	}
}
