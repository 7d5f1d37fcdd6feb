package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/internal/services"
	"github.com/gronxb/hot-updater-sub000/models"
)

// AuthHandler обрабатывает вход администратора консоли.
type AuthHandler struct {
	service services.AuthService
	log     zerolog.Logger
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s services.AuthService) *AuthHandler {
	return &AuthHandler{service: s, log: logger.Component("AuthHandler")}
}

// Login обрабатывает запрос на вход и возвращает JWT токен.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug().Err(err).Msg("Ошибка декодирования запроса входа")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Имя пользователя и пароль не могут быть пустыми", http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			http.Error(w, "Неверное имя пользователя или пароль", http.StatusUnauthorized)
			return
		}
		h.log.Error().Err(err).Msg("Ошибка входа")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.log, http.StatusOK, models.LoginResponse{Token: token})
}
