package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// successResponse - тело ответа на успешные операции записи.
type successResponse struct {
	Success bool `json:"success"`
}

// writeJSON отправляет v в JSON с указанным статусом.
// Ошибку кодирования только логируем: статус клиент уже получил.
func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Ошибка кодирования ответа")
	}
}

func writeSuccess(w http.ResponseWriter, log zerolog.Logger, status int) {
	writeJSON(w, log, status, successResponse{Success: true})
}
