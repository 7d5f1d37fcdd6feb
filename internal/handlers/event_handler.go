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

// EventHandler принимает события устройств от клиентского SDK.
type EventHandler struct {
	service services.EventService
	log     zerolog.Logger
}

// NewEventHandler создает новый экземпляр EventHandler.
func NewEventHandler(s services.EventService) *EventHandler {
	return &EventHandler{service: s, log: logger.Component("EventHandler")}
}

// Track обрабатывает POST /track.
func (h *EventHandler) Track(w http.ResponseWriter, r *http.Request) {
	var event models.DeviceEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	switch {
	case event.DeviceID == "" || event.BundleID == "" || event.EventType == "" ||
		event.Platform == "" || event.Channel == "":
		http.Error(w, "Не заполнены обязательные поля", http.StatusBadRequest)
		return
	case event.EventType != models.EventPromoted && event.EventType != models.EventRecovered:
		http.Error(w, "Неизвестный тип события", http.StatusBadRequest)
		return
	case !event.Platform.Valid():
		http.Error(w, "Неизвестная платформа", http.StatusBadRequest)
		return
	}

	if err := h.service.Track(r.Context(), &event); err != nil {
		if errors.Is(err, services.ErrInvalidEvent) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Str("bundle_id", event.BundleID.String()).Msg("Ошибка сохранения события")
		http.Error(w, "Не удалось сохранить событие", http.StatusInternalServerError)
		return
	}
	writeSuccess(w, h.log, http.StatusOK)
}
