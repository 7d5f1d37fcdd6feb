package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/internal/resolver"
	"github.com/gronxb/hot-updater-sub000/internal/services"
	"github.com/gronxb/hot-updater-sub000/models"
)

// UpdateHandler отвечает клиентскому SDK на проверку обновлений.
// Ответ - AppUpdateInfo в JSON или null, если обновлять нечего.
type UpdateHandler struct {
	service services.UpdateService
	log     zerolog.Logger
}

// NewUpdateHandler создает новый экземпляр UpdateHandler.
func NewUpdateHandler(s services.UpdateService) *UpdateHandler {
	return &UpdateHandler{service: s, log: logger.Component("UpdateHandler")}
}

// AppVersion обрабатывает GET /app-version/{platform}/{appVersion}/{channel}/{minBundleId}/{bundleId}[/{deviceId}].
func (h *UpdateHandler) AppVersion(w http.ResponseWriter, r *http.Request) {
	req, err := resolver.NewAppVersionRequest(commonFromPath(r), decodeLenient(chi.URLParam(r, "appVersion")))
	if err != nil {
		h.badRequest(w, err)
		return
	}
	h.respond(w, r, req)
}

// Fingerprint обрабатывает GET /fingerprint/{platform}/{fingerprintHash}/{channel}/{minBundleId}/{bundleId}[/{deviceId}].
func (h *UpdateHandler) Fingerprint(w http.ResponseWriter, r *http.Request) {
	req, err := resolver.NewFingerprintRequest(commonFromPath(r), decodeLenient(chi.URLParam(r, "fingerprintHash")))
	if err != nil {
		h.badRequest(w, err)
		return
	}
	h.respond(w, r, req)
}

func (h *UpdateHandler) respond(w http.ResponseWriter, r *http.Request, req resolver.Request) {
	info, err := h.service.GetAppUpdateInfo(r.Context(), req)
	if err != nil {
		c := resolver.CommonOf(req)
		h.log.Error().Err(err).
			Str("platform", string(c.Platform)).
			Str("channel", c.Channel).
			Msg("Ошибка проверки обновления")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	// nil кодируется как null.
	writeJSON(w, h.log, http.StatusOK, info)
}

func (h *UpdateHandler) badRequest(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, resolver.ErrMissingPlatform),
		errors.Is(err, resolver.ErrInvalidPlatform),
		errors.Is(err, resolver.ErrMissingAppVersion),
		errors.Is(err, resolver.ErrMissingFingerprint):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "Неверный запрос", http.StatusBadRequest)
	}
}

// commonFromPath собирает общие поля запроса из параметров маршрута.
// Клиент экранирует каждый сегмент, поэтому строковые сегменты декодируются.
func commonFromPath(r *http.Request) resolver.Common {
	c := resolver.Common{
		Platform:    models.Platform(chi.URLParam(r, "platform")),
		Channel:     decodeLenient(chi.URLParam(r, "channel")),
		MinBundleID: models.BundleID(chi.URLParam(r, "minBundleId")),
		BundleID:    models.BundleID(chi.URLParam(r, "bundleId")),
	}
	if raw := chi.URLParam(r, "deviceId"); raw != "" {
		deviceID := decodeLenient(raw)
		c.DeviceID = &deviceID
	}
	return c
}

// decodeLenient декодирует сегмент пути, при ошибке возвращает его как есть.
func decodeLenient(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
