package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/internal/middleware"
	"github.com/gronxb/hot-updater-sub000/internal/services"
	"github.com/gronxb/hot-updater-sub000/models"
)

// maxCreateBodyBytes ограничивает тело запроса публикации бандлов.
const maxCreateBodyBytes = 1 << 20

// archiveUploadTimeout - срок на чтение архива и ответ. Серверные ReadTimeout и
// WriteTimeout рассчитаны на обычные запросы и для загрузки архива продлеваются.
const archiveUploadTimeout = 30 * time.Minute

// BundleHandler обрабатывает запросы консоли администратора к каталогу.
type BundleHandler struct {
	bundles services.BundleService
	events  services.EventService
	log     zerolog.Logger
}

// channelsResponse - ответ на запрос списка каналов.
type channelsResponse struct {
	Channels []string `json:"channels"`
}

// NewBundleHandler создает новый экземпляр BundleHandler.
func NewBundleHandler(bs services.BundleService, es services.EventService) *BundleHandler {
	return &BundleHandler{bundles: bs, events: es, log: logger.Component("BundleHandler")}
}

// List обрабатывает GET /bundles?channel&platform&limit&offset.
// Нечисловые limit и offset заменяются значениями по умолчанию.
func (h *BundleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.BundleFilter{
		Channel:  q.Get("channel"),
		Platform: models.Platform(q.Get("platform")),
	}
	if filter.Platform != "" && !filter.Platform.Valid() {
		http.Error(w, "Неизвестная платформа", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	list, err := h.bundles.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.internalError(w, r, err, "Ошибка получения списка бандлов")
		return
	}
	writeJSON(w, h.log, http.StatusOK, list)
}

// Get обрабатывает GET /bundles/{bundleId}.
func (h *BundleHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.bundles.Get(r.Context(), bundleIDParam(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, b)
}

// Create обрабатывает POST /bundles. Тело - один бандл или массив бандлов.
func (h *BundleHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCreateBodyBytes+1))
	if err != nil {
		http.Error(w, "Ошибка чтения тела запроса", http.StatusBadRequest)
		return
	}
	if len(body) > maxCreateBodyBytes {
		http.Error(w, "Слишком большое тело запроса", http.StatusRequestEntityTooLarge)
		return
	}

	bundles, err := decodeBundles(body)
	if err != nil {
		h.log.Debug().Err(err).Msg("Ошибка декодирования бандлов")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	created, err := h.bundles.Create(r.Context(), bundles)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	admin, _ := middleware.AdminFromContext(r.Context())
	h.log.Info().Str("admin", admin).Int("count", len(created)).Msg("Опубликованы бандлы")
	writeSuccess(w, h.log, http.StatusCreated)
}

// Update обрабатывает PATCH /bundles/{bundleId} и возвращает итоговый бандл.
func (h *BundleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.BundlePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	b, err := h.bundles.Update(r.Context(), bundleIDParam(r), patch)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, b)
}

// Delete обрабатывает DELETE /bundles/{bundleId}.
func (h *BundleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.bundles.Delete(r.Context(), bundleIDParam(r)); err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeSuccess(w, h.log, http.StatusOK)
}

// Channels обрабатывает GET /bundles/channels.
func (h *BundleHandler) Channels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.bundles.Channels(r.Context())
	if err != nil {
		h.internalError(w, r, err, "Ошибка получения списка каналов")
		return
	}
	writeJSON(w, h.log, http.StatusOK, channelsResponse{Channels: channels})
}

// RolloutStats обрабатывает GET /bundles/{bundleId}/rollout-stats.
func (h *BundleHandler) RolloutStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.events.RolloutStats(r.Context(), bundleIDParam(r))
	if err != nil {
		if errors.Is(err, services.ErrInvalidEvent) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.internalError(w, r, err, "Ошибка получения статистики раскатки")
		return
	}
	writeJSON(w, h.log, http.StatusOK, stats)
}

// UploadArchive обрабатывает PUT /bundles/{bundleId}/archive.
// Тело - архив бандла, размер берется из Content-Length.
func (h *BundleHandler) UploadArchive(w http.ResponseWriter, r *http.Request) {
	size := r.ContentLength
	if size <= 0 {
		http.Error(w, "Неверный или отсутствующий заголовок Content-Length", http.StatusBadRequest)
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/zip"
	}
	h.extendDeadlines(w, r)

	b, err := h.bundles.UploadArchive(r.Context(), bundleIDParam(r), r.Body, size, contentType)
	if err != nil {
		if errors.Is(err, services.ErrStorageDisabled) {
			http.Error(w, "Хранилище архивов не настроено", http.StatusNotImplemented)
			return
		}
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, b)
}

// extendDeadlines продлевает сроки чтения и записи соединения для долгой загрузки.
func (h *BundleHandler) extendDeadlines(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	deadline := time.Now().Add(archiveUploadTimeout)
	if err := rc.SetReadDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("Не удалось продлить срок чтения")
	}
	if err := rc.SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("Не удалось продлить срок записи")
	}
}

// serviceError переводит ошибки сервиса каталога в HTTP-статусы.
func (h *BundleHandler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrBundleNotFound):
		http.Error(w, "Бандл не найден", http.StatusNotFound)
	case errors.Is(err, services.ErrBundleExists):
		http.Error(w, "Бандл с таким id уже существует", http.StatusConflict)
	case errors.Is(err, services.ErrInvalidBundle):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.internalError(w, r, err, "Ошибка операции над каталогом")
	}
}

func (h *BundleHandler) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
}

func bundleIDParam(r *http.Request) models.BundleID {
	return models.BundleID(chi.URLParam(r, "bundleId"))
}

// decodeBundles принимает как один объект, так и массив.
func decodeBundles(body []byte) ([]models.Bundle, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("пустое тело запроса")
	}
	if trimmed[0] == '[' {
		var bundles []models.Bundle
		if err := json.Unmarshal(trimmed, &bundles); err != nil {
			return nil, err
		}
		return bundles, nil
	}
	var b models.Bundle
	if err := json.Unmarshal(trimmed, &b); err != nil {
		return nil, err
	}
	return []models.Bundle{b}, nil
}
