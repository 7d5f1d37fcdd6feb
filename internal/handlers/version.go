package handlers

import (
	"net/http"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
)

type versionResponse struct {
	Version string `json:"version"`
}

// Version возвращает обработчик GET /version с версией сборки сервера.
func Version(version string) http.HandlerFunc {
	log := logger.Component("VersionHandler")
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, log, http.StatusOK, versionResponse{Version: version})
	}
}
