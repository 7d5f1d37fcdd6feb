package models

// UpdateStatus - тип решения, которое получает клиент.
type UpdateStatus string

// Возможные решения сервера обновлений.
const (
	StatusUpdate   UpdateStatus = "UPDATE"
	StatusRollback UpdateStatus = "ROLLBACK"
)

// UpdateInfo - решение движка до разрешения ссылки на хранилище.
type UpdateInfo struct {
	ID                BundleID     `json:"id"`
	Message           *string      `json:"message"`
	ShouldForceUpdate bool         `json:"shouldForceUpdate"`
	Status            UpdateStatus `json:"status"`
	StorageURI        *string      `json:"storageUri"`
	FileHash          *string      `json:"fileHash"`
	Signature         *string      `json:"signature"`
}

// AppUpdateInfo - ответ клиенту: ссылка на хранилище заменена на URL для скачивания.
type AppUpdateInfo struct {
	ID                BundleID     `json:"id"`
	Message           *string      `json:"message"`
	ShouldForceUpdate bool         `json:"shouldForceUpdate"`
	Status            UpdateStatus `json:"status"`
	FileURL           *string      `json:"fileUrl"`
	FileHash          *string      `json:"fileHash"`
	Signature         *string      `json:"signature"`
}

// WithFileURL собирает ответ клиенту из решения и разрешенного URL.
func (u *UpdateInfo) WithFileURL(fileURL *string) *AppUpdateInfo {
	return &AppUpdateInfo{
		ID:                u.ID,
		Message:           u.Message,
		ShouldForceUpdate: u.ShouldForceUpdate,
		Status:            u.Status,
		FileURL:           fileURL,
		FileHash:          u.FileHash,
		Signature:         u.Signature,
	}
}
