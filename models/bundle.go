package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// NilBundleID означает «бандл не установлен» и одновременно цель отката
// на встроенный в приложение код.
const NilBundleID BundleID = "00000000-0000-0000-0000-000000000000"

// DefaultChannel используется, когда клиент не передал канал.
const DefaultChannel = "production"

// BundleID - непрозрачный идентификатор бандла.
// Гарантия: строковый порядок совпадает с порядком создания (UUIDv7),
// поэтому «новее» означает «лексикографически больше».
type BundleID string

// NewBundleID генерирует новый идентификатор на основе UUIDv7.
func NewBundleID() (BundleID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return BundleID(id.String()), nil
}

// Compare сравнивает идентификаторы побайтово: -1, 0 или +1.
func (id BundleID) Compare(other BundleID) int {
	return strings.Compare(string(id), string(other))
}

// Less сообщает, что id создан раньше other.
func (id BundleID) Less(other BundleID) bool {
	return id.Compare(other) < 0
}

// IsNil сообщает, является ли идентификатор нулевым.
func (id BundleID) IsNil() bool {
	return id == NilBundleID
}

func (id BundleID) String() string {
	return string(id)
}

// Platform - целевая платформа бандла.
type Platform string

// Поддерживаемые платформы.
const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// Valid проверяет, что платформа входит в перечисление.
func (p Platform) Valid() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// Bundle представляет опубликованный бандл JS-кода и его метаданные.
// Тэги `db` используются sqlx, `json` повторяют формат исходного API.
type Bundle struct {
	ID                BundleID       `db:"id" json:"id" validate:"required"`
	Platform          Platform       `db:"platform" json:"platform" validate:"required,oneof=ios android"`
	Channel           string         `db:"channel" json:"channel" validate:"required"`
	Enabled           bool           `db:"enabled" json:"enabled"`
	ShouldForceUpdate bool           `db:"should_force_update" json:"shouldForceUpdate"`
	TargetAppVersion  *string        `db:"target_app_version" json:"targetAppVersion" validate:"required_without=FingerprintHash"` //nolint:lll // тэги
	FingerprintHash   *string        `db:"fingerprint_hash" json:"fingerprintHash" validate:"required_without=TargetAppVersion"`   //nolint:lll // тэги
	RolloutPercentage *int           `db:"rollout_percentage" json:"rolloutPercentage" validate:"omitempty,min=0,max=100"`
	TargetDeviceIDs   pq.StringArray `db:"target_device_ids" json:"targetDeviceIds"`
	StorageURI        string         `db:"storage_uri" json:"storageUri" validate:"required"`
	FileHash          string         `db:"file_hash" json:"fileHash"`
	Signature         *string        `db:"signature" json:"signature"`
	Message           *string        `db:"message" json:"message"`
	GitCommitHash     *string        `db:"git_commit_hash" json:"gitCommitHash"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
}

// Rollout возвращает процент раскатки с учетом значения по умолчанию (100).
func (b *Bundle) Rollout() int {
	if b.RolloutPercentage == nil {
		return 100
	}
	return *b.RolloutPercentage
}

// BundlePatch описывает частичное обновление бандла администратором.
// nil-поле означает «не менять».
type BundlePatch struct {
	Channel           *string   `json:"channel,omitempty"`
	Enabled           *bool     `json:"enabled,omitempty"`
	ShouldForceUpdate *bool     `json:"shouldForceUpdate,omitempty"`
	TargetAppVersion  *string   `json:"targetAppVersion,omitempty"`
	RolloutPercentage *int      `json:"rolloutPercentage,omitempty" validate:"omitempty,min=0,max=100"`
	TargetDeviceIDs   *[]string `json:"targetDeviceIds,omitempty"`
	Message           *string   `json:"message,omitempty"`
}

// Apply применяет изменения к копии бандла и возвращает ее.
func (p BundlePatch) Apply(b Bundle) Bundle {
	if p.Channel != nil {
		b.Channel = *p.Channel
	}
	if p.Enabled != nil {
		b.Enabled = *p.Enabled
	}
	if p.ShouldForceUpdate != nil {
		b.ShouldForceUpdate = *p.ShouldForceUpdate
	}
	if p.TargetAppVersion != nil {
		b.TargetAppVersion = p.TargetAppVersion
	}
	if p.RolloutPercentage != nil {
		b.RolloutPercentage = p.RolloutPercentage
	}
	if p.TargetDeviceIDs != nil {
		b.TargetDeviceIDs = pq.StringArray(*p.TargetDeviceIDs)
	}
	if p.Message != nil {
		b.Message = p.Message
	}
	return b
}

// BundleFilter - условия выборки списка бандлов в админке.
type BundleFilter struct {
	Channel  string
	Platform Platform
}

// Pagination описывает страницу списка.
type Pagination struct {
	Total           int  `json:"total"`
	Limit           int  `json:"limit"`
	Offset          int  `json:"offset"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
}

// NewPagination вычисляет параметры страницы по общему количеству записей.
func NewPagination(total, limit, offset int) Pagination {
	p := Pagination{Total: total, Limit: limit, Offset: offset}
	if limit <= 0 {
		return p
	}
	p.TotalPages = (total + limit - 1) / limit
	p.CurrentPage = offset/limit + 1
	p.HasNextPage = offset+limit < total
	p.HasPreviousPage = offset > 0
	return p
}

// BundleList - ответ на запрос списка бандлов.
type BundleList struct {
	Data       []Bundle   `json:"data"`
	Pagination Pagination `json:"pagination"`
}
