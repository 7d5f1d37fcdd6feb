package resolver

import (
	"errors"

	"github.com/gronxb/hot-updater-sub000/models"
)

// Common содержит поля, общие для обеих стратегий совместимости.
type Common struct {
	Platform    models.Platform
	Channel     string
	BundleID    models.BundleID
	MinBundleID models.BundleID
	// DeviceID может отсутствовать у старых клиентов.
	DeviceID *string
}

// Request - запрос клиента. Реализуется только AppVersionRequest и FingerprintRequest.
type Request interface {
	common() Common
	strategy() string
}

// AppVersionRequest - запрос по версии нативного приложения.
type AppVersionRequest struct {
	Common
	AppVersion string
}

// FingerprintRequest - запрос по отпечатку нативной сборки.
type FingerprintRequest struct {
	Common
	FingerprintHash string
}

func (r AppVersionRequest) common() Common  { return r.Common.normalized() }
func (r AppVersionRequest) strategy() string { return StrategyAppVersion }

func (r FingerprintRequest) common() Common  { return r.Common.normalized() }
func (r FingerprintRequest) strategy() string { return StrategyFingerprint }

// Названия стратегий, используются в логах и метриках.
const (
	StrategyAppVersion  = "appVersion"
	StrategyFingerprint = "fingerprint"
)

// Strategy возвращает название стратегии запроса.
func Strategy(req Request) string {
	return req.strategy()
}

// CommonOf возвращает общие поля запроса с подставленными значениями по умолчанию.
func CommonOf(req Request) Common {
	return req.common()
}

// NewAppVersionRequest проверяет поля и применяет значения по умолчанию.
func NewAppVersionRequest(c Common, appVersion string) (AppVersionRequest, error) {
	c, err := c.withDefaults()
	if err != nil {
		return AppVersionRequest{}, err
	}
	if appVersion == "" {
		return AppVersionRequest{}, ErrMissingAppVersion
	}
	return AppVersionRequest{Common: c, AppVersion: appVersion}, nil
}

// NewFingerprintRequest проверяет поля и применяет значения по умолчанию.
func NewFingerprintRequest(c Common, fingerprintHash string) (FingerprintRequest, error) {
	c, err := c.withDefaults()
	if err != nil {
		return FingerprintRequest{}, err
	}
	if fingerprintHash == "" {
		return FingerprintRequest{}, ErrMissingFingerprint
	}
	return FingerprintRequest{Common: c, FingerprintHash: fingerprintHash}, nil
}

// withDefaults проверяет платформу на границе построения запроса.
func (c Common) withDefaults() (Common, error) {
	if c.Platform == "" {
		return c, ErrMissingPlatform
	}
	if !c.Platform.Valid() {
		return c, ErrInvalidPlatform
	}
	return c.normalized(), nil
}

// normalized подставляет значения по умолчанию. Вызывается и при чтении полей
// запроса движком, поэтому запрос, собранный литералом, трактуется так же,
// как построенный конструктором: пустой bundleId означает "бандл не установлен".
func (c Common) normalized() Common {
	if c.Channel == "" {
		c.Channel = models.DefaultChannel
	}
	if c.BundleID == "" {
		c.BundleID = models.NilBundleID
	}
	if c.MinBundleID == "" {
		c.MinBundleID = models.NilBundleID
	}
	if c.DeviceID != nil && *c.DeviceID == "" {
		c.DeviceID = nil
	}
	return c
}

// Ошибки построения запроса. До движка такие запросы не доходят.
var (
	ErrMissingPlatform    = errors.New("не указана платформа")
	ErrInvalidPlatform    = errors.New("неизвестная платформа")
	ErrMissingAppVersion  = errors.New("не указана версия приложения")
	ErrMissingFingerprint = errors.New("не указан отпечаток сборки")
)
