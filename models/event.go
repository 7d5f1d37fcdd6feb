package models

import (
	"encoding/json"
	"time"
)

// EventType - тип события жизненного цикла бандла на устройстве.
type EventType string

// События, которые присылает клиентский SDK.
const (
	// EventPromoted - бандл успешно запустился и закреплен.
	EventPromoted EventType = "PROMOTED"
	// EventRecovered - бандл упал при запуске, клиент откатился.
	EventRecovered EventType = "RECOVERED"
)

// DeviceEvent - событие с устройства.
type DeviceEvent struct {
	ID         string          `db:"id" json:"id,omitempty"`
	DeviceID   string          `db:"device_id" json:"deviceId" validate:"required"`
	BundleID   BundleID        `db:"bundle_id" json:"bundleId" validate:"required"`
	EventType  EventType       `db:"event_type" json:"eventType" validate:"required,oneof=PROMOTED RECOVERED"`
	Platform   Platform        `db:"platform" json:"platform" validate:"required,oneof=ios android"`
	AppVersion *string         `db:"app_version" json:"appVersion,omitempty"`
	Channel    string          `db:"channel" json:"channel" validate:"required"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt,omitempty"`
}

// RolloutStats - агрегированная статистика раскатки бандла.
type RolloutStats struct {
	BundleID       BundleID `json:"bundleId"`
	TotalDevices   int      `json:"totalDevices"`
	PromotedCount  int      `json:"promotedCount"`
	RecoveredCount int      `json:"recoveredCount"`
	SuccessRate    float64  `json:"successRate"`
}

// ComputeSuccessRate считает долю успешных запусков в процентах (0 при отсутствии событий).
func (s *RolloutStats) ComputeSuccessRate() {
	total := s.PromotedCount + s.RecoveredCount
	if total == 0 {
		s.SuccessRate = 0
		return
	}
	rate := float64(s.PromotedCount) / float64(total) * 100
	// Округляем до двух знаков, как в консоли.
	s.SuccessRate = float64(int(rate*100+0.5)) / 100
}
