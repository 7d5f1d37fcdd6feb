package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/internal/repository"
	"github.com/gronxb/hot-updater-sub000/models"
)

// EventService принимает события устройств и считает статистику раскатки.
type EventService interface {
	Track(ctx context.Context, event *models.DeviceEvent) error
	RolloutStats(ctx context.Context, bundleID models.BundleID) (*models.RolloutStats, error)
}

var _ EventService = (*eventService)(nil)

type eventService struct {
	repo repository.DeviceEventRepository
	log  zerolog.Logger
}

// NewEventService создает сервис событий.
func NewEventService(repo repository.DeviceEventRepository) EventService {
	return &eventService{repo: repo, log: logger.Component("EventService")}
}

// Track проверяет событие, присваивает ему id и сохраняет.
func (s *eventService) Track(ctx context.Context, event *models.DeviceEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	event.ID = uuid.NewString()

	if err := s.repo.Insert(ctx, event); err != nil {
		return fmt.Errorf("ошибка сохранения события: %w", err)
	}
	s.log.Info().
		Str("bundle_id", event.BundleID.String()).
		Str("event_type", string(event.EventType)).
		Str("platform", string(event.Platform)).
		Str("channel", event.Channel).
		Msg("Событие устройства принято")
	return nil
}

func (s *eventService) RolloutStats(ctx context.Context, bundleID models.BundleID) (*models.RolloutStats, error) {
	if bundleID == "" {
		return nil, fmt.Errorf("%w: не указан id бандла", ErrInvalidEvent)
	}
	stats, err := s.repo.RolloutStats(ctx, bundleID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики раскатки: %w", err)
	}
	return stats, nil
}

// ErrInvalidEvent - событие не прошло проверку.
var ErrInvalidEvent = errors.New("некорректное событие")
