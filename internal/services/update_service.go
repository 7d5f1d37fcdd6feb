package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/internal/metrics"
	"github.com/gronxb/hot-updater-sub000/internal/repository"
	"github.com/gronxb/hot-updater-sub000/internal/resolver"
	"github.com/gronxb/hot-updater-sub000/internal/storage"
	"github.com/gronxb/hot-updater-sub000/models"
)

// UpdateService отвечает на запросы клиентов о доступных обновлениях.
type UpdateService interface {
	// GetAppUpdateInfo возвращает nil, если обновлять нечего.
	GetAppUpdateInfo(ctx context.Context, req resolver.Request) (*models.AppUpdateInfo, error)
}

var _ UpdateService = (*updateService)(nil)

type updateService struct {
	bundles repository.BundleRepository
	urls    storage.URIResolver
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewUpdateService создает сервис обновлений. m может быть nil.
func NewUpdateService(
	bundles repository.BundleRepository,
	urls storage.URIResolver,
	m *metrics.Metrics,
) UpdateService {
	return &updateService{
		bundles: bundles,
		urls:    urls,
		metrics: m,
		log:     logger.Component("UpdateService"),
	}
}

func (s *updateService) GetAppUpdateInfo(
	ctx context.Context,
	req resolver.Request,
) (*models.AppUpdateInfo, error) {
	c := resolver.CommonOf(req)
	strategy := resolver.Strategy(req)

	q := repository.CandidateQuery{
		Platform:    c.Platform,
		Channel:     c.Channel,
		MinBundleID: c.MinBundleID,
	}
	switch r := req.(type) {
	case resolver.AppVersionRequest:
		versions, err := s.bundles.TargetAppVersions(ctx, c.Platform, c.MinBundleID)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения версий каталога: %w", err)
		}
		q.TargetAppVersions = resolver.FilterCompatibleAppVersions(versions, r.AppVersion)
	case resolver.FingerprintRequest:
		hash := r.FingerprintHash
		q.FingerprintHash = &hash
	}

	candidates, err := s.bundles.FindCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения кандидатов: %w", err)
	}

	decision := resolver.Resolve(candidates, req)
	if s.metrics != nil {
		s.metrics.RecordResolution(strategy, decision.Status.String(), len(candidates))
	}

	event := s.log.Debug().
		Str("strategy", strategy).
		Str("platform", string(c.Platform)).
		Str("channel", c.Channel).
		Str("bundle_id", c.BundleID.String()).
		Int("candidates", len(candidates)).
		Str("status", decision.Status.String())
	if decision.Bundle != nil {
		event = event.Str("target_id", decision.Bundle.ID.String())
	}
	event.Msg("Решение об обновлении")

	info := decision.UpdateInfo()
	if info == nil {
		return nil, nil //nolint:nilnil // отсутствие обновления не является ошибкой
	}
	if decision.IsInitialRollback() {
		return info.WithFileURL(nil), nil
	}

	fileURL, err := s.urls.Resolve(ctx, decision.Bundle.StorageURI)
	if err != nil {
		s.log.Error().Err(err).Str("bundle_id", decision.Bundle.ID.String()).Msg("Ошибка разрешения ссылки на архив")
		return nil, fmt.Errorf("ошибка разрешения ссылки на архив: %w", err)
	}
	if fileURL == "" {
		return info.WithFileURL(nil), nil
	}
	return info.WithFileURL(&fileURL), nil
}
