package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/models"
)

// DeviceEventRepository определяет методы для работы с событиями устройств.
type DeviceEventRepository interface {
	Insert(ctx context.Context, event *models.DeviceEvent) error
	RolloutStats(ctx context.Context, bundleID models.BundleID) (*models.RolloutStats, error)
}

// postgresDeviceEventRepository реализует DeviceEventRepository для PostgreSQL.
type postgresDeviceEventRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewPostgresDeviceEventRepository создает новый экземпляр репозитория событий.
func NewPostgresDeviceEventRepository(db *sqlx.DB) DeviceEventRepository {
	return &postgresDeviceEventRepository{db: db, log: logger.Component("EventRepo")}
}

// Insert сохраняет событие. Пустые metadata сохраняются как пустой объект.
func (r *postgresDeviceEventRepository) Insert(ctx context.Context, e *models.DeviceEvent) error {
	query := `INSERT INTO device_events (id, device_id, bundle_id, event_type, platform, app_version, channel, metadata)` +
		` VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	metadata := []byte(e.Metadata)
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	err := r.db.QueryRowxContext(ctx, query,
		e.ID, e.DeviceID, e.BundleID, e.EventType, e.Platform, e.AppVersion, e.Channel, metadata,
	).Scan(&e.CreatedAt)
	if err != nil {
		r.log.Error().Err(err).
			Str("bundle_id", e.BundleID.String()).
			Str("event_type", string(e.EventType)).
			Msg("Ошибка сохранения события")
		return fmt.Errorf("ошибка выполнения запроса на сохранение события: %w", err)
	}

	r.log.Debug().Str("bundle_id", e.BundleID.String()).
		Str("event_type", string(e.EventType)).
		Msg("Событие сохранено")
	return nil
}

// RolloutStats агрегирует события бандла.
func (r *postgresDeviceEventRepository) RolloutStats(
	ctx context.Context,
	bundleID models.BundleID,
) (*models.RolloutStats, error) {
	query := `SELECT COUNT(DISTINCT device_id) AS total_devices,` +
		` COUNT(*) FILTER (WHERE event_type = 'PROMOTED') AS promoted_count,` +
		` COUNT(*) FILTER (WHERE event_type = 'RECOVERED') AS recovered_count` +
		` FROM device_events WHERE bundle_id = $1`

	var row struct {
		TotalDevices   int `db:"total_devices"`
		PromotedCount  int `db:"promoted_count"`
		RecoveredCount int `db:"recovered_count"`
	}
	if err := r.db.GetContext(ctx, &row, query, bundleID); err != nil {
		r.log.Error().Err(err).Str("bundle_id", bundleID.String()).Msg("Ошибка получения статистики")
		return nil, fmt.Errorf("ошибка выполнения запроса статистики: %w", err)
	}

	stats := &models.RolloutStats{
		BundleID:       bundleID,
		TotalDevices:   row.TotalDevices,
		PromotedCount:  row.PromotedCount,
		RecoveredCount: row.RecoveredCount,
	}
	stats.ComputeSuccessRate()
	return stats, nil
}

var _ DeviceEventRepository = (*postgresDeviceEventRepository)(nil)
