package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/models"
)

// idOrder сравнивает идентификаторы побайтово, как BundleID.Compare, независимо от collation базы.
const idOrder = `id COLLATE "C"`

const bundleColumns = `id, platform, channel, enabled, should_force_update, target_app_version,` +
	` fingerprint_hash, rollout_percentage, target_device_ids, storage_uri, file_hash,` +
	` signature, message, git_commit_hash, created_at`

// CandidateQuery - условия выборки кандидатов для движка.
// Если задан FingerprintHash, используется стратегия отпечатка,
// иначе выборка ограничивается списком TargetAppVersions.
type CandidateQuery struct {
	Platform          models.Platform
	Channel           string
	MinBundleID       models.BundleID
	TargetAppVersions []string
	FingerprintHash   *string
}

// BundleRepository определяет методы для работы с каталогом бандлов.
type BundleRepository interface {
	FindCandidates(ctx context.Context, q CandidateQuery) ([]models.Bundle, error)
	TargetAppVersions(ctx context.Context, platform models.Platform, minBundleID models.BundleID) ([]string, error)
	GetByID(ctx context.Context, id models.BundleID) (*models.Bundle, error)
	List(ctx context.Context, filter models.BundleFilter, limit, offset int) ([]models.Bundle, int, error)
	// CreateMany сохраняет все бандлы в одной транзакции: либо все, либо ни одного.
	CreateMany(ctx context.Context, bundles []models.Bundle) error
	Update(ctx context.Context, id models.BundleID, patch models.BundlePatch) (*models.Bundle, error)
	SetStorage(ctx context.Context, id models.BundleID, storageURI, fileHash string) error
	Delete(ctx context.Context, id models.BundleID) error
	Channels(ctx context.Context) ([]string, error)
}

// postgresBundleRepository реализует BundleRepository для PostgreSQL.
type postgresBundleRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewPostgresBundleRepository создает новый экземпляр репозитория бандлов.
func NewPostgresBundleRepository(db *sqlx.DB) BundleRepository {
	return &postgresBundleRepository{db: db, log: logger.Component("BundleRepo")}
}

// FindCandidates выбирает включенные бандлы платформы и канала не ниже minBundleId.
// Совместимость проверяется движком повторно, здесь фильтр только сужает выборку.
func (r *postgresBundleRepository) FindCandidates(ctx context.Context, q CandidateQuery) ([]models.Bundle, error) {
	base := `SELECT ` + bundleColumns + ` FROM bundles` +
		` WHERE enabled = TRUE AND platform = $1 AND channel = $2 AND ` + idOrder + ` >= $3`

	var (
		query string
		arg   any
	)
	switch {
	case q.FingerprintHash != nil:
		query = base + ` AND fingerprint_hash = $4`
		arg = *q.FingerprintHash
	case len(q.TargetAppVersions) == 0:
		return []models.Bundle{}, nil
	default:
		query = base + ` AND target_app_version = ANY($4)`
		arg = pq.Array(q.TargetAppVersions)
	}

	bundles := make([]models.Bundle, 0)
	err := r.db.SelectContext(ctx, &bundles, query, q.Platform, q.Channel, q.MinBundleID, arg)
	if err != nil {
		r.log.Error().Err(err).
			Str("platform", string(q.Platform)).
			Str("channel", q.Channel).
			Msg("Ошибка выборки кандидатов")
		return nil, fmt.Errorf("ошибка выполнения запроса кандидатов: %w", err)
	}

	r.log.Debug().Int("count", len(bundles)).
		Str("platform", string(q.Platform)).
		Str("channel", q.Channel).
		Msg("Получены кандидаты")
	return bundles, nil
}

// TargetAppVersions возвращает различные выражения target_app_version платформы.
func (r *postgresBundleRepository) TargetAppVersions(
	ctx context.Context,
	platform models.Platform,
	minBundleID models.BundleID,
) ([]string, error) {
	query := `SELECT DISTINCT target_app_version FROM bundles` +
		` WHERE platform = $1 AND ` + idOrder + ` >= $2 AND target_app_version IS NOT NULL`

	versions := make([]string, 0)
	if err := r.db.SelectContext(ctx, &versions, query, platform, minBundleID); err != nil {
		r.log.Error().Err(err).Str("platform", string(platform)).Msg("Ошибка получения версий приложения")
		return nil, fmt.Errorf("ошибка выполнения запроса версий приложения: %w", err)
	}
	return versions, nil
}

// GetByID находит бандл по идентификатору.
func (r *postgresBundleRepository) GetByID(ctx context.Context, id models.BundleID) (*models.Bundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM bundles WHERE id = $1`

	var b models.Bundle
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBundleNotFound
		}
		r.log.Error().Err(err).Str("bundle_id", id.String()).Msg("Ошибка поиска бандла")
		return nil, fmt.Errorf("ошибка выполнения запроса на получение бандла: %w", err)
	}
	return &b, nil
}

// List возвращает страницу бандлов (сначала новые) и общее количество по фильтру.
func (r *postgresBundleRepository) List(
	ctx context.Context,
	filter models.BundleFilter,
	limit, offset int,
) ([]models.Bundle, int, error) {
	where := ` WHERE ($1 = '' OR channel = $1) AND ($2 = '' OR platform = $2)`

	var total int
	countQuery := `SELECT COUNT(*) FROM bundles` + where
	if err := r.db.GetContext(ctx, &total, countQuery, filter.Channel, filter.Platform); err != nil {
		r.log.Error().Err(err).Msg("Ошибка подсчета бандлов")
		return nil, 0, fmt.Errorf("ошибка выполнения запроса количества бандлов: %w", err)
	}

	query := `SELECT ` + bundleColumns + ` FROM bundles` + where + ` ORDER BY ` + idOrder + ` DESC LIMIT $3 OFFSET $4`
	bundles := make([]models.Bundle, 0, limit)
	if err := r.db.SelectContext(ctx, &bundles, query, filter.Channel, filter.Platform, limit, offset); err != nil {
		r.log.Error().Err(err).Msg("Ошибка получения списка бандлов")
		return nil, 0, fmt.Errorf("ошибка выполнения запроса списка бандлов: %w", err)
	}

	r.log.Debug().Int("count", len(bundles)).Int("total", total).
		Int("limit", limit).Int("offset", offset).
		Msg("Получен список бандлов")
	return bundles, total, nil
}

const insertBundleQuery = `INSERT INTO bundles (id, platform, channel, enabled, should_force_update,` +
	` target_app_version, fingerprint_hash, rollout_percentage, target_device_ids, storage_uri, file_hash,` +
	` signature, message, git_commit_hash)` +
	` VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING created_at`

// CreateMany сохраняет пачку бандлов атомарно. При ошибке транзакция откатывается.
// created_at заполняется базой.
func (r *postgresBundleRepository) CreateMany(ctx context.Context, bundles []models.Bundle) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range bundles {
		if err = r.insert(ctx, tx, &bundles[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	for i := range bundles {
		r.log.Info().Str("bundle_id", bundles[i].ID.String()).
			Str("platform", string(bundles[i].Platform)).
			Str("channel", bundles[i].Channel).
			Msg("Бандл создан")
	}
	return nil
}

func (r *postgresBundleRepository) insert(ctx context.Context, tx *sqlx.Tx, b *models.Bundle) error {
	err := tx.QueryRowxContext(ctx, insertBundleQuery,
		b.ID, b.Platform, b.Channel, b.Enabled, b.ShouldForceUpdate, b.TargetAppVersion,
		b.FingerprintHash, b.RolloutPercentage, b.TargetDeviceIDs, b.StorageURI, b.FileHash,
		b.Signature, b.Message, b.GitCommitHash,
	).Scan(&b.CreatedAt)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			r.log.Warn().Str("bundle_id", b.ID.String()).Msg("Бандл с таким id уже существует")
			return ErrBundleExists
		}
		r.log.Error().Err(err).Str("bundle_id", b.ID.String()).Msg("Ошибка создания бандла")
		return fmt.Errorf("ошибка выполнения запроса на создание бандла: %w", err)
	}
	return nil
}

// Update применяет частичное изменение в транзакции и возвращает итоговый бандл.
func (r *postgresBundleRepository) Update(
	ctx context.Context,
	id models.BundleID,
	patch models.BundlePatch,
) (*models.Bundle, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current models.Bundle
	selectQuery := `SELECT ` + bundleColumns + ` FROM bundles WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &current, selectQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBundleNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на получение бандла: %w", err)
	}

	updated := patch.Apply(current)
	updateQuery := `UPDATE bundles SET channel = $1, enabled = $2, should_force_update = $3,` +
		` target_app_version = $4, rollout_percentage = $5, target_device_ids = $6, message = $7` +
		` WHERE id = $8`
	_, err = tx.ExecContext(ctx, updateQuery,
		updated.Channel, updated.Enabled, updated.ShouldForceUpdate, updated.TargetAppVersion,
		updated.RolloutPercentage, updated.TargetDeviceIDs, updated.Message, id,
	)
	if err != nil {
		r.log.Error().Err(err).Str("bundle_id", id.String()).Msg("Ошибка обновления бандла")
		return nil, fmt.Errorf("ошибка выполнения запроса на обновление бандла: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	r.log.Info().Str("bundle_id", id.String()).Msg("Бандл обновлен")
	return &updated, nil
}

// SetStorage обновляет ссылку на архив и его хэш после загрузки.
func (r *postgresBundleRepository) SetStorage(
	ctx context.Context,
	id models.BundleID,
	storageURI, fileHash string,
) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bundles SET storage_uri = $1, file_hash = $2 WHERE id = $3`, storageURI, fileHash, id)
	if err != nil {
		r.log.Error().Err(err).Str("bundle_id", id.String()).Msg("Ошибка обновления ссылки на архив")
		return fmt.Errorf("ошибка выполнения запроса на обновление ссылки на архив: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения числа обновленных строк: %w", err)
	}
	if n == 0 {
		return ErrBundleNotFound
	}
	return nil
}

// Delete удаляет бандл по идентификатору.
func (r *postgresBundleRepository) Delete(ctx context.Context, id models.BundleID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bundles WHERE id = $1`, id)
	if err != nil {
		r.log.Error().Err(err).Str("bundle_id", id.String()).Msg("Ошибка удаления бандла")
		return fmt.Errorf("ошибка выполнения запроса на удаление бандла: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения числа удаленных строк: %w", err)
	}
	if n == 0 {
		return ErrBundleNotFound
	}

	r.log.Info().Str("bundle_id", id.String()).Msg("Бандл удален")
	return nil
}

// Channels возвращает все каналы, в которых есть бандлы.
func (r *postgresBundleRepository) Channels(ctx context.Context) ([]string, error) {
	channels := make([]string, 0)
	if err := r.db.SelectContext(ctx, &channels, `SELECT DISTINCT channel FROM bundles ORDER BY channel`); err != nil {
		r.log.Error().Err(err).Msg("Ошибка получения каналов")
		return nil, fmt.Errorf("ошибка выполнения запроса каналов: %w", err)
	}
	return channels, nil
}

var _ BundleRepository = (*postgresBundleRepository)(nil)

// Кастомные ошибки репозитория бандлов.
var (
	ErrBundleNotFound = errors.New("бандл не найден")
	ErrBundleExists   = errors.New("бандл с таким идентификатором уже существует")
)
