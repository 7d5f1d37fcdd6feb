package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/internal/repository"
	"github.com/gronxb/hot-updater-sub000/internal/storage"
	"github.com/gronxb/hot-updater-sub000/models"
)

// Ограничения размера страницы списка бандлов.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// archiveScheme - схема ссылок на архивы, загруженные через сервер.
const archiveScheme = "s3"

// BundleService определяет операции администратора над каталогом.
type BundleService interface {
	List(ctx context.Context, filter models.BundleFilter, limit, offset int) (*models.BundleList, error)
	Get(ctx context.Context, id models.BundleID) (*models.Bundle, error)
	Create(ctx context.Context, bundles []models.Bundle) ([]models.Bundle, error)
	Update(ctx context.Context, id models.BundleID, patch models.BundlePatch) (*models.Bundle, error)
	Delete(ctx context.Context, id models.BundleID) error
	Channels(ctx context.Context) ([]string, error)
	UploadArchive(ctx context.Context, id models.BundleID, r io.Reader, size int64, contentType string) (*models.Bundle, error)
}

var _ BundleService = (*bundleService)(nil)

type bundleService struct {
	repo  repository.BundleRepository
	files storage.FileStorage
	log   zerolog.Logger
}

// NewBundleService создает сервис каталога. files может быть nil,
// тогда загрузка архивов недоступна, а удаление не трогает хранилище.
func NewBundleService(repo repository.BundleRepository, files storage.FileStorage) BundleService {
	return &bundleService{repo: repo, files: files, log: logger.Component("BundleService")}
}

// List возвращает страницу каталога. Некорректные limit и offset нормализуются.
func (s *bundleService) List(
	ctx context.Context,
	filter models.BundleFilter,
	limit, offset int,
) (*models.BundleList, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	offset = max(offset, 0)

	bundles, total, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка бандлов: %w", err)
	}
	return &models.BundleList{Data: bundles, Pagination: models.NewPagination(total, limit, offset)}, nil
}

func (s *bundleService) Get(ctx context.Context, id models.BundleID) (*models.Bundle, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return b, nil
}

// Create проверяет все бандлы и только затем сохраняет их по одному.
// Пустой id заменяется новым UUIDv7, пустой канал - каналом по умолчанию.
func (s *bundleService) Create(ctx context.Context, bundles []models.Bundle) ([]models.Bundle, error) {
	if len(bundles) == 0 {
		return nil, fmt.Errorf("%w: пустой список", ErrInvalidBundle)
	}

	prepared := make([]models.Bundle, len(bundles))
	for i, b := range bundles {
		if b.ID == "" {
			id, err := models.NewBundleID()
			if err != nil {
				return nil, fmt.Errorf("ошибка генерации id бандла: %w", err)
			}
			b.ID = id
		}
		if b.Channel == "" {
			b.Channel = models.DefaultChannel
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidBundle, err)
		}
		prepared[i] = b
	}

	// Пачка публикуется атомарно: при дубликате ни один бандл не становится видимым клиентам.
	if err := s.repo.CreateMany(ctx, prepared); err != nil {
		return nil, mapRepoError(err)
	}
	for i := range prepared {
		s.log.Info().
			Str("bundle_id", prepared[i].ID.String()).
			Str("platform", string(prepared[i].Platform)).
			Str("channel", prepared[i].Channel).
			Msg("Бандл опубликован")
	}
	return prepared, nil
}

func (s *bundleService) Update(
	ctx context.Context,
	id models.BundleID,
	patch models.BundlePatch,
) (*models.Bundle, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}
	if patch.Channel != nil && *patch.Channel == "" {
		return nil, fmt.Errorf("%w: пустой канал", ErrInvalidBundle)
	}
	b, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.log.Info().Str("bundle_id", id.String()).Bool("enabled", b.Enabled).Msg("Бандл обновлен")
	return b, nil
}

// Delete удаляет бандл и, если архив лежит в нашем хранилище, сам архив.
// Ошибка удаления архива только логируется: запись в каталоге уже удалена.
func (s *bundleService) Delete(ctx context.Context, id models.BundleID) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	s.log.Info().Str("bundle_id", id.String()).Msg("Бандл удален")

	if s.files == nil {
		return nil
	}
	obj, err := storage.ParseObjectURI(b.StorageURI)
	if err != nil || obj.Scheme != archiveScheme {
		return nil
	}
	if err = s.files.DeleteFile(ctx, obj.Bucket, obj.Key); err != nil {
		s.log.Warn().Err(err).Str("bundle_id", id.String()).Str("key", obj.Key).Msg("Не удалось удалить архив бандла")
	}
	return nil
}

func (s *bundleService) Channels(ctx context.Context) ([]string, error) {
	channels, err := s.repo.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка каналов: %w", err)
	}
	return channels, nil
}

// UploadArchive загружает архив бандла в хранилище, считает его SHA-256
// и записывает в каталог ссылку s3://<bucket>/<platform>/<id>/bundle.zip.
func (s *bundleService) UploadArchive(
	ctx context.Context,
	id models.BundleID,
	r io.Reader,
	size int64,
	contentType string,
) (*models.Bundle, error) {
	if s.files == nil {
		return nil, ErrStorageDisabled
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	key := fmt.Sprintf("%s/%s/bundle.zip", b.Platform, b.ID)
	hasher := sha256.New()
	if err = s.files.UploadFile(ctx, key, io.TeeReader(r, hasher), size, contentType); err != nil {
		return nil, fmt.Errorf("ошибка загрузки архива: %w", err)
	}

	uri := storage.ObjectURI{Scheme: archiveScheme, Bucket: s.files.Bucket(), Key: key}.String()
	fileHash := hex.EncodeToString(hasher.Sum(nil))
	if err = s.repo.SetStorage(ctx, id, uri, fileHash); err != nil {
		return nil, mapRepoError(err)
	}

	b.StorageURI = uri
	b.FileHash = fileHash
	s.log.Info().Str("bundle_id", id.String()).Str("storage_uri", uri).Msg("Архив бандла загружен")
	return b, nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrBundleNotFound):
		return ErrBundleNotFound
	case errors.Is(err, repository.ErrBundleExists):
		return ErrBundleExists
	default:
		return fmt.Errorf("ошибка каталога бандлов: %w", err)
	}
}

// Ошибки сервиса каталога.
var (
	ErrBundleNotFound  = errors.New("бандл не найден")
	ErrBundleExists    = errors.New("бандл с таким id уже существует")
	ErrInvalidBundle   = errors.New("некорректный бандл")
	ErrStorageDisabled = errors.New("хранилище архивов не настроено")
)
