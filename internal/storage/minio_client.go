package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/gronxb/hot-updater-sub000/internal/logger"
)

// DefaultPresignExpiry - время жизни ссылки на скачивание по умолчанию.
const DefaultPresignExpiry = time.Hour

// maxPresignExpiry - ограничение S3 на срок действия подписанной ссылки.
const maxPresignExpiry = 7 * 24 * time.Hour

// FileStorage определяет интерфейс для взаимодействия с объектным хранилищем.
type FileStorage interface {
	ObjectURLSigner
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	DeleteFile(ctx context.Context, bucket, objectKey string) error
	// Bucket возвращает бакет, в который загружаются архивы бандлов.
	Bucket() string
}

// MinioClient реализует FileStorage для MinIO и S3-совместимых хранилищ.
type MinioClient struct {
	client        *minio.Client
	bucketName    string
	region        string
	presignExpiry time.Duration
	log           zerolog.Logger
}

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string        // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string        // Логин
	SecretAccessKey string        // Пароль
	UseSSL          bool          // Использовать SSL (обычно false для локальной разработки)
	BucketName      string        // Имя бакета для архивов бандлов
	Region          string        // Регион; если задан, клиент не запрашивает location бакета
	PresignExpiry   time.Duration // Срок действия ссылок на скачивание
}

// NewMinioClient создает новый клиент MinIO. Сетевых запросов не выполняет.
func NewMinioClient(cfg MinioConfig) (*MinioClient, error) {
	log := logger.Component("Minio")
	log.Info().Str("endpoint", cfg.Endpoint).Msg("Инициализация клиента MinIO")

	expiry := cfg.PresignExpiry
	if expiry == 0 {
		expiry = DefaultPresignExpiry
	}
	if expiry < time.Second || expiry > maxPresignExpiry {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExpiry, expiry)
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	return &MinioClient{
		client:        minioClient,
		bucketName:    cfg.BucketName,
		region:        cfg.Region,
		presignExpiry: expiry,
		log:           log,
	}, nil
}

// EnsureBucket проверяет существование бакета и создает его при необходимости.
func (c *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucketName)
	if err != nil {
		return fmt.Errorf("ошибка проверки существования бакета '%s': %w", c.bucketName, err)
	}
	if exists {
		c.log.Info().Str("bucket", c.bucketName).Msg("Бакет уже существует")
		return nil
	}

	c.log.Info().Str("bucket", c.bucketName).Msg("Бакет не найден, попытка создания")
	if err = c.client.MakeBucket(ctx, c.bucketName, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return fmt.Errorf("ошибка создания бакета '%s': %w", c.bucketName, err)
	}
	c.log.Info().Str("bucket", c.bucketName).Msg("Бакет успешно создан")
	return nil
}

// Bucket возвращает бакет для архивов бандлов.
func (c *MinioClient) Bucket() string {
	return c.bucketName
}

// SignedURL возвращает временную ссылку на скачивание объекта.
func (c *MinioClient) SignedURL(ctx context.Context, bucket, objectKey string) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, bucket, objectKey, c.presignExpiry, url.Values{})
	if err != nil {
		c.log.Error().Err(err).Str("bucket", bucket).Str("key", objectKey).Msg("Ошибка подписи ссылки")
		return "", fmt.Errorf("ошибка подписи ссылки MinIO: %w", err)
	}
	return u.String(), nil
}

// UploadFile загружает архив в бакет клиента.
func (c *MinioClient) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	c.log.Debug().Str("bucket", c.bucketName).Str("key", objectKey).Msg("Загрузка файла")

	uploadInfo, err := c.client.PutObject(ctx, c.bucketName, objectKey, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		c.log.Error().Err(err).Str("key", objectKey).Msg("Ошибка загрузки файла")
		return fmt.Errorf("ошибка загрузки файла в MinIO: %w", err)
	}

	c.log.Info().Str("key", objectKey).
		Int64("size", uploadInfo.Size).
		Str("etag", uploadInfo.ETag).
		Msg("Файл успешно загружен")
	return nil
}

// DeleteFile удаляет объект. Отсутствие объекта ошибкой не считается.
func (c *MinioClient) DeleteFile(ctx context.Context, bucket, objectKey string) error {
	err := c.client.RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && minioErr.Code == "NoSuchKey" {
			return nil
		}
		c.log.Error().Err(err).Str("bucket", bucket).Str("key", objectKey).Msg("Ошибка удаления файла")
		return fmt.Errorf("ошибка удаления файла из MinIO: %w", err)
	}
	c.log.Info().Str("bucket", bucket).Str("key", objectKey).Msg("Файл удален")
	return nil
}

var _ FileStorage = (*MinioClient)(nil)

// Ошибки клиента хранилища.
var (
	ErrInvalidExpiry = errors.New("недопустимый срок действия ссылки")
)
