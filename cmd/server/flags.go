package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// Порт по умолчанию (непривилегированный).
	defaultServerPort  = "8080"
	defaultMinioBucket = "hot-updater-bundles"
	defaultLogLevel    = "info"

	// Переменные окружения.
	envServerPort        = "SERVER_PORT"
	envTLSCertFile       = "TLS_CERT_FILE"
	envTLSKeyFile        = "TLS_KEY_FILE"
	envDatabaseDSN       = "DATABASE_DSN"
	envMinioEndpoint     = "MINIO_ENDPOINT"
	envMinioUser         = "MINIO_USER"
	envMinioPassword     = "MINIO_PASSWORD" //nolint:gosec // имя переменной окружения
	envMinioBucket       = "MINIO_BUCKET"
	envMinioUseSSL       = "MINIO_USE_SSL"
	envMinioRegion       = "MINIO_REGION"
	envPresignExpiry     = "PRESIGN_EXPIRY"
	envJWTSecret         = "JWT_SECRET" //nolint:gosec // имя переменной окружения
	envTokenTTL          = "TOKEN_TTL"
	envAdminUsername     = "ADMIN_USERNAME"
	envAdminPasswordHash = "ADMIN_PASSWORD_HASH" //nolint:gosec // имя переменной окружения
	envLogLevel          = "LOG_LEVEL"
	envLogPretty         = "LOG_PRETTY"
)

// config хранит конфигурацию сервера.
type config struct {
	Port        string
	CertFile    string
	KeyFile     string
	DatabaseDSN string

	// Пустой MinioEndpoint отключает объектное хранилище: остаются только http(s) ссылки.
	MinioEndpoint string
	MinioUser     string
	MinioPassword string
	MinioBucket   string
	MinioUseSSL   bool
	MinioRegion   string
	PresignExpiry time.Duration

	JWTSecret         string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPasswordHash string

	LogLevel  string
	LogPretty bool
}

// TLSEnabled сообщает, заданы ли сертификат и ключ.
func (c *config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags разбирает флаги и переменные окружения, возвращает config или ошибку.
// Флаг имеет приоритет над переменной окружения, переменная - над значением по умолчанию.
func parseFlags(args []string) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	var useSSL, presignExpiry, tokenTTL, logPretty string

	// Определяем флаги
	fs.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("Порт сервера (env: %s, default: %s)", envServerPort, defaultServerPort))
	fs.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("Путь к файлу TLS-сертификата (env: %s)", envTLSCertFile))
	fs.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))
	fs.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("Строка подключения к базе данных (env: %s)", envDatabaseDSN))
	fs.StringVar(&cfg.MinioEndpoint, "minio-endpoint", "",
		fmt.Sprintf("Адрес MinIO, пусто - без хранилища (env: %s)", envMinioEndpoint))
	fs.StringVar(&cfg.MinioBucket, "minio-bucket", "",
		fmt.Sprintf("Бакет для архивов бандлов (env: %s, default: %s)", envMinioBucket, defaultMinioBucket))
	fs.StringVar(&useSSL, "minio-use-ssl", "",
		fmt.Sprintf("Использовать SSL для MinIO (env: %s)", envMinioUseSSL))
	fs.StringVar(&presignExpiry, "presign-expiry", "",
		fmt.Sprintf("Срок действия ссылок на скачивание (env: %s, default: 1h)", envPresignExpiry))
	fs.StringVar(&tokenTTL, "token-ttl", "",
		fmt.Sprintf("Время жизни JWT (env: %s, default: 24h)", envTokenTTL))
	fs.StringVar(&cfg.AdminUsername, "admin-username", "",
		fmt.Sprintf("Имя администратора (env: %s)", envAdminUsername))
	fs.StringVar(&cfg.LogLevel, "log-level", "",
		fmt.Sprintf("Уровень логирования (env: %s, default: %s)", envLogLevel, defaultLogLevel))
	fs.StringVar(&logPretty, "log-pretty", "",
		fmt.Sprintf("Человекочитаемые логи (env: %s)", envLogPretty))

	// Парсим флаги
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("ошибка разбора флагов: %w", err)
	}

	// Применяем переменные окружения, если флаги не заданы.
	// Секреты читаются только из окружения, чтобы не попадать в список процессов.
	fromEnv(&cfg.Port, envServerPort, defaultServerPort)
	fromEnv(&cfg.CertFile, envTLSCertFile, "")
	fromEnv(&cfg.KeyFile, envTLSKeyFile, "")
	fromEnv(&cfg.DatabaseDSN, envDatabaseDSN, "")
	fromEnv(&cfg.MinioEndpoint, envMinioEndpoint, "")
	fromEnv(&cfg.MinioUser, envMinioUser, "")
	fromEnv(&cfg.MinioPassword, envMinioPassword, "")
	fromEnv(&cfg.MinioBucket, envMinioBucket, defaultMinioBucket)
	fromEnv(&useSSL, envMinioUseSSL, "false")
	fromEnv(&cfg.MinioRegion, envMinioRegion, "")
	fromEnv(&presignExpiry, envPresignExpiry, "")
	fromEnv(&cfg.JWTSecret, envJWTSecret, "")
	fromEnv(&tokenTTL, envTokenTTL, "")
	fromEnv(&cfg.AdminUsername, envAdminUsername, "")
	fromEnv(&cfg.AdminPasswordHash, envAdminPasswordHash, "")
	fromEnv(&cfg.LogLevel, envLogLevel, defaultLogLevel)
	fromEnv(&logPretty, envLogPretty, "false")

	var err error
	if cfg.MinioUseSSL, err = strconv.ParseBool(useSSL); err != nil {
		return nil, fmt.Errorf("некорректное значение %s: %w", envMinioUseSSL, err)
	}
	if cfg.LogPretty, err = strconv.ParseBool(logPretty); err != nil {
		return nil, fmt.Errorf("некорректное значение %s: %w", envLogPretty, err)
	}
	if cfg.PresignExpiry, err = parseDuration(presignExpiry); err != nil {
		return nil, fmt.Errorf("некорректное значение %s: %w", envPresignExpiry, err)
	}
	if cfg.TokenTTL, err = parseDuration(tokenTTL); err != nil {
		return nil, fmt.Errorf("некорректное значение %s: %w", envTokenTTL, err)
	}

	if err = cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate проверяет обязательные параметры.
func (c *config) validate() error {
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("сертификат и ключ TLS задаются только вместе (" +
			envTLSCertFile + ", " + envTLSKeyFile + ")")
	}
	if c.DatabaseDSN == "" {
		return errors.New("не указана строка подключения к БД (--database-dsn или " + envDatabaseDSN + ")")
	}
	if c.JWTSecret == "" {
		return errors.New("не указан секрет подписи JWT (" + envJWTSecret + ")")
	}
	if c.AdminUsername == "" {
		return errors.New("не указано имя администратора (--admin-username или " + envAdminUsername + ")")
	}
	if c.AdminPasswordHash == "" {
		return errors.New("не указан bcrypt-хэш пароля администратора (" + envAdminPasswordHash + ")")
	}
	if c.MinioEndpoint != "" && c.MinioBucket == "" {
		return errors.New("не указан бакет MinIO (--minio-bucket или " + envMinioBucket + ")")
	}
	return nil
}

// fromEnv подставляет значение переменной окружения или значение по умолчанию в пустое поле.
// Пустая переменная окружения считается незаданной.
func fromEnv(dst *string, key, fallback string) {
	if *dst != "" {
		return
	}
	if value := os.Getenv(key); value != "" {
		*dst = value
		return
	}
	*dst = fallback
}

// parseDuration разбирает длительность; пустая строка означает значение по умолчанию.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
