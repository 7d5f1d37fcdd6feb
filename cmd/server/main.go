package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // Драйвер PostgreSQL
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gronxb/hot-updater-sub000/internal/handlers"
	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/internal/metrics"
	appmiddleware "github.com/gronxb/hot-updater-sub000/internal/middleware"
	"github.com/gronxb/hot-updater-sub000/internal/repository"
	"github.com/gronxb/hot-updater-sub000/internal/services"
	"github.com/gronxb/hot-updater-sub000/internal/storage"
)

// Таймауты обычных запросов. Загрузка архива продлевает сроки чтения и записи
// своего соединения в обработчике.
const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 30 * time.Second
	shutdownTimeout          = 15 * time.Second
	startupTimeout           = 30 * time.Second
)

// version задается при сборке: -ldflags "-X main.version=...".
var version = "dev"

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db            *sqlx.DB
	registry      *prometheus.Registry
	metrics       *metrics.Metrics
	verifier      appmiddleware.TokenVerifier
	authHandler   *handlers.AuthHandler
	updateHandler *handlers.UpdateHandler
	bundleHandler *handlers.BundleHandler
	eventHandler  *handlers.EventHandler
}

// close освобождает ресурсы зависимостей.
func (d *dependencies) close(log zerolog.Logger) {
	if d.db == nil {
		return
	}
	if err := d.db.Close(); err != nil {
		log.Error().Err(err).Msg("Ошибка закрытия соединения с БД")
	}
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		l := logger.Component("Server")
		l.Error().Err(err).Msg("Ошибка выполнения сервера")
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	// .env необязателен: переменные окружения процесса имеют приоритет.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ошибка чтения .env: %w", err)
	}

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.Component("Server")
	log.Info().Str("version", version).Msg("Запуск сервера обновлений...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer deps.close(log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(deps),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serve(server, cfg, log)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("ошибка остановки сервера: %w", shutdownErr)
		}
		return nil
	})

	if err = g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Сервер остановлен")
	return nil
}

// serve запускает HTTP или HTTPS сервер в зависимости от конфигурации.
func serve(server *http.Server, cfg *config, log zerolog.Logger) error {
	var err error
	if cfg.TLSEnabled() {
		log.Info().
			Str("port", cfg.Port).
			Str("cert", cfg.CertFile).
			Str("key", cfg.KeyFile).
			Msg("Запуск HTTPS-сервера")
		err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	} else {
		log.Warn().Str("port", cfg.Port).Msg("TLS не настроен, запуск HTTP-сервера")
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка запуска сервера: %w", err)
	}
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config) (*dependencies, error) {
	log := logger.Component("Server")
	deps := &dependencies{}

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	// 1. Подключение к БД и миграции
	db, err := repository.NewPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	deps.db = db
	if err = repository.Migrate(startCtx, db); err != nil {
		deps.close(log)
		return nil, fmt.Errorf("ошибка применения миграций: %w", err)
	}

	// 2. Объектное хранилище (необязательно)
	var files storage.FileStorage
	signers := map[string]storage.ObjectURLSigner{}
	if cfg.MinioEndpoint != "" {
		mc, minioErr := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioUser,
			SecretAccessKey: cfg.MinioPassword,
			UseSSL:          cfg.MinioUseSSL,
			BucketName:      cfg.MinioBucket,
			Region:          cfg.MinioRegion,
			PresignExpiry:   cfg.PresignExpiry,
		})
		if minioErr != nil {
			deps.close(log)
			return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", minioErr)
		}
		if minioErr = mc.EnsureBucket(startCtx); minioErr != nil {
			deps.close(log)
			return nil, fmt.Errorf("ошибка подготовки бакета: %w", minioErr)
		}
		files = mc
		signers["s3"] = mc
	} else {
		log.Warn().Msg("MinIO не настроен: поддерживаются только http(s) ссылки на архивы")
	}

	// 3. Метрики
	deps.registry = prometheus.NewRegistry()
	deps.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.metrics = metrics.New(deps.registry)

	// 4. Репозитории и сервисы
	bundleRepo := repository.NewPostgresBundleRepository(db)
	eventRepo := repository.NewPostgresDeviceEventRepository(db)

	authService, err := services.NewAuthService(services.AuthConfig{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       []byte(cfg.JWTSecret),
		TokenTTL:     cfg.TokenTTL,
	})
	if err != nil {
		deps.close(log)
		return nil, fmt.Errorf("ошибка инициализации сервиса аутентификации: %w", err)
	}
	updateService := services.NewUpdateService(bundleRepo, storage.NewSchemeResolver(signers), deps.metrics)
	bundleService := services.NewBundleService(bundleRepo, files)
	eventService := services.NewEventService(eventRepo)

	// 5. Обработчики
	deps.verifier = authService
	deps.authHandler = handlers.NewAuthHandler(authService)
	deps.updateHandler = handlers.NewUpdateHandler(updateService)
	deps.bundleHandler = handlers.NewBundleHandler(bundleService, eventService)
	deps.eventHandler = handlers.NewEventHandler(eventService)

	return deps, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmiddleware.RequestLogger(logger.Component("HTTP")))
	if deps.metrics != nil {
		r.Use(appmiddleware.Metrics(deps.metrics))
	}
	r.Use(chimw.Recoverer)

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})
	if deps.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", handlers.Version(version))

		// Публичные маршруты клиентского SDK
		r.Get("/app-version/{platform}/{appVersion}/{channel}/{minBundleId}/{bundleId}",
			deps.updateHandler.AppVersion)
		r.Get("/app-version/{platform}/{appVersion}/{channel}/{minBundleId}/{bundleId}/{deviceId}",
			deps.updateHandler.AppVersion)
		r.Get("/fingerprint/{platform}/{fingerprintHash}/{channel}/{minBundleId}/{bundleId}",
			deps.updateHandler.Fingerprint)
		r.Get("/fingerprint/{platform}/{fingerprintHash}/{channel}/{minBundleId}/{bundleId}/{deviceId}",
			deps.updateHandler.Fingerprint)
		r.Post("/track", deps.eventHandler.Track)
		r.Post("/login", deps.authHandler.Login)

		// Консоль администратора (требует аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Authenticator(deps.verifier))

			r.Route("/bundles", func(r chi.Router) {
				r.Get("/", deps.bundleHandler.List)
				r.Post("/", deps.bundleHandler.Create)
				r.Get("/channels", deps.bundleHandler.Channels)
				r.Get("/{bundleId}", deps.bundleHandler.Get)
				r.Patch("/{bundleId}", deps.bundleHandler.Update)
				r.Delete("/{bundleId}", deps.bundleHandler.Delete)
				r.Put("/{bundleId}/archive", deps.bundleHandler.UploadArchive)
				r.Get("/{bundleId}/rollout-stats", deps.bundleHandler.RolloutStats)
			})
		})
	})
	return r
}
