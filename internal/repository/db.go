package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL, импортируем для регистрации

	"github.com/gronxb/hot-updater-sub000/internal/logger"
	"github.com/gronxb/hot-updater-sub000/migrations"
)

const (
	maxOpenConns    = 25              // Максимальное количество открытых соединений
	maxIdleConns    = 25              // Максимальное количество простаивающих соединений
	connMaxLifetime = 5 * time.Minute // Максимальное время жизни соединения
	connMaxIdleTime = 5 * time.Minute // Максимальное время простоя соединения
)

// pgUniqueViolationCode - код ошибки PostgreSQL при нарушении уникальности.
const pgUniqueViolationCode = "23505"

// NewPostgresDB создает и возвращает новое подключение к PostgreSQL.
func NewPostgresDB(dsn string) (*sqlx.DB, error) {
	log := logger.Component("DB")
	log.Info().Msg("Подключение к PostgreSQL...")

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	log.Info().Msg("Подключение к PostgreSQL успешно установлено")
	return db, nil
}

// Migrate применяет встроенные миграции, которых еще нет в schema_migrations.
// Каждая миграция выполняется в отдельной транзакции.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	log := logger.Component("DB")

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`); err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	ms, err := migrations.Up()
	if err != nil {
		return fmt.Errorf("ошибка чтения миграций: %w", err)
	}

	for _, m := range ms {
		var applied bool
		err = db.GetContext(ctx, &applied,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, m.Name)
		if err != nil {
			return fmt.Errorf("ошибка проверки миграции %s: %w", m.Name, err)
		}
		if applied {
			continue
		}
		if err = applyMigration(ctx, db, m); err != nil {
			return err
		}
		log.Info().Str("migration", m.Name).Msg("Миграция применена")
	}
	return nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, m migrations.Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции миграции %s: %w", m.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("ошибка применения миграции %s: %w", m.Name, err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
		return fmt.Errorf("ошибка записи миграции %s: %w", m.Name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации миграции %s: %w", m.Name, err)
	}
	return nil
}
