// Package logger настраивает структурированное логирование сервера на zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const serviceName = "hot-updater-server"

// Config - параметры логирования.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // человекочитаемый вывод для разработки
	Output io.Writer
}

// New создает логгер по конфигурации, не трогая глобальное состояние.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Init задает глобальный логгер zerolog/log, которым пользуются остальные пакеты.
func Init(cfg Config) {
	l := New(cfg)
	zerolog.SetGlobalLevel(l.GetLevel())
	log.Logger = l
}

// Component возвращает дочерний логгер с полем component.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// ParseLevel разбирает уровень логирования; неизвестные значения дают info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
