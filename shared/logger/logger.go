package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config содержит настройки логгера. Теги читаются cleanenv вместе с остальной конфигурацией.
type Config struct {
	Level      string `env:"LOG_LEVEL" env-default:"info"`       // debug, info, warn, error
	Encoding   string `env:"LOG_ENCODING" env-default:"json"`    // json или console
	OutputPath string `env:"LOG_OUTPUT_PATH" env-default:""`     // пусто = stdout
	Service    string `env:"LOG_SERVICE" env-default:"songstory"` // поле service в каждой записи
}

// New создает zap.Logger по конфигурации.
func New(cfg Config) (*zap.Logger, error) {
	// Уровень логирования
	level := zap.NewAtomicLevel()
	logLevel := strings.ToLower(cfg.Level)
	if logLevel == "" {
		logLevel = "info" // Когда LOG_LEVEL задан пустой строкой
	}
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		// Логгера еще нет, пишем в stderr
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', using 'info'. Error: %v\n", cfg.Level, err)
		level.SetLevel(zap.InfoLevel)
	}

	// Кодировщик: ISO8601-время под ключом timestamp
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder // INFO, WARN, ERROR

	encoding := strings.ToLower(cfg.Encoding)
	if encoding != "console" && encoding != "json" {
		encoding = "json" // Неизвестный формат
	}

	// Вывод
	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = "stdout"
	}

	zapConfig := zap.Config{
		Level:             level,
		Development:       false,
		DisableCaller:     true,
		DisableStacktrace: true, // Стек ошибок внешних API в логах не нужен
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{outputPath},
		ErrorOutputPaths:  []string{"stderr"}, // Ошибки самого zap
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	// Имя сервиса в каждой записи, чтобы логи различались в общем агрегаторе
	if cfg.Service != "" {
		logger = logger.With(zap.String("service", cfg.Service))
	}

	return logger, nil
}

// Named возвращает дочерний логгер компонента; nil-логгер заменяется на Nop.
// Клиенты и сервисы вызывают его в конструкторах, чтобы тесты могли передавать nil.
func Named(l *zap.Logger, name string) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.Named(name)
}
