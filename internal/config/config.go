package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"songstory-server/shared/logger"
)

// Провайдеры генерации текста песни.
const (
	LyricsProviderOpenAI = "openai"
	LyricsProviderOllama = "ollama"
)

// Драйверы хранилища истории.
const (
	RecordStoreSheetDB  = "sheetdb"
	RecordStorePostgres = "postgres"
)

// Config содержит всю конфигурацию приложения. Создается один раз в main
// и дальше передается по указателю, никем не изменяется.
type Config struct {
	AppEnv             string        `env:"APP_ENV" env-default:"development"`
	ServerPort         string        `env:"SERVER_PORT" env-default:"5000"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"6m"` // больше бюджета опроса музыки
	TemplatesDebug     bool          `env:"TEMPLATES_DEBUG" env-default:"false"` // шаблоны перечитываются с диска на каждый запрос
	TemplatesDir       string        `env:"TEMPLATES_DIR" env-default:"web/templates"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
	Genres             []string      `env:"GENRES" env-default:"pop,rock,jazz,classical,hiphop,electronic,reggae,country,blues,metal" env-separator:","`

	// Повторы для Transient-ошибок генерации (1 = без повторов)
	GenerationMaxAttempts int `env:"GENERATION_MAX_ATTEMPTS" env-default:"1"`

	Logger      logger.Config
	OpenAI      OpenAIConfig
	Lyrics      LyricsConfig
	Image       ImageConfig
	Music       MusicConfig
	Poll        PollConfig
	RecordStore RecordStoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	RateLimit   RateLimitConfig
}

// OpenAIConfig - доступ к OpenAI (тексты и картинки).
type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL" env-default:""` // пусто = адрес библиотеки по умолчанию
}

// LyricsConfig - генерация текста песни.
type LyricsConfig struct {
	Provider  string        `env:"LYRICS_PROVIDER" env-default:"openai"`
	Model     string        `env:"LYRICS_MODEL" env-default:"gpt-4"`
	MaxTokens int           `env:"LYRICS_MAX_TOKENS" env-default:"200"`
	MaxChars  int           `env:"LYRICS_MAX_CHARS" env-default:"1000"`
	OllamaURL string        `env:"OLLAMA_BASE_URL" env-default:"http://localhost:11434"`
	Timeout   time.Duration `env:"LYRICS_TIMEOUT" env-default:"120s"`
}

// ImageConfig - генерация обложки.
type ImageConfig struct {
	Size    string        `env:"IMAGE_SIZE" env-default:"512x512"`
	Timeout time.Duration `env:"IMAGE_TIMEOUT" env-default:"120s"`
}

// MusicConfig - сервис генерации музыки (submit + poll).
type MusicConfig struct {
	BaseURL string        `env:"BASE_URL"`
	Cookie  string        `env:"SUNO_COOKIE"`
	Timeout time.Duration `env:"MUSIC_TIMEOUT" env-default:"30s"`
}

// PollConfig - расписание опроса задачи генерации музыки.
type PollConfig struct {
	MaxAttempts int           `env:"POLL_MAX_ATTEMPTS" env-default:"60"`
	Interval    time.Duration `env:"POLL_INTERVAL" env-default:"5s"`
	Multiplier  float64       `env:"POLL_MULTIPLIER" env-default:"1.0"`
	MaxInterval time.Duration `env:"POLL_MAX_INTERVAL" env-default:"30s"`
}

// RecordStoreConfig - хранилище истории.
type RecordStoreConfig struct {
	Driver     string        `env:"RECORD_STORE_DRIVER" env-default:"sheetdb"`
	SheetDBURL string        `env:"SHEETDB_API_URL"`
	Timeout    time.Duration `env:"RECORD_STORE_TIMEOUT" env-default:"15s"`
}

// DatabaseConfig - PostgreSQL, используется только при RECORD_STORE_DRIVER=postgres.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:""`
	Name     string `env:"DB_NAME" env-default:"songstory"`
	SSLMode  string `env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns int    `env:"DB_MAX_CONNECTIONS" env-default:"10"`
}

// RedisConfig - кэш истории. Пустой адрес выключает кэш.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" env-default:""`
	Password string        `env:"REDIS_PASSWORD" env-default:""`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `env:"HISTORY_CACHE_TTL" env-default:"60s"`
}

// RabbitMQConfig - события о сгенерированных историях. Пустой URL выключает публикацию.
type RabbitMQConfig struct {
	URL   string `env:"RABBITMQ_URL" env-default:""`
	Queue string `env:"STORY_EVENTS_QUEUE" env-default:"story_generated"`
}

// RateLimitConfig - ограничение POST /generate_story по IP. При заданном REDIS_ADDR счетчики в Redis.
type RateLimitConfig struct {
	Limit  int           `env:"GENERATE_RATE_LIMIT" env-default:"5"` // 0 выключает ограничение
	Window time.Duration `env:"GENERATE_RATE_WINDOW" env-default:"1m"`
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения.
// Наличие ключей внешних сервисов не проверяется: вызовы упадут при первом использовании.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет только внутреннюю согласованность настроек.
func (c *Config) Validate() error {
	switch c.Lyrics.Provider {
	case LyricsProviderOpenAI, LyricsProviderOllama:
	default:
		return fmt.Errorf("unknown LYRICS_PROVIDER %q", c.Lyrics.Provider)
	}
	switch c.RecordStore.Driver {
	case RecordStoreSheetDB, RecordStorePostgres:
	default:
		return fmt.Errorf("unknown RECORD_STORE_DRIVER %q", c.RecordStore.Driver)
	}
	if c.Poll.MaxAttempts < 1 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be positive, got %d", c.Poll.MaxAttempts)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Poll.Interval)
	}
	if len(c.Genres) == 0 {
		return fmt.Errorf("GENRES must not be empty")
	}
	return nil
}

func (c *Config) normalize() {
	c.Lyrics.Provider = strings.ToLower(strings.TrimSpace(c.Lyrics.Provider))
	c.RecordStore.Driver = strings.ToLower(strings.TrimSpace(c.RecordStore.Driver))

	genres := c.Genres[:0]
	for _, g := range c.Genres {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	c.Genres = genres

	if c.GenerationMaxAttempts < 1 {
		c.GenerationMaxAttempts = 1
	}
	if c.Poll.Multiplier < 1 {
		c.Poll.Multiplier = 1
	}
	if c.RateLimit.Limit < 0 {
		c.RateLimit.Limit = 0
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
}

// GetAllowedOrigins разбивает CORS_ALLOWED_ORIGINS по запятой.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// GetDSN возвращает строку подключения к PostgreSQL.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// MaskedDSN - DSN без пароля, для логов.
func (c *DatabaseConfig) MaskedDSN() string {
	return fmt.Sprintf("postgres://%s:********@%s:%d/%s?sslmode=%s",
		c.User, c.Host, c.Port, c.Name, c.SSLMode)
}

// IsGenre сообщает, входит ли жанр в настроенный список.
func (c *Config) IsGenre(genre string) bool {
	for _, g := range c.Genres {
		if g == genre {
			return true
		}
	}
	return false
}
