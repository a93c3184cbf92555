package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"songstory-server/internal/clients"
	"songstory-server/internal/config"
	"songstory-server/internal/handler"
	"songstory-server/internal/messaging"
	"songstory-server/internal/repository"
	"songstory-server/internal/service"
	"songstory-server/pkg/database"
	"songstory-server/pkg/migration"
	sharedLogger "songstory-server/shared/logger"
	sharedMiddleware "songstory-server/shared/middleware"
	"songstory-server/web"
)

// cleanup - функции закрытия ресурсов, вызываются в обратном порядке.
type cleanup []func()

func (c *cleanup) add(f func()) { *c = append(*c, f) }

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger, err := sharedLogger.New(cfg.Logger)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	zap.ReplaceGlobals(logger)
	logger.Info("Configuration loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("lyrics_provider", cfg.Lyrics.Provider),
		zap.String("record_store", cfg.RecordStore.Driver),
		zap.Strings("genres", cfg.Genres),
	)

	var closers cleanup
	defer closers.run()

	// --- External clients ---
	lyricsClient, imageClient, err := setupGenerators(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up generation clients", zap.Error(err))
	}
	musicClient := clients.NewSunoClient(cfg.Music, logger)

	// --- Storage ---
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	redisClient, err := setupRedis(startupCtx, cfg, logger, &closers)
	if err != nil {
		cancelStartup()
		closers.run()
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	store, err := setupRecordStore(startupCtx, cfg, redisClient, logger, &closers)
	if err != nil {
		cancelStartup()
		closers.run()
		logger.Fatal("Failed to set up record store", zap.Error(err))
	}

	notifier, err := setupNotifier(startupCtx, cfg, logger, &closers)
	cancelStartup()
	if err != nil {
		closers.run()
		logger.Fatal("Failed to set up story events", zap.Error(err))
	}

	// --- Dependency Injection ---
	storyService := service.NewStoryService(lyricsClient, imageClient, musicClient, store, notifier, cfg, logger)
	historyService := service.NewHistoryService(store, logger)
	storyHandler := handler.NewStoryHandler(storyService, historyService, cfg, logger)

	renderer, err := web.NewTemplateRenderer(cfg.TemplatesDir, cfg.TemplatesDebug, logger)
	if err != nil {
		closers.run()
		logger.Fatal("Failed to load templates", zap.Error(err))
	}

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.AppEnv == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.HTMLRender = renderer
	router.Use(sharedMiddleware.RequestID())
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		logger.Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", sharedMiddleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{sharedMiddleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	var generateMiddleware []gin.HandlerFunc
	if cfg.RateLimit.Limit > 0 {
		rateLimitStore := handler.NewRateLimitStore(cfg.RateLimit, redisClient)
		generateMiddleware = append(generateMiddleware, storyHandler.RateLimit(rateLimitStore))
		logger.Info("Rate limiter initialized", zap.Int("limit", cfg.RateLimit.Limit), zap.Duration("window", cfg.RateLimit.Window))
	}
	storyHandler.RegisterRoutes(router, generateMiddleware...)

	// --- Start HTTP Server ---
	// WriteTimeout больше бюджета опроса музыки: ответ на /generate_story может идти минутами.
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		closers.run()
		logger.Fatal("HTTP Server listen error", zap.Error(err))
	}
	logger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort), zap.Duration("write_timeout", cfg.ServerWriteTimeout))

	// --- Graceful Shutdown ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Запись сохраняется с таймаутом хранилища уже после отмены опроса; запас на рендер и событие.
	shutdownTimeout := cfg.RecordStore.Timeout + 15*time.Second
	if err := serve(ctx, srv, ln, shutdownTimeout, logger); err != nil {
		logger.Error("HTTP Server stopped with error", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// serve обслуживает ln до отмены ctx. Контексты запросов наследуют ctx: по сигналу
// опрос музыки прерывается, и незавершенные генерации сохраняют запись до Shutdown.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *zap.Logger) error {
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...", zap.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP Server forced to shutdown: %w", err)
	}
	return nil
}

// setupGenerators создает клиентов текста и обложки. Обложка всегда идет через OpenAI.
func setupGenerators(cfg *config.Config, logger *zap.Logger) (clients.LyricsClient, clients.ImageClient, error) {
	imageAPI := clients.NewOpenAIClient(cfg.OpenAI, cfg.Image.Timeout)
	imageClient := clients.NewOpenAIImageClient(imageAPI, cfg.Image, logger)

	tokens := clients.NewTokenCounter(cfg.Lyrics.Model, logger)

	switch cfg.Lyrics.Provider {
	case config.LyricsProviderOllama:
		lyricsClient, err := clients.NewOllamaLyricsClient(cfg.Lyrics, tokens, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("ollama lyrics client: %w", err)
		}
		logger.Info("Using Ollama for lyrics", zap.String("url", cfg.Lyrics.OllamaURL), zap.String("model", cfg.Lyrics.Model))
		return lyricsClient, imageClient, nil
	default:
		lyricsAPI := clients.NewOpenAIClient(cfg.OpenAI, cfg.Lyrics.Timeout)
		logger.Info("Using OpenAI for lyrics", zap.String("model", cfg.Lyrics.Model))
		return clients.NewOpenAILyricsClient(lyricsAPI, cfg.Lyrics, tokens, logger), imageClient, nil
	}
}

// setupRedis подключается к Redis, если задан REDIS_ADDR. Без него кэш истории выключен,
// а счетчики ограничения запросов живут в памяти.
func setupRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger, closers *cleanup) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR not set, history cache disabled")
		return nil, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.Redis.Addr, err)
	}
	closers.add(func() { _ = redisClient.Close() })
	logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	return redisClient, nil
}

// setupRecordStore выбирает хранилище истории и, если есть Redis, оборачивает его кэшем.
func setupRecordStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger, closers *cleanup) (repository.RecordStore, error) {
	var store repository.RecordStore

	switch cfg.RecordStore.Driver {
	case config.RecordStorePostgres:
		logger.Info("Connecting to PostgreSQL", zap.String("dsn", cfg.Database.MaskedDSN()))
		db, err := database.New(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		closers.add(db.Close)

		migrator := migration.NewMigrator(migration.Config{
			MigrationsPath: repository.MigrationsPath,
			MigrationsFS:   repository.MigrationsFS,
		}, db.Pool)
		if err := migrator.Up(ctx); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		store = repository.NewPostgresStore(db.Pool, logger)
	default:
		store = repository.NewSheetDBStore(cfg.RecordStore.SheetDBURL, cfg.RecordStore.Timeout, logger)
	}

	if redisClient == nil {
		return store, nil
	}
	logger.Info("History cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
	return repository.NewCachedRecordStore(store, redisClient, cfg.Redis.TTL, logger), nil
}

// setupNotifier подключается к RabbitMQ, если задан RABBITMQ_URL. Иначе события не публикуются.
func setupNotifier(ctx context.Context, cfg *config.Config, logger *zap.Logger, closers *cleanup) (messaging.Notifier, error) {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("RABBITMQ_URL not set, story events disabled")
		return messaging.NewNopNotifier(), nil
	}

	conn, err := messaging.Dial(ctx, cfg.RabbitMQ.URL, 10, 3*time.Second, logger)
	if err != nil {
		return nil, err
	}
	closers.add(func() { _ = conn.Close() })

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	closers.add(func() { _ = ch.Close() })

	notifier, err := messaging.NewRabbitMQNotifier(ch, cfg.RabbitMQ.Queue, logger)
	if err != nil {
		return nil, err
	}
	watchChannel(ch, logger)
	return notifier, nil
}

// watchChannel логирует закрытие канала брокером: после него публикации падают до рестарта.
func watchChannel(ch *amqp.Channel, logger *zap.Logger) {
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-closed; ok && amqpErr != nil {
			logger.Error("RabbitMQ channel closed", zap.String("reason", amqpErr.Reason), zap.Int("code", amqpErr.Code))
		}
	}()
}
