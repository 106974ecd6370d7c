package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mockprep/internal/answers"
	"mockprep/internal/cache"
	"mockprep/internal/config"
	"mockprep/internal/feedback"
	"mockprep/internal/handlers"
	"mockprep/internal/interview"
	"mockprep/internal/jobs"
	"mockprep/internal/llm"
	_ "mockprep/internal/llm/gemini"
	"mockprep/internal/media"
	"mockprep/internal/prompts"
	"mockprep/internal/quota"
	"mockprep/internal/report"
	"mockprep/internal/repositories"
	mongostore "mockprep/internal/repositories/mongo"
	sqlstore "mockprep/internal/repositories/sql"
	"mockprep/internal/routers"
	"mockprep/internal/storage"
)

var (
	newLogger        = zap.NewProduction
	loadConfig       = config.Load
	newProvider      = llm.New
	gormOpen         = defaultGormOpen
	newDialector     = defaultDialector
	mongoConnect     = mongostore.NewClient
	dbConnectTimeout = 30 * time.Second
	shutdownTimeout  = 30 * time.Second
	httpListenServe  = func(srv *http.Server) error { return srv.ListenAndServe() }
	exitFunc         = os.Exit
	logFatalFn       = defaultLogFatal
)

func defaultDialector(driver, dsn string) gorm.Dialector {
	if driver == "sqlite" {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}

func defaultGormOpen(driver, dsn string) (*gorm.DB, error) {
	return gorm.Open(newDialector(driver, dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

func defaultLogFatal(err error) {
	log.Printf("mockprep: %v", err)
	exitFunc(1)
}

// connectWithRetry keeps opening and pinging the database until it answers or timeout passes.
func connectWithRetry(driver, dsn string, timeout time.Duration, logger *zap.Logger) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for attempt := 1; ; attempt++ {
		db, err := gormOpen(driver, dsn)
		if err == nil {
			if err = ping(db); err == nil {
				return db, nil
			}
		}
		lastErr = err
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("database not reachable after %d attempts: %w", attempt, lastErr)
		}
		logger.Warn("database not ready, retrying", zap.String("driver", driver), zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(200 * time.Millisecond)
	}
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repositories.Store, error) {
	switch cfg.StoreDriver {
	case "mongo":
		client, err := mongoConnect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		store, err := mongostore.NewStore(ctx, client)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return store, nil
	default:
		dsn := cfg.PostgresDSN
		if cfg.StoreDriver == "sqlite" {
			dsn = cfg.SQLitePath
		}
		db, err := connectWithRetry(cfg.StoreDriver, dsn, dbConnectTimeout, logger)
		if err != nil {
			return nil, err
		}
		if err := sqlstore.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return sqlstore.NewStore(db), nil
	}
}

func openBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	if cfg.BlobBackend == "s3" {
		return storage.NewS3Storage(storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			BaseURL:   cfg.BlobPublicURL,
		})
	}
	return storage.NewLocalStorage(storage.Config{BasePath: cfg.LocalBlobDir, BaseURL: cfg.BlobPublicURL})
}

// openReportCache returns nil when redis is not configured or not reachable; reports are
// then built from the store on every request.
func openReportCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, report.Cache) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, report cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return nil, nil
	}
	return rdb, cache.NewReportCache(rdb, cfg.ReportCacheTTL)
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	build := newLogger
	if cfg.Env == "development" {
		build = zap.NewDevelopment
	}
	logger, err := build()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())
	logger.Info("store ready", zap.String("driver", cfg.StoreDriver))

	blobs, err := openBlobStore(cfg)
	if err != nil {
		return err
	}

	rdb, reportCache := openReportCache(ctx, cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg.AIProvider, llm.Settings{APIKey: cfg.AIAPIKey, Model: cfg.AIModel})
	if err != nil {
		return fmt.Errorf("failed to initialize AI provider: %w", err)
	}

	aggregator := report.NewAggregator(store.Sessions, store.Answers, reportCache, logger)
	gate := quota.NewGate(store.Subscriptions, cfg.FreeSessionLimit, logger)
	pending := interview.NewPendingStore(cfg.PendingAnswerTTL)
	defer pending.Close()

	service := interview.NewService(store.Sessions, gate, feedback.NewQuestionGenerator(provider, promptManager, logger), aggregator, logger)
	pipeline := interview.NewPipeline(
		store.Sessions,
		feedback.NewRequester(provider, promptManager, logger),
		media.NewUploader(blobs, logger),
		answers.NewPersister(store.Answers, logger),
		aggregator,
		pending,
		logger,
	)

	sweeper := jobs.NewOrphanSweeperJob(aggregator, cfg.SweepSchedule, logger)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	router := routers.NewRouter(routers.Handlers{
		Interviews:    handlers.NewInterviewHandler(service, aggregator, logger),
		Answers:       handlers.NewAnswerHandler(pipeline, logger),
		Capture:       handlers.NewCaptureHandler(service, pipeline, cfg.AllowedOrigins, logger),
		Subscriptions: handlers.NewSubscriptionHandler(gate, store.Subscriptions, cfg.WebhookSecret, logger),
		Health:        handlers.NewHealthHandler(store.Ping, provider),
	}, cfg.JWTSecret, cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	if cfg.BlobBackend == "local" {
		mountLocalFiles(router, cfg.LocalBlobDir)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("mockprep listening", zap.String("addr", server.Addr))
		serveErr <- httpListenServe(server)
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownChan)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-shutdownChan:
	}

	logger.Info("mockprep shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("mockprep exited")
	return nil
}

// mountLocalFiles serves clips written by the local blob backend.
func mountLocalFiles(router *chi.Mux, dir string) {
	router.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(dir))))
}

func main() {
	if err := run(); err != nil {
		logFatalFn(err)
	}
}
