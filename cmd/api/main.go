package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"booklore/internal/adapter"
	"booklore/internal/auth"
	"booklore/internal/config"
	"booklore/internal/core"
	"booklore/internal/core/browse"
	"booklore/internal/db"
	"booklore/internal/logging"
	"booklore/internal/telemetry"
	"booklore/pkg/http_client"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "booklore",
	Short: "BookLore - personal digital library server",
	Long:  "BookLore serves a personal e-book library with multi-criteria filtering, natural-order sorting and reading statistics.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the BookLore API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("BookLore starting")

	tables, err := config.LoadBuckets(cfg.BucketTablesPath)
	if err != nil {
		return err
	}
	engine := browse.NewEngine(tables, logger)

	var (
		books    core.BookRepository
		shelves  core.ShelfRepository
		sessions core.SessionRepository
		icons    core.IconRepository
		database *gorm.DB
	)
	if cfg.DBBackend == config.DatabaseMemory {
		books = adapter.NewBookRepo()
		shelves = adapter.NewShelfRepo()
		sessions = adapter.NewSessionRepo()
		icons = adapter.NewIconRepo()
	} else {
		database, err = db.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if err := adapter.Migrate(database); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		books = adapter.NewGormBookRepo(database)
		shelves = adapter.NewGormShelfRepo(database)
		sessions = adapter.NewGormSessionRepo(database)
		icons = adapter.NewGormIconRepo(database)
	}

	enrich := adapter.NewOpenLibraryClient(
		cfg.OpenLibraryBaseURL,
		cfg.OpenLibraryRetry,
		http_client.New(10*time.Second),
	)

	svc := core.NewService(books, shelves, sessions, icons, enrich, engine)

	var iconCache *adapter.RedisIconCache
	if cfg.IconCacheEnabled {
		cacheCfg := adapter.DefaultIconCacheConfig()
		cacheCfg.RedisAddr = cfg.RedisAddr
		cacheCfg.RedisPassword = cfg.RedisPassword
		cacheCfg.RedisDB = cfg.RedisDB
		iconCache = adapter.NewRedisIconCache(cacheCfg, logger)
		svc.IconCache = iconCache
	}

	handler := adapter.NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.MetricsMiddleware)
	if cfg.AuthEnabled {
		r.Use(auth.Middleware([]byte(cfg.JWTSigningKey)))
	}
	r.Mount("/", handler.Routes())

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsBind,
		Handler:           telemetry.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.MetricsBind).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	go func() {
		logger.Info().Str("addr", cfg.Addr()).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	_ = metricsServer.Shutdown(timeoutCtx)

	if iconCache != nil {
		_ = iconCache.Close()
	}
	if database != nil {
		if err := db.Close(database); err != nil {
			logger.Error().Err(err).Msg("database close failed")
		}
	}

	logger.Info().Msg("BookLore stopped")
	return nil
}
