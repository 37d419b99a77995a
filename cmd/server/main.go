package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/ready2cook/backend/config"
	httpDelivery "github.com/ready2cook/backend/internal/delivery/http"
	"github.com/ready2cook/backend/internal/domain"
	"github.com/ready2cook/backend/internal/infrastructure/cache"
	"github.com/ready2cook/backend/internal/infrastructure/imagestore"
	"github.com/ready2cook/backend/internal/infrastructure/kvstore"
	"github.com/ready2cook/backend/internal/infrastructure/logging"
	"github.com/ready2cook/backend/internal/infrastructure/spoonacular"
	"github.com/ready2cook/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// openKeyValueStore is replaced in tests to observe the store lifecycle.
var openKeyValueStore = newKeyValueStore

// run wires the application and serves until ctx is cancelled. Every resource
// opened here is released before it returns, including on setup errors.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting Ready2Cook backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Type),
		zap.String("images", cfg.Images.Type))

	store, closeStore, err := openKeyValueStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open key-value store: %w", err)
	}
	defer func() {
		if err := closeStore.Close(); err != nil {
			logger.Warn("failed to close key-value store", zap.Error(err))
		}
	}()

	images, err := newImageStore(ctx, cfg.Images)
	if err != nil {
		return fmt.Errorf("set up image storage: %w", err)
	}

	spoonacularClient := spoonacular.NewClient(
		cfg.Spoonacular.APIKey,
		cfg.Spoonacular.BaseURL,
		spoonacular.WithTimeout(cfg.Spoonacular.Timeout),
		spoonacular.WithRateLimit(cfg.Spoonacular.RequestsPerSecond, cfg.Spoonacular.Burst),
		spoonacular.WithLogger(logger),
	)
	if cfg.Spoonacular.Debug || cfg.Server.Environment == "development" {
		spoonacularClient.SetDebug(true)
		logger.Debug("spoonacular client debug mode enabled")
	}

	searchService := usecase.NewRecipeSearchService(
		cache.NewMemorySearchCache(),
		spoonacularClient,
		usecase.SearchServiceConfig{
			ResultLimit:       cfg.Spoonacular.SearchLimit,
			EnrichConcurrency: cfg.Search.EnrichConcurrency,
		},
		logger,
	)
	favoritesService := usecase.NewFavoritesService(store, cfg.Store.FavoritesKey, logger)
	recipeService := usecase.NewUserRecipeService(store, cfg.Store.RecipesKey, images, logger)

	handler := httpDelivery.NewHandler(searchService, favoritesService, recipeService,
		httpDelivery.HandlerConfig{
			UploadDir:      cfg.Server.UploadDir,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
		},
		logger,
	)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newKeyValueStore opens the configured store. The closer releases its
// connection on shutdown.
func newKeyValueStore(ctx context.Context, cfg config.StoreConfig) (domain.KeyValueStore, io.Closer, error) {
	switch cfg.Type {
	case "memory":
		return kvstore.NewMemoryStore(), nopCloser{}, nil
	case "file":
		s, err := kvstore.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case "sqlite":
		s, err := kvstore.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "redis":
		client, err := kvstore.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		s := kvstore.NewRedisStore(client, cfg.KeyPrefix)
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func newImageStore(ctx context.Context, cfg config.ImagesConfig) (domain.ImageStore, error) {
	switch cfg.Type {
	case "local":
		return imagestore.NewLocalStore(cfg.Dir)
	case "s3":
		client, err := imagestore.NewS3Client(ctx, cfg.S3Region)
		if err != nil {
			return nil, err
		}
		return imagestore.NewS3Store(client, cfg.S3Bucket, cfg.S3PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown image store type %q", cfg.Type)
	}
}
