package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wastenot/wastenot-backend/internal/api"
	"github.com/wastenot/wastenot-backend/internal/api/community"
	"github.com/wastenot/wastenot-backend/internal/api/tracking"
	"github.com/wastenot/wastenot-backend/internal/cache"
	"github.com/wastenot/wastenot-backend/internal/config"
	"github.com/wastenot/wastenot-backend/internal/photostore"
	"github.com/wastenot/wastenot-backend/internal/repository"
	"github.com/wastenot/wastenot-backend/internal/service/activities"
	"github.com/wastenot/wastenot-backend/internal/service/leaderboard"
	"github.com/wastenot/wastenot-backend/internal/service/meals"
	"github.com/wastenot/wastenot-backend/internal/service/waste"
	"github.com/wastenot/wastenot-backend/internal/vision"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := db.SeedActivities(); err != nil {
		return fmt.Errorf("failed to seed activities: %w", err)
	}

	photos, err := newPhotoStore(ctx, cfg)
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(ctx, cfg, log)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	mealRepo := repository.NewMealRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	var leaderboardCache cache.Cache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cfg.Redis, log)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		leaderboardCache = redisCache
	}

	resolver := waste.NewResolver(photos, analyzer, log)
	mealService := meals.NewService(userRepo, mealRepo, badgeRepo, photos, analyzer, resolver, log)
	activityService := activities.NewService(activityRepo, userRepo, log)
	leaderboardService := leaderboard.NewService(
		userRepo, badgeRepo, leaderboardCache, time.Duration(cfg.Redis.TTL)*time.Second, log)

	trackingHandler := tracking.NewHandler(mealService, cfg.Uploads.MaxSizeMB, log)
	communityHandler := community.NewHandler(activityService, leaderboardService, log)

	router := api.NewRouter(cfg, trackingHandler, communityHandler, db)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newPhotoStore(ctx context.Context, cfg *config.Config) (photostore.Store, error) {
	switch cfg.Uploads.Backend {
	case "s3":
		return photostore.NewS3Store(ctx, &cfg.Uploads)
	default:
		return photostore.NewLocalStore(cfg.Uploads.Dir)
	}
}

func newAnalyzer(ctx context.Context, cfg *config.Config, log *logger.Logger) (vision.Analyzer, error) {
	switch cfg.Vision.Provider {
	case "rekognition":
		return vision.NewRekognitionAnalyzer(ctx, &cfg.Vision.Rekognition, log)
	default:
		return vision.NewGeminiAnalyzer(&cfg.Vision.Gemini, log), nil
	}
}
