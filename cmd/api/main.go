// @title           plan2protect API
// @version         1.0
// @description     Users, plans, floor-plan assessments and administrator analytics.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/api"
	"github.com/plan2protect/platform/internal/api/handler"
	"github.com/plan2protect/platform/internal/core/ports"
	"github.com/plan2protect/platform/internal/core/service"
	"github.com/plan2protect/platform/internal/infrastructure/analysis"
	"github.com/plan2protect/platform/internal/infrastructure/blob"
	mongodb "github.com/plan2protect/platform/internal/infrastructure/db/mongo"
	redisdb "github.com/plan2protect/platform/internal/infrastructure/db/redis"
	"github.com/plan2protect/platform/internal/infrastructure/queue"
	"github.com/plan2protect/platform/internal/pkg/config"
	"github.com/plan2protect/platform/pkg/logger"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "plan2protect-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api stopped with error")
	}
	log.Info().Msg("api stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewIdentityRepository(db, mongodb.CollectionUsers)
	assessments := mongodb.NewAssessmentRepository(db, mongodb.CollectionAssessments)
	credentials := mongodb.NewCredentialRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, assessments, credentials); err != nil {
		return err
	}

	blobs, err := newBlobStore(cfg.Storage)
	if err != nil {
		return err
	}

	// Server-side analysis runs only when an engine is configured.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	var analysisQueue ports.AnalysisQueue
	var dispatcher *queue.Dispatcher
	if cfg.Analysis.URL != "" {
		engine := analysis.New(cfg.Analysis.URL, cfg.Analysis.Timeout)
		processor := service.NewAnalysisProcessor(assessments, users, blobs, engine, logger.Component("analysis"))
		dispatcher = queue.NewDispatcher(cfg.Analysis.Workers, processor, logger.Component("queue"))
		dispatcher.Start(workerCtx)
		analysisQueue = dispatcher
		log.Info().Str("url", cfg.Analysis.URL).Int("workers", cfg.Analysis.Workers).Msg("analysis engine enabled")
	}

	e := api.NewRouter(api.Services{
		Accounts:    service.NewAccountService(users, logger.Component("accounts")),
		Assessments: service.NewAssessmentService(assessments, users, blobs, analysisQueue, logger.Component("assessments")),
		Analytics:   service.NewAnalyticsService(users, logger.Component("analytics")),
		Identity:    service.NewIdentityService(credentials, redisdb.NewTokenRevoker(rdb), cfg.JWTSecret, cfg.JWTTTL),
		Readiness:   handler.NewHealthDependenciesHandler(db, rdb).Readiness,
	}, log)
	if !cfg.Storage.UseS3() {
		e.Static(cfg.Storage.LocalBaseURL, cfg.Storage.LocalDir)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	cancelWorkers()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	return nil
}

func newBlobStore(cfg config.StorageConfig) (ports.BlobStore, error) {
	if cfg.UseS3() {
		s3, err := blob.NewS3Store(blob.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	local, err := blob.NewLocalStore(cfg.LocalDir, cfg.LocalBaseURL)
	if err != nil {
		return nil, err
	}
	return local, nil
}
