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

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/datamatch-api/api/swagger"
	"github.com/noah-isme/datamatch-api/internal/handler"
	"github.com/noah-isme/datamatch-api/internal/repository"
	"github.com/noah-isme/datamatch-api/internal/router"
	"github.com/noah-isme/datamatch-api/internal/service"
	"github.com/noah-isme/datamatch-api/pkg/cache"
	"github.com/noah-isme/datamatch-api/pkg/config"
	"github.com/noah-isme/datamatch-api/pkg/database"
	"github.com/noah-isme/datamatch-api/pkg/logger"
	"github.com/noah-isme/datamatch-api/pkg/mailer"
	"github.com/noah-isme/datamatch-api/pkg/storage"
)

// @title Datamatch API
// @version 1.0.0
// @description Dataset upload and reference comparison service
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	files, err := newFileStore(ctx, cfg.Storage)
	if err != nil {
		logr.Fatal("failed to init storage", zap.Error(err))
	}

	var codes service.CodeSender
	if cfg.SMTP.Host != "" {
		codes = mailer.NewSMTPMailer(cfg.SMTP, cfg.Auth.OTPTTL)
	} else {
		logr.Warn("SMTP_HOST not set, one-time codes are written to the log")
		codes = mailer.NewLogMailer(logr)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	datasetRepo := repository.NewDatasetRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	keyRepo := repository.NewAPIKeyRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, redisClient != nil)
	tokens := service.TokenConfig{Secret: cfg.JWT.Secret, Expiration: cfg.JWT.Expiration}

	gate := service.NewAccessGate(userRepo, tokens, logr)
	authSvc := service.NewAuthService(userRepo, codes, validate, logr, service.AuthConfig{
		Token:         tokens,
		OTPTTL:        cfg.Auth.OTPTTL,
		AdminEmail:    cfg.Auth.AdminEmail,
		AdminPassword: cfg.Auth.AdminPassword,
	})
	datasetSvc := service.NewDatasetService(datasetRepo, keyRepo, files, cacheSvc, metrics, validate, logr, service.DatasetConfig{
		FreeUploadLimit: cfg.Uploads.FreeLimit,
		MaxTextBytes:    cfg.Uploads.MaxFileSizeBytes,
	})
	referenceSvc := service.NewReferenceService(referenceRepo, datasetRepo, validate, logr)
	analysisSvc := service.NewAnalysisService(datasetRepo, analysisRepo, userRepo, referenceRepo, cacheSvc, metrics, validate, logr)
	keySvc := service.NewAPIKeyService(keyRepo, cfg.Payments.KeyValidity, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, userRepo, keySvc, metrics, validate, logr, cfg.Payments.SimulatedDelay)
	adminSvc := service.NewAdminService(userRepo, statsRepo, cacheSvc, validate, logr)
	publicSvc := service.NewPublicService(datasetRepo, cacheSvc, logr)

	engine := router.Setup(cfg, logr, metrics, gate, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Dataset:   handler.NewDatasetHandler(datasetSvc, cfg.Uploads.MaxFileSizeBytes),
		Reference: handler.NewReferenceHandler(referenceSvc),
		Analysis:  handler.NewAnalysisHandler(analysisSvc),
		Billing:   handler.NewBillingHandler(paymentSvc, keySvc),
		Admin:     handler.NewAdminHandler(adminSvc, keySvc, paymentSvc, datasetSvc),
		Public:    handler.NewPublicHandler(publicSvc, files),
		Health: handler.NewHealthHandler(metrics, map[string]handler.Pinger{
			"database": statsRepo,
			"cache":    cacheRepo,
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("failed to shutdown server", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newFileStore(ctx context.Context, cfg config.StorageConfig) (storage.FileStore, error) {
	switch cfg.Driver {
	case config.StorageDriverMinIO:
		store, err := storage.NewMinIOStorage(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageDriverLocal, "":
		store, err := storage.NewLocalStorage(cfg.UploadsDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
