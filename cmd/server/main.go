package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	httpAdapter "github.com/khoahotran/folio/adapters/http"
	"github.com/khoahotran/folio/adapters/media_storage"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/service"
	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	profileUC "github.com/khoahotran/folio/internal/application/usecase/profile"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/lockout"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, cfg.App.LogLevel)
	defer appLogger.Sync()
	appLogger.Info("Start Folio API Server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, "folio-api")
	if err != nil {
		appLogger.Fatal("Failed to init tracer", err)
	}
	defer shutdownTracing(context.Background())

	// Stores
	documentRepo, closeRepo, err := persistence.NewDocumentRepository(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot open document store", err)
	}
	defer closeRepo()

	attemptStore, closeAttempts, err := persistence.NewAttemptStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot open attempt store", err)
	}
	defer closeAttempts()

	assetStore, err := media_storage.NewAssetStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot open asset store", err)
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("Kafka brokers not configured, profile events disabled")
	}

	// Use Cases
	policy := lockout.NewPolicy(cfg.Auth.MaxAttempts, cfg.Auth.LockoutDuration)
	verifyPinUseCase := authUC.NewVerifyPinUseCase(documentRepo, attemptStore, policy, appLogger)
	draftBuilder := profileUC.NewDraftBuilder(assetStore, profileUC.Limits{
		MaxCVBytes:    cfg.Assets.MaxCVBytes,
		MaxImageBytes: cfg.Assets.MaxImageBytes,
	}, appLogger)
	saveProfileUseCase := profileUC.NewSaveProfileUseCase(documentRepo, draftBuilder, publisher, appLogger)
	getProfileUseCase := profileUC.NewGetProfileUseCase(documentRepo)

	// HTTP
	routerCfg := httpAdapter.RouterConfig{
		Logger:         appLogger,
		AuthHandler:    httpAdapter.NewAuthHandler(verifyPinUseCase),
		ProfileHandler: httpAdapter.NewProfileHandler(saveProfileUseCase, getProfileUseCase, cfg.App.MaxBodyBytes),
	}
	if cfg.Auth.GuardSubmission {
		routerCfg.Admission = httpAdapter.AdmissionMiddleware(verifyPinUseCase)
	} else {
		appLogger.Warn("Submission endpoint is not PIN guarded")
	}
	if cfg.Assets.Driver == config.AssetDriverLocal {
		routerCfg.AssetPrefix = cfg.Assets.PublicPrefix
		routerCfg.AssetDir = cfg.Assets.Root
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           httpAdapter.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", err)
	}
}
