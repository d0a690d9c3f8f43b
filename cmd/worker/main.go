package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/media_storage"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/service"
	backupUC "github.com/khoahotran/folio/internal/application/usecase/backup"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/tracing"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, cfg.App.LogLevel)
	defer appLogger.Sync()
	appLogger.Info("Starting Folio Worker...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, "folio-worker")
	if err != nil {
		appLogger.Fatal("Failed to init tracer", err)
	}
	defer shutdownTracing(context.Background())

	documentRepo, closeRepo, err := persistence.NewDocumentRepository(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot open document store", err)
	}
	defer closeRepo()

	// Cloudinary Uploader
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	backupUseCase := backupUC.NewBackupUseCase(documentRepo, uploader, appLogger)

	// Kafka Consumer
	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("Kafka brokers not configured", nil)
	}
	profileConsumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicProfileEvents,
		GroupID:  "profile-backup-group",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer profileConsumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicProfileEvents))

	for {
		msg, err := profileConsumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		payload, err := event.DecodeProfileEvent(msg)
		if err != nil {
			appLogger.Error("Failed to unmarshal event, skipping", err, zap.Int64("offset", msg.Offset))
			commitMessage(ctx, profileConsumer, msg, appLogger)
			continue
		}

		l := appLogger.With(zap.String("event_id", payload.EventID.String()), zap.String("event_type", string(payload.EventType)))
		if payload.EventType != service.ProfileEventUpdated {
			l.Warn("Ignoring unknown event type")
			commitMessage(ctx, profileConsumer, msg, appLogger)
			continue
		}

		if _, err := backupUseCase.Execute(ctx); err != nil {
			l.Error("Failed to back up document", err)
			continue
		}

		commitMessage(ctx, profileConsumer, msg, appLogger)
	}
}

func commitMessage(ctx context.Context, consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(ctx, msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
