package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/metrics"
)

var tracer = otel.Tracer("profile_usecase")

type SaveProfileUseCase struct {
	repo      profile.Repository
	builder   *DraftBuilder
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewSaveProfileUseCase(repo profile.Repository, builder *DraftBuilder, publisher service.EventPublisher, log logger.Logger) *SaveProfileUseCase {
	if publisher == nil {
		publisher = service.NopPublisher{}
	}
	return &SaveProfileUseCase{
		repo:      repo,
		builder:   builder,
		publisher: publisher,
		logger:    log,
	}
}

type SaveProfileOutput struct {
	Profile *profile.Profile
}

// Execute replaces the stored profile with the one described by sub.
func (uc *SaveProfileUseCase) Execute(ctx context.Context, sub Submission) (*SaveProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "SaveProfile")
	defer span.End()
	start := time.Now()
	defer func() { metrics.SubmissionDuration.Observe(time.Since(start).Seconds()) }()

	draft, written, err := uc.builder.Build(ctx, sub)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, apperror.ErrInvalidInput) {
			metrics.ProfileSubmissions.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.ProfileSubmissions.WithLabelValues(metrics.ResultFailed).Inc()
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("projects", len(draft.ProjectExperience)),
		attribute.Int("companies", len(draft.CompanyExperience)),
		attribute.Int("assets_written", len(written)),
	)

	if err := uc.repo.ReplaceProfile(ctx, *draft); err != nil {
		span.RecordError(err)
		uc.builder.Discard(ctx, written)
		metrics.ProfileSubmissions.WithLabelValues(metrics.ResultFailed).Inc()
		return nil, apperror.NewInternal("failed to write document", err)
	}
	metrics.ProfileSubmissions.WithLabelValues(metrics.ResultCommitted).Inc()
	uc.logger.Info("Profile committed",
		zap.Int("projects", len(draft.ProjectExperience)),
		zap.Int("companies", len(draft.CompanyExperience)),
		zap.Strings("assets_written", written),
	)

	go func() {
		err := uc.publisher.PublishProfileEvent(context.Background(), service.ProfileEvent{
			EventID:    uuid.New(),
			EventType:  service.ProfileEventUpdated,
			AssetRefs:  draft.AssetRefs(),
			OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			uc.logger.Error("Failed to publish Kafka 'profile.updated' event", err)
		}
	}()

	return &SaveProfileOutput{Profile: draft}, nil
}
