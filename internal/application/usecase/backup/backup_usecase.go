package backup

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const backupFolder = "backups/profile"

type BackupUseCase struct {
	repo     profile.Repository
	uploader service.Uploader
	now      func() time.Time
	logger   logger.Logger
}

func NewBackupUseCase(repo profile.Repository, uploader service.Uploader, log logger.Logger) *BackupUseCase {
	return &BackupUseCase{
		repo:     repo,
		uploader: uploader,
		now:      time.Now,
		logger:   log,
	}
}

type BackupOutput struct {
	URL      string
	PublicID string
}

// Execute uploads a snapshot of the document without the admin secret.
func (uc *BackupUseCase) Execute(ctx context.Context) (*BackupOutput, error) {
	uc.logger.Info("Starting document backup...")

	doc, err := uc.repo.Get(ctx)
	if err != nil {
		return nil, apperror.NewInternal("failed to read document for backup", err)
	}
	body, err := doc.Public().Encode()
	if err != nil {
		return nil, apperror.NewInternal("failed to encode backup", err)
	}

	timestamp := uc.now().UTC().Format("2006-01-02_15-04-05")
	publicID := fmt.Sprintf("profile-%s.json", timestamp)

	url, err := uc.uploader.Upload(ctx, bytes.NewReader(body), backupFolder, publicID)
	if err != nil {
		return nil, apperror.NewInternal("failed to upload backup", err)
	}

	uc.logger.Info("Document backup completed and uploaded successfully",
		zap.String("url", url),
		zap.String("public_id", backupFolder+"/"+publicID),
		zap.Int("bytes", len(body)),
	)
	return &BackupOutput{URL: url, PublicID: backupFolder + "/" + publicID}, nil
}
