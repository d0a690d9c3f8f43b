package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type Limits struct {
	MaxCVBytes    int64
	MaxImageBytes int64
}

func DefaultLimits() Limits {
	return Limits{MaxCVBytes: 2 << 20, MaxImageBytes: 5 << 20}
}

// DraftBuilder turns a Submission into a complete profile. Every check runs
// before the first asset is written.
type DraftBuilder struct {
	assets service.AssetStore
	limits Limits
	logger logger.Logger
}

func NewDraftBuilder(assets service.AssetStore, limits Limits, log logger.Logger) *DraftBuilder {
	return &DraftBuilder{assets: assets, limits: limits, logger: log}
}

type pendingAsset struct {
	attachment *Attachment
	category   service.AssetCategory
	index      int
}

// Build returns the draft and the refs it wrote. On error nothing written by
// this call is left behind, as far as the asset store allows.
func (b *DraftBuilder) Build(ctx context.Context, sub Submission) (*profile.Profile, []string, error) {
	draft, pending, err := b.validate(ctx, sub)
	if err != nil {
		return nil, nil, err
	}

	var written []string
	for _, p := range pending {
		ref, err := b.store(ctx, p)
		if err != nil {
			b.Discard(ctx, written)
			return nil, nil, apperror.NewInternal("failed to store asset", err)
		}
		written = append(written, ref)

		switch p.category {
		case service.AssetCV:
			draft.CV = &ref
		case service.AssetProjectImage:
			draft.ProjectExperience[p.index].Image = &ref
		}
	}
	return draft, written, nil
}

// Discard deletes refs written by a submission that did not commit.
func (b *DraftBuilder) Discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := b.assets.Delete(context.WithoutCancel(ctx), ref); err != nil {
			b.logger.Warn("Failed to delete orphaned asset", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func (b *DraftBuilder) store(ctx context.Context, p pendingAsset) (string, error) {
	body, err := p.attachment.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer body.Close()

	return b.assets.Save(ctx, service.Asset{
		Category: p.category,
		Filename: p.attachment.Filename,
		Index:    p.index,
		Size:     p.attachment.Size,
		Body:     body,
	})
}

func (b *DraftBuilder) validate(ctx context.Context, sub Submission) (*profile.Profile, []pendingAsset, error) {
	draft := &profile.Profile{
		FullName:    value(sub.FullName),
		JobTitle:    value(sub.JobTitle),
		Description: value(sub.Description),
		WhatsApp:    sub.WhatsApp,
		Telegram:    sub.Telegram,
		GitHub:      sub.GitHub,
		LinkedIn:    sub.LinkedIn,
		Email:       sub.Email,
	}
	if err := draft.Validate(); err != nil {
		return nil, nil, apperror.NewInvalidInput("Missing required fields", err)
	}

	if sub.ProjectList == nil || sub.CompanyList == nil {
		return nil, nil, apperror.NewInvalidInput("Project or company list missing", nil)
	}
	projects, err := parseList[profile.ProjectRecord](*sub.ProjectList)
	if err != nil {
		return nil, nil, apperror.NewInvalidInput("Malformed project list", err)
	}
	companies, err := parseList[profile.CompanyRecord](*sub.CompanyList)
	if err != nil {
		return nil, nil, apperror.NewInvalidInput("Malformed company list", err)
	}
	draft.ProjectExperience = projects
	draft.CompanyExperience = companies

	var pending []pendingAsset

	switch {
	case !sub.CV.empty():
		if sub.CV.Size > b.limits.MaxCVBytes {
			return nil, nil, apperror.NewInvalidInput("CV file too large", service.ErrAssetTooLarge)
		}
		pending = append(pending, pendingAsset{attachment: sub.CV, category: service.AssetCV})
	case value(sub.CVRef) != "":
		if err := b.checkRef(ctx, *sub.CVRef); err != nil {
			return nil, nil, err
		}
		draft.CV = sub.CVRef
	}

	bound, err := bindImages(sub.Images, len(projects))
	if err != nil {
		return nil, nil, err
	}
	for i, pr := range projects {
		if img, ok := bound[i]; ok {
			if img.Size > b.limits.MaxImageBytes {
				return nil, nil, apperror.NewInvalidInput(fmt.Sprintf("Image for project %d too large", i), service.ErrAssetTooLarge)
			}
			pending = append(pending, pendingAsset{attachment: img, category: service.AssetProjectImage, index: i})
			continue
		}
		if ref := value(pr.Image); ref != "" {
			if err := b.checkRef(ctx, ref); err != nil {
				return nil, nil, err
			}
		}
	}

	return draft, pending, nil
}

// checkRef accepts only refs that point at an asset this store holds.
func (b *DraftBuilder) checkRef(ctx context.Context, ref string) error {
	if !b.assets.Owns(ref) {
		return apperror.NewInvalidInput(fmt.Sprintf("Unknown asset reference %q", ref), nil)
	}
	ok, err := b.assets.Exists(ctx, ref)
	if err != nil {
		return apperror.NewInternal("failed to check asset", err)
	}
	if !ok {
		return apperror.NewInvalidInput(fmt.Sprintf("Unknown asset reference %q", ref), nil)
	}
	return nil
}

// bindImages maps non-empty uploads to record indexes.
func bindImages(images []ImageAttachment, records int) (map[int]*Attachment, error) {
	bound := make(map[int]*Attachment)
	if len(images) == 0 {
		return bound, nil
	}

	explicit := images[0].Explicit
	if !explicit && len(images) > records {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("%d project images sent for %d projects", len(images), records), nil)
	}

	seen := make([]bool, records)
	for pos := range images {
		img := &images[pos]
		if img.Explicit != explicit {
			return nil, apperror.NewInvalidInput("Project images mix indexed and positional parts", nil)
		}
		idx := pos
		if explicit {
			idx = img.Index
		}
		if idx < 0 || idx >= records {
			return nil, apperror.NewInvalidInput(fmt.Sprintf("Project image index %d out of range", idx), nil)
		}
		if seen[idx] {
			return nil, apperror.NewInvalidInput(fmt.Sprintf("Duplicate project image for index %d", idx), nil)
		}
		seen[idx] = true

		if !img.Attachment.empty() {
			bound[idx] = &img.Attachment
		}
	}
	return bound, nil
}

// parseList requires a JSON array of objects. An empty array is allowed.
func parseList[T any](raw string) ([]T, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, fmt.Errorf("list is null")
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		if !bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
			return nil, fmt.Errorf("item %d is not an object", i)
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
