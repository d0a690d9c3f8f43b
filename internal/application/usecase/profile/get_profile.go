package profile

import (
	"context"
	"encoding/json"

	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
)

type GetProfileUseCase struct {
	repo profile.Repository
}

func NewGetProfileUseCase(repo profile.Repository) *GetProfileUseCase {
	return &GetProfileUseCase{repo: repo}
}

type GetProfileOutput struct {
	// Profile is the stored section verbatim, or {} before the first save.
	Profile json.RawMessage
}

func (uc *GetProfileUseCase) Execute(ctx context.Context) (*GetProfileOutput, error) {
	doc, err := uc.repo.Get(ctx)
	if err != nil {
		return nil, apperror.NewInternal("failed to read document", err)
	}
	raw, ok := doc.Public().Raw(profile.KeyProfile)
	if !ok || string(raw) == "null" {
		raw = json.RawMessage(`{}`)
	}
	return &GetProfileOutput{Profile: raw}, nil
}
