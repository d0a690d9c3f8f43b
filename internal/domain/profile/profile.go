package profile

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrMissingRequired = errors.New("fullname, jobtitle and description are required")
	ErrLastRecord      = errors.New("at least one record must remain")
	ErrIndexOutOfRange = errors.New("record index out of range")
)

type ProjectRecord struct {
	ProjectName string  `json:"projectName"`
	JobTitle    string  `json:"jobtitle"`
	Description string  `json:"description"`
	Image       *string `json:"image,omitempty"`
}

// CompanyRecord years are free text; they are not validated as dates.
type CompanyRecord struct {
	CompanyName string `json:"companyName"`
	JobTitle    string `json:"jobtitle"`
	Description string `json:"description"`
	FromYear    string `json:"fromYear"`
	ToYear      string `json:"toYear"`
}

// Profile is the "profile" section of the document. Slice order is display
// order. Optional fields are nil when absent and are omitted on write.
type Profile struct {
	FullName          string          `json:"fullname"`
	JobTitle          string          `json:"jobtitle"`
	Description       string          `json:"description"`
	CV                *string         `json:"cv,omitempty"`
	ProjectExperience []ProjectRecord `json:"projectExperience"`
	CompanyExperience []CompanyRecord `json:"companyExperience"`
	WhatsApp          *string         `json:"whatsapp,omitempty"`
	Telegram          *string         `json:"telegram,omitempty"`
	GitHub            *string         `json:"github,omitempty"`
	LinkedIn          *string         `json:"linkedin,omitempty"`
	Email             *string         `json:"email,omitempty"`
}

func (p *Profile) Validate() error {
	if strings.TrimSpace(p.FullName) == "" ||
		strings.TrimSpace(p.JobTitle) == "" ||
		strings.TrimSpace(p.Description) == "" {
		return ErrMissingRequired
	}
	return nil
}

// AssetRefs lists every asset reference held by the profile.
func (p *Profile) AssetRefs() []string {
	var refs []string
	if p.CV != nil && *p.CV != "" {
		refs = append(refs, *p.CV)
	}
	for _, pr := range p.ProjectExperience {
		if pr.Image != nil && *pr.Image != "" {
			refs = append(refs, *pr.Image)
		}
	}
	return refs
}

func (p *Profile) AddProject(r ProjectRecord) {
	p.ProjectExperience = append(p.ProjectExperience, r)
}

func (p *Profile) AddCompany(r CompanyRecord) {
	p.CompanyExperience = append(p.CompanyExperience, r)
}

func (p *Profile) RemoveProject(i int) error {
	list, err := removeAt(p.ProjectExperience, i)
	if err != nil {
		return err
	}
	p.ProjectExperience = list
	return nil
}

func (p *Profile) RemoveCompany(i int) error {
	list, err := removeAt(p.CompanyExperience, i)
	if err != nil {
		return err
	}
	p.CompanyExperience = list
	return nil
}

// removeAt keeps at least one element in the list.
func removeAt[T any](list []T, i int) ([]T, error) {
	if i < 0 || i >= len(list) {
		return list, ErrIndexOutOfRange
	}
	if len(list) <= 1 {
		return list, ErrLastRecord
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...), nil
}

// SecretStore exposes the stored admin PIN hash. An unset secret is "".
type SecretStore interface {
	AdminPinHash(ctx context.Context) (string, error)
}

// Repository owns the persisted document. ReplaceProfile swaps the whole
// profile section in a single commit and leaves every other key untouched.
type Repository interface {
	SecretStore
	Get(ctx context.Context) (*Document, error)
	ReplaceProfile(ctx context.Context, p Profile) error
	SetAdminPinHash(ctx context.Context, hash string) error
}
