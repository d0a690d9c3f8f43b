package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/khoahotran/folio/internal/domain/profile"
)

const defaultDraftPath = "profile.draft.json"

func loadDraft(path string) (*profile.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no draft at %s, run `draft pull` first", path)
		}
		return nil, err
	}
	var p profile.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("malformed draft %s: %w", path, err)
	}
	return &p, nil
}

func saveDraft(path string, p *profile.Profile) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// editDraft loads the draft, applies fn and writes it back.
func editDraft(path string, fn func(p *profile.Profile) error) error {
	p, err := loadDraft(path)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	return saveDraft(path, p)
}

func newDraftCommand(opts *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Edit a local profile draft before submitting it",
	}
	cmd.PersistentFlags().StringVarP(&path, "file", "f", defaultDraftPath, "draft file")

	pull := &cobra.Command{
		Use:   "pull",
		Short: "Start a draft from the published profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := opts.client().FetchProfile(cmd.Context())
			if err != nil {
				return err
			}
			if err := saveDraft(path, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d projects, %d companies)\n", path, len(p.ProjectExperience), len(p.CompanyExperience))
			return nil
		},
	}

	cmd.AddCommand(pull, newSetCommand(&path), newAddProjectCommand(&path), newAddCompanyCommand(&path),
		newRemoveCommand(&path, "remove-project", "Remove the project at INDEX", (*profile.Profile).RemoveProject),
		newRemoveCommand(&path, "remove-company", "Remove the company at INDEX", (*profile.Profile).RemoveCompany),
	)
	return cmd
}

func newSetCommand(path *string) *cobra.Command {
	var v struct {
		fullname, jobtitle, description, cv         string
		whatsapp, telegram, github, linkedin, email string
	}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change scalar profile fields",
	}
	f := cmd.Flags()
	f.StringVar(&v.fullname, "fullname", "", "full name")
	f.StringVar(&v.jobtitle, "jobtitle", "", "job title")
	f.StringVar(&v.description, "description", "", "description")
	f.StringVar(&v.cv, "cv", "", "existing CV reference")
	f.StringVar(&v.whatsapp, "whatsapp", "", "WhatsApp contact")
	f.StringVar(&v.telegram, "telegram", "", "Telegram contact")
	f.StringVar(&v.github, "github", "", "GitHub profile")
	f.StringVar(&v.linkedin, "linkedin", "", "LinkedIn profile")
	f.StringVar(&v.email, "email", "", "email address")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		changed := cmd.Flags().Changed
		return editDraft(*path, func(p *profile.Profile) error {
			if changed("fullname") {
				p.FullName = v.fullname
			}
			if changed("jobtitle") {
				p.JobTitle = v.jobtitle
			}
			if changed("description") {
				p.Description = v.description
			}
			optional := []struct {
				flag string
				dst  **string
				val  string
			}{
				{"cv", &p.CV, v.cv},
				{"whatsapp", &p.WhatsApp, v.whatsapp},
				{"telegram", &p.Telegram, v.telegram},
				{"github", &p.GitHub, v.github},
				{"linkedin", &p.LinkedIn, v.linkedin},
				{"email", &p.Email, v.email},
			}
			for _, o := range optional {
				if !changed(o.flag) {
					continue
				}
				if o.val == "" {
					*o.dst = nil
					continue
				}
				s := o.val
				*o.dst = &s
			}
			return nil
		})
	}
	return cmd
}

func newAddProjectCommand(path *string) *cobra.Command {
	var r profile.ProjectRecord
	var image string
	cmd := &cobra.Command{
		Use:   "add-project",
		Short: "Append a project record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if image != "" {
				r.Image = &image
			}
			return editDraft(*path, func(p *profile.Profile) error {
				p.AddProject(r)
				fmt.Fprintf(cmd.OutOrStdout(), "project %d added\n", len(p.ProjectExperience)-1)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&r.ProjectName, "name", "", "project name")
	cmd.Flags().StringVar(&r.JobTitle, "jobtitle", "", "role on the project")
	cmd.Flags().StringVar(&r.Description, "description", "", "description")
	cmd.Flags().StringVar(&image, "image", "", "existing image reference")
	return cmd
}

func newAddCompanyCommand(path *string) *cobra.Command {
	var r profile.CompanyRecord
	cmd := &cobra.Command{
		Use:   "add-company",
		Short: "Append a company record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return editDraft(*path, func(p *profile.Profile) error {
				p.AddCompany(r)
				fmt.Fprintf(cmd.OutOrStdout(), "company %d added\n", len(p.CompanyExperience)-1)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&r.CompanyName, "name", "", "company name")
	cmd.Flags().StringVar(&r.JobTitle, "jobtitle", "", "job title")
	cmd.Flags().StringVar(&r.Description, "description", "", "description")
	cmd.Flags().StringVar(&r.FromYear, "from", "", "start year")
	cmd.Flags().StringVar(&r.ToYear, "to", "", "end year")
	return cmd
}

func newRemoveCommand(path *string, use, short string, remove func(*profile.Profile, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " INDEX",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index %q is not a number", args[0])
			}
			return editDraft(*path, func(p *profile.Profile) error {
				return remove(p, i)
			})
		},
	}
}
