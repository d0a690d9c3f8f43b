package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khoahotran/folio/internal/pingate"
)

func newSubmitCommand(opts *rootOptions) *cobra.Command {
	var (
		path   string
		cvPath string
		images []string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Unlock with the admin PIN and publish the draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := loadDraft(path)
			if err != nil {
				return err
			}
			if err := draft.Validate(); err != nil {
				return err
			}
			imageMap, err := parseImageFlags(images, len(draft.ProjectExperience))
			if err != nil {
				return err
			}

			pin, err := unlock(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			up := pingate.Upload{CVPath: cvPath, Images: imageMap}
			if err := opts.client().SaveProfile(cmd.Context(), pin, *draft, up); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile published.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", defaultDraftPath, "draft file")
	cmd.Flags().StringVar(&cvPath, "cv", "", "PDF to upload as the new CV")
	cmd.Flags().StringArrayVar(&images, "image", nil, "INDEX=PATH image for the project at INDEX, repeatable")
	return cmd
}

// parseImageFlags turns INDEX=PATH pairs into a map, rejecting indexes the
// draft has no project for.
func parseImageFlags(pairs []string, projects int) (map[int]string, error) {
	out := make(map[int]string, len(pairs))
	for _, pair := range pairs {
		idx, path, ok := strings.Cut(pair, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("image %q must look like INDEX=PATH", pair)
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= projects {
			return nil, fmt.Errorf("image index %q does not name a project", idx)
		}
		if _, dup := out[i]; dup {
			return nil, fmt.Errorf("image index %d given twice", i)
		}
		out[i] = path
	}
	return out, nil
}
