package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drblury/restweaver"
)

func newValidateCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Fail when a written OpenAPI document differs from a fresh build",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}
			if file = strings.TrimSpace(file); file == "" {
				return newUsageError("validate: --file must not be empty")
			}
			opts, err := commonOptions(cmd)
			if err != nil {
				return err
			}
			fw, err := build(factory, opts)
			if err != nil {
				return err
			}
			if err := runValidate(cmd.Context(), fw, file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", file)
			return nil
		},
	}
	cmd.Flags().String("file", "openapi.json", "Document to check")
	return cmd
}

func runValidate(ctx context.Context, fw *restweaver.Framework, file string) error {
	written, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	fresh, err := render(ctx, fw, formatFor(file))
	if err != nil {
		return err
	}
	if !bytes.Equal(bytes.TrimSpace(written), bytes.TrimSpace(fresh)) {
		return fmt.Errorf("%s: %w; run generate", file, ErrStale)
	}
	return nil
}
