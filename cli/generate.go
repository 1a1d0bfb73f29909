package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/drblury/restweaver"
	"github.com/drblury/restweaver/jsonutil"
	"github.com/drblury/restweaver/spec"
)

// Output formats accepted by generate.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// GenerateConfig captures the inputs of the generate command.
type GenerateConfig struct {
	Out    string
	Format string
}

var generateRunner = runGenerate

func newGenerateCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the OpenAPI document to a file",
		Example: strings.TrimSpace(`  restweaver generate --out openapi.json
  restweaver --config restweaver.yaml generate --format yaml --out openapi.yaml`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			opts, err := commonOptions(cmd)
			if err != nil {
				return err
			}
			fw, err := build(factory, opts)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), fw, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("out", "openapi.json", "Output file")
	flags.String("format", "", "Output format (json|yaml); derived from --out when omitted")
	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	flags := cmd.Flags()
	out, err := flags.GetString("out")
	if err != nil {
		return nil, err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}

	cfg := &GenerateConfig{Out: strings.TrimSpace(out), Format: strings.ToLower(strings.TrimSpace(format))}
	if cfg.Out == "" {
		return nil, newUsageError("generate: --out must not be empty")
	}
	if cfg.Format == "" {
		cfg.Format = formatFor(cfg.Out)
	}
	if cfg.Format != FormatJSON && cfg.Format != FormatYAML {
		return nil, newUsageError(fmt.Sprintf("generate: unsupported --format %q (allowed: json, yaml)", cfg.Format))
	}
	return cfg, nil
}

func runGenerate(ctx context.Context, fw *restweaver.Framework, cfg *GenerateConfig) error {
	data, err := render(ctx, fw, cfg.Format)
	if err != nil {
		return err
	}
	store := spec.NewFileStore(filepath.Dir(cfg.Out))
	if err := store.Put(ctx, filepath.Base(cfg.Out), data); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}

// render returns the document of fw encoded in format.
func render(ctx context.Context, fw *restweaver.Framework, format string) ([]byte, error) {
	data, err := fw.Spec(ctx)
	if err != nil {
		return nil, fmt.Errorf("build openapi document: %w", err)
	}
	if format != FormatYAML {
		return data, nil
	}

	var doc map[string]any
	if err := jsonutil.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode openapi document: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document as yaml: %w", err)
	}
	return out, nil
}

func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
