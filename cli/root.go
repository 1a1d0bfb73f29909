// Package cli provides cobra commands that generate, check and serve the
// OpenAPI document of a restweaver Framework.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/drblury/restweaver"
	"github.com/drblury/restweaver/config"
)

// Factory builds the Framework the commands operate on. The options carry the
// loaded configuration, the logger and, for serve, the document store.
type Factory func(opts ...restweaver.Option) (*restweaver.Framework, error)

// Execute runs the CLI with the process arguments.
func Execute(ctx context.Context, name string, factory Factory) error {
	return NewRootCmd(name, factory).ExecuteContext(ctx)
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd(name string, factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           name,
		Short:         "Generate, check and serve the OpenAPI document of " + name,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("log-format", "text", "Log output format (text|json)")

	for _, sub := range []*cobra.Command{
		newGenerateCmd(factory),
		newValidateCmd(factory),
		newServeCmd(factory),
	} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}
	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}

// commonOptions loads the config file and builds the logger from the
// persistent flags.
func commonOptions(cmd *cobra.Command) ([]restweaver.Option, error) {
	flags := cmd.Flags()

	logger, err := newLogger(flags, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	opts := []restweaver.Option{restweaver.WithLogger(logger)}

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if path = strings.TrimSpace(path); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, newUsageError(fmt.Sprintf("config %s: %v", path, err))
		}
		opts = append(opts, restweaver.WithConfig(cfg))
	}
	return opts, nil
}

func newLogger(flags *pflag.FlagSet, out io.Writer) (*slog.Logger, error) {
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}
	format, err := flags.GetString("log-format")
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		handlerOpts.Level = slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	default:
		return nil, newUsageError(fmt.Sprintf("unsupported --log-format %q (allowed: text, json)", format))
	}
}

func build(factory Factory, opts []restweaver.Option) (*restweaver.Framework, error) {
	if factory == nil {
		return nil, newUsageError("no framework factory configured")
	}
	fw, err := factory(opts...)
	if err != nil {
		return nil, fmt.Errorf("build framework: %w", err)
	}
	return fw, nil
}
