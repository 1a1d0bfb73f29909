package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/drblury/restweaver"
	"github.com/drblury/restweaver/probe"
	"github.com/drblury/restweaver/spec"
)

// ServeConfig captures the inputs of the serve command.
type ServeConfig struct {
	Addr              string
	MongoURI          string
	MongoDatabase     string
	SpecDir           string
	RequestValidation bool
	ShutdownTimeout   time.Duration
}

var serveRunner = runServe

func newServeCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the API, its docs page and OpenAPI document",
		Example: strings.TrimSpace(`  restweaver serve --addr :8080
  restweaver serve --mongo-uri mongodb://localhost:27017 --mongo-db api`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveServeConfig(cmd)
			if err != nil {
				return err
			}
			opts, err := commonOptions(cmd)
			if err != nil {
				return err
			}
			return serveRunner(cmd.Context(), factory, opts, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "Listen address")
	flags.String("mongo-uri", "", "Persist the OpenAPI document in MongoDB at this URI")
	flags.String("mongo-db", "restweaver", "MongoDB database name")
	flags.String("spec-dir", "", "Persist the OpenAPI document as a file in this directory")
	flags.Bool("request-validation", false, "Validate requests against the OpenAPI document in the router")
	flags.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	return cmd
}

func resolveServeConfig(cmd *cobra.Command) (*ServeConfig, error) {
	flags := cmd.Flags()
	cfg := &ServeConfig{}
	var err error
	if cfg.Addr, err = flags.GetString("addr"); err != nil {
		return nil, err
	}
	if cfg.MongoURI, err = flags.GetString("mongo-uri"); err != nil {
		return nil, err
	}
	if cfg.MongoDatabase, err = flags.GetString("mongo-db"); err != nil {
		return nil, err
	}
	if cfg.SpecDir, err = flags.GetString("spec-dir"); err != nil {
		return nil, err
	}
	if cfg.RequestValidation, err = flags.GetBool("request-validation"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = flags.GetDuration("shutdown-timeout"); err != nil {
		return nil, err
	}

	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.MongoURI = strings.TrimSpace(cfg.MongoURI)
	cfg.MongoDatabase = strings.TrimSpace(cfg.MongoDatabase)
	cfg.SpecDir = strings.TrimSpace(cfg.SpecDir)
	if cfg.Addr == "" {
		return nil, newUsageError("serve: --addr must not be empty")
	}
	if cfg.MongoURI != "" && cfg.MongoDatabase == "" {
		return nil, newUsageError("serve: --mongo-db is required with --mongo-uri")
	}
	if cfg.MongoURI != "" && cfg.SpecDir != "" {
		return nil, newUsageError("serve: --mongo-uri and --spec-dir are mutually exclusive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, newUsageError("serve: --shutdown-timeout must be positive")
	}
	return cfg, nil
}

func runServe(ctx context.Context, factory Factory, opts []restweaver.Option, cfg *ServeConfig) error {
	if cfg.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("serve: connect mongo: %w", err)
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()
		opts = append(opts,
			restweaver.WithStore(spec.NewMongoStore(client.Database(cfg.MongoDatabase))),
			restweaver.WithReadinessChecks(probe.NewMongoPingProbe(client, nil)),
		)
	}
	if cfg.SpecDir != "" {
		opts = append(opts,
			restweaver.WithStore(spec.NewFileStore(cfg.SpecDir)),
			restweaver.WithReadinessChecks(probe.NewPingProbe("spec-dir", dirProbe(cfg.SpecDir))),
		)
	}
	if cfg.RequestValidation {
		opts = append(opts, restweaver.WithRequestValidation())
	}

	fw, err := build(factory, opts)
	if err != nil {
		return err
	}
	return listenAndServe(ctx, fw, cfg)
}

// dirProbe fails unless dir exists or can be created.
func dirProbe(dir string) probe.PingFunc {
	return func(context.Context) error {
		info, err := os.Stat(dir)
		if errors.Is(err, os.ErrNotExist) {
			return os.MkdirAll(dir, 0o755)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}
}

func listenAndServe(ctx context.Context, fw *restweaver.Framework, cfg *ServeConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           fw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
