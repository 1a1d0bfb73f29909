package reconcile_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/restweaver/config"
	"github.com/drblury/restweaver/reconcile"
)

func newReconciler(logs *bytes.Buffer) *reconcile.Reconciler {
	return reconcile.New(reconcile.WithLogger(slog.New(slog.NewTextHandler(logs, nil))))
}

func TestReconcile_Transitions(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	r := newReconciler(&logs)
	ctx := context.Background()

	var outcomes []reconcile.Outcome
	r.OnChange(func(_ context.Context, _ config.Config, o reconcile.Outcome) {
		outcomes = append(outcomes, o)
	})

	_, ok := r.Current()
	assert.False(t, ok)

	cfg := config.Config{DocsConfig: config.DocsConfig{Title: "Todos"}}
	assert.Equal(t, reconcile.Initialized, r.Reconcile(ctx, cfg, "http://localhost/docs", "http://localhost/openapi.json"))
	assert.Contains(t, logs.String(), "restweaver initialized")
	assert.Contains(t, logs.String(), "http://localhost/openapi.json")

	logs.Reset()
	for i := 0; i < 5; i++ {
		assert.Equal(t, reconcile.Unchanged, r.Reconcile(ctx, cfg, "", ""))
	}
	assert.Empty(t, logs.String())

	changed := cfg
	changed.DocsConfig.Title = "Todos v2"
	assert.Equal(t, reconcile.Changed, r.Reconcile(ctx, changed, "", ""))
	assert.Equal(t, reconcile.Unchanged, r.Reconcile(ctx, changed, "", ""))
	assert.Equal(t, 1, strings.Count(logs.String(), "restweaver config changed, re-initializing"))

	current, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "Todos v2", current.DocsConfig.Title)
	assert.Equal(t, "/openapi.json", current.OpenAPIJSONPath)

	assert.Equal(t, []reconcile.Outcome{reconcile.Initialized, reconcile.Changed}, outcomes)
}

func TestReconcile_InitOnce(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	r := newReconciler(&logs)
	ctx := context.Background()

	assert.Equal(t, reconcile.Initialized, r.InitOnce(ctx, config.Config{DocsPath: "/a"}, "", ""))
	assert.Equal(t, reconcile.Unchanged, r.InitOnce(ctx, config.Config{DocsPath: "/b"}, "", ""))

	current, _ := r.Current()
	assert.Equal(t, "/a", current.DocsPath)
}

func TestEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, reconcile.Equal(config.Config{}, config.Default()))
	assert.True(t, reconcile.Equal(
		config.Config{OpenAPISpecOverrides: map[string]any{}},
		config.Config{},
	))
	assert.True(t, reconcile.Equal(
		config.Config{OpenAPISpecOverrides: map[string]any{"info": map[string]string{"version": "2"}}},
		config.Config{OpenAPISpecOverrides: map[string]any{"info": map[string]any{"version": "2"}}},
	))
	assert.False(t, reconcile.Equal(
		config.Config{OpenAPISpecOverrides: map[string]any{"tags": []any{"a"}}},
		config.Config{OpenAPISpecOverrides: map[string]any{"tags": []any{"b"}}},
	))
}

func TestReconcile_Concurrent(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	r := reconcile.New(reconcile.WithLogger(slog.New(slog.NewTextHandler(&syncWriter{w: &logs}, nil))))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Reconcile(ctx, config.Config{}, "", "")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, strings.Count(logs.String(), "restweaver initialized"))
	assert.NotContains(t, logs.String(), "re-initializing")
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
