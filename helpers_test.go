package appboot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-appboot/config"
	"github.com/goliatone/go-appboot/layering"
)

// mapLoader serves fixed documents and ignores the environment.
func mapLoader(docs map[string]map[string]any) config.Loader {
	return config.LoaderFunc(func(_ context.Context, path, _ string) (layering.Map, error) {
		doc, ok := docs[path]
		if !ok {
			return nil, fmt.Errorf("%w: %s", config.ErrUnreadable, path)
		}
		return layering.FromMap(doc), nil
	})
}

type settingsRecorder struct {
	mu     sync.Mutex
	values map[string]any
	order  []string
}

func (r *settingsRecorder) Apply(key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = map[string]any{}
	}
	r.values[key] = value
	r.order = append(r.order, key)
	return nil
}

type logRecorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (r *logRecorder) Log(entry LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *logRecorder) stage(stage string) []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []LogEntry
	for _, entry := range r.entries {
		if entry.Stage == stage {
			out = append(out, entry)
		}
	}
	return out
}

func mustNew(t *testing.T, environment string, source any, opts ...Option) *Application {
	t.Helper()
	app, err := New(context.Background(), environment, source, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return app
}

func scalarAt(t *testing.T, app *Application, path string) any {
	t.Helper()
	value, ok := layering.Lookup(app.Options(), path)
	if !ok {
		t.Fatalf("expected %q in options %#v", path, app.Options().ToAny())
	}
	return value.Scalar()
}

func requireConfigError(t *testing.T, err error, target error) *ConfigError {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	return cfgErr
}
