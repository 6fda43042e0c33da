package appboot

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-appboot/layering"
)

// ResourceFunc initializes one named resource. options holds the
// resources.<name> sub-tree of the application options (empty when absent).
type ResourceFunc func(ctx context.Context, b *ResourceBootstrap, options layering.Map) error

// RunFunc is the run step of a ResourceBootstrap.
type RunFunc func(ctx context.Context, b *ResourceBootstrap) error

// ResourceBootstrap is the default Bootstrapper. Resources run at most once,
// may bootstrap their dependencies through the bootstrap they receive, and are
// matched by case-insensitive name. It is meant for single-owner use.
type ResourceBootstrap struct {
	app       *Application
	order     []string
	resources map[string]ResourceFunc
	done      map[string]struct{}
	running   map[string]struct{}
	runner    RunFunc
}

// NewResourceBootstrap constructs an empty ResourceBootstrap bound to app.
func NewResourceBootstrap(app *Application) *ResourceBootstrap {
	return &ResourceBootstrap{
		app:       app,
		resources: map[string]ResourceFunc{},
		done:      map[string]struct{}{},
		running:   map[string]struct{}{},
	}
}

// Application returns the owning application.
func (b *ResourceBootstrap) Application() *Application {
	return b.app
}

// RegisterResource stores fn under name guarding against duplicates.
func (b *ResourceBootstrap) RegisterResource(name string, fn ResourceFunc) error {
	if fn == nil {
		return fmt.Errorf("appboot: resource %q is nil", name)
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("appboot: resource name must not be empty")
	}
	if _, exists := b.resources[key]; exists {
		return fmt.Errorf("appboot: resource %q already registered", name)
	}
	b.resources[key] = fn
	b.order = append(b.order, key)
	return nil
}

// SetRunner configures the run step.
func (b *ResourceBootstrap) SetRunner(fn RunFunc) {
	b.runner = fn
}

// HasResource reports whether name is registered.
func (b *ResourceBootstrap) HasResource(name string) bool {
	_, ok := b.resources[strings.ToLower(name)]
	return ok
}

// Resources returns registered resource names in registration order.
func (b *ResourceBootstrap) Resources() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Bootstrapped reports whether name already ran successfully.
func (b *ResourceBootstrap) Bootstrapped(name string) bool {
	_, ok := b.done[strings.ToLower(name)]
	return ok
}

// ResourceOptions returns the resources.<name> options sub-tree.
func (b *ResourceBootstrap) ResourceOptions(name string) layering.Map {
	if b.app == nil {
		return layering.Map{}
	}
	value, ok := layering.Lookup(b.app.Options(), KeyResources+layering.PathSeparator+name)
	if !ok || !value.IsMap() {
		return layering.Map{}
	}
	return value.Map().Clone()
}

// Bootstrap runs the named resources, or every registered resource in
// registration order when names is empty.
func (b *ResourceBootstrap) Bootstrap(ctx context.Context, names ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(names) == 0 {
		names = b.Resources()
	}
	for _, name := range names {
		if err := b.execute(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (b *ResourceBootstrap) execute(ctx context.Context, name string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := b.done[key]; ok {
		return nil
	}
	if _, ok := b.running[key]; ok {
		return fmt.Errorf("%w: %s", ErrCircularDependency, name)
	}
	fn, ok := b.resources[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.running[key] = struct{}{}
	err := fn(ctx, b, b.ResourceOptions(key))
	delete(b.running, key)
	if err != nil {
		return fmt.Errorf("appboot: resource %q: %w", name, err)
	}
	b.done[key] = struct{}{}
	return nil
}

// Run invokes the configured run step.
func (b *ResourceBootstrap) Run(ctx context.Context) error {
	if b.runner == nil {
		return ErrRunnerNotConfigured
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return b.runner(ctx, b)
}
