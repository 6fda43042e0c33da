package appboot

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-appboot/pkg/activity"
)

const (
	// DefaultBootstrapClass is used when the bootstrap option names no class.
	DefaultBootstrapClass = "Bootstrap"
	// ResourceBootstrapClass names the built-in ResourceBootstrap.
	ResourceBootstrapClass = "ResourceBootstrap"
)

// Bootstrapper initializes application resources and runs the application.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, resources ...string) error
	Run(ctx context.Context) error
}

// BootstrapSource records where the active bootstrap came from.
type BootstrapSource struct {
	Path  string
	Class string
}

// SetBootstrap resolves class (DefaultBootstrapClass when empty) through the
// autoloader and installs the Bootstrapper built by its factory. path is
// resolved against the search path and recorded for provenance.
func (a *Application) SetBootstrap(path, class string) error {
	if class == "" {
		class = DefaultBootstrapClass
	}

	factory, err := a.cfg.autoloader.Resolve(class)
	if err != nil {
		return configError("bootstrap", path, err)
	}

	resolved := path
	if found, ok := a.cfg.searchPath.Resolve(path); ok {
		resolved = found
	}

	bootstrap, err := factory(a)
	if err != nil {
		return configError("bootstrap", path, fmt.Errorf("%w: %s: %w", ErrInvalidBootstrap, class, err))
	}
	if bootstrap == nil {
		return configError("bootstrap", path, fmt.Errorf("%w: %s factory returned nil", ErrInvalidBootstrap, class))
	}

	a.bootstrap = bootstrap
	a.bootstrapSource = BootstrapSource{Path: resolved, Class: class}
	return nil
}

// GetBootstrap returns the installed Bootstrapper, creating a
// ResourceBootstrap on first use when none was configured.
func (a *Application) GetBootstrap() Bootstrapper {
	if a.bootstrap == nil {
		a.bootstrap = NewResourceBootstrap(a)
		a.bootstrapSource = BootstrapSource{Class: ResourceBootstrapClass}
	}
	return a.bootstrap
}

// BootstrapSource reports the path and class of the active bootstrap.
func (a *Application) BootstrapSource() BootstrapSource {
	return a.bootstrapSource
}

// Bootstrap initializes resources (all of them when none are named).
func (a *Application) Bootstrap(ctx context.Context, resources ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	err := a.GetBootstrap().Bootstrap(ctx, resources...)
	a.log(LogEntry{
		Stage:    StageBootstrap,
		Detail:   "bootstrap resources",
		Fields:   map[string]any{"resources": resources, "class": a.bootstrapSource.Class},
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return err
	}
	a.emit(ctx, activity.BuildBootstrapEvent(a.eventInput(), resources))
	return nil
}

// Run hands control to the bootstrap's run step.
func (a *Application) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.emit(ctx, activity.BuildRunEvent(a.eventInput()))
	start := time.Now()
	err := a.GetBootstrap().Run(ctx)
	a.log(LogEntry{
		Stage:    StageRun,
		Detail:   "run",
		Duration: time.Since(start),
		Err:      err,
	})
	return err
}
