package appboot

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-appboot/layering"
	"github.com/goliatone/go-appboot/pkg/activity"
)

// Recognized top-level option keys. Matching is case-insensitive.
const (
	KeyConfig               = "config"
	KeySettings             = "settings"
	KeyIncludePaths         = "includePaths"
	KeyAutoloaderNamespaces = "autoloaderNamespaces"
	KeyBootstrap            = "bootstrap"
	KeyResources            = "resources"
)

// ConfigProvider exposes a configuration object as an untyped tree.
// *viper.Viper satisfies it.
type ConfigProvider interface {
	AllSettings() map[string]any
}

// Application owns the effective options for one environment and wires them
// into settings, search paths, namespaces and the bootstrap. It is not safe for
// concurrent use.
type Application struct {
	environment     string
	state           *optionState
	stack           *Stack
	files           []string
	sourcePath      string
	sourceFile      string
	bootstrap       Bootstrapper
	bootstrapSource BootstrapSource
	cfg             applicationConfig
}

// New builds an Application for environment. source may be nil, a config file
// path, a layering.Map, a map[string]any or a ConfigProvider.
func New(ctx context.Context, environment string, source any, opts ...Option) (*Application, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	app := &Application{
		environment: environment,
		state:       newOptionState(nil),
		stack:       &Stack{},
		cfg:         applyOptions(opts),
	}
	if source == nil {
		return app, nil
	}

	options, err := app.normalizeSource(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := app.SetOptions(ctx, options); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *Application) normalizeSource(ctx context.Context, source any) (layering.Map, error) {
	switch typed := source.(type) {
	case string:
		doc, resolved, err := a.loadConfig(ctx, typed)
		if err != nil {
			return nil, err
		}
		a.sourcePath, a.sourceFile = typed, resolved
		return doc, nil
	case layering.Map:
		return typed.Clone(), nil
	case map[string]any:
		return layering.FromMap(typed), nil
	case ConfigProvider:
		return layering.FromMap(typed.AllSettings()), nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidOptions, source)
	}
}

// Environment returns the environment name the application was built for.
func (a *Application) Environment() string {
	return a.environment
}

// SetOptions replaces the application options. Config files referenced by the
// config key are loaded and merged underneath options first, then recognized
// keys are dispatched to their collaborators.
func (a *Application) SetOptions(ctx context.Context, options layering.Map) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	stack, files, err := a.buildStack(ctx, options)
	if err != nil {
		a.log(LogEntry{Stage: StageOptions, Detail: "resolve config layers", Err: err})
		return err
	}

	a.stack = stack
	a.files = files
	a.state = newOptionState(stack.Merge())

	err = a.dispatch()
	a.log(LogEntry{
		Stage:    StageOptions,
		Detail:   "options set",
		Fields:   map[string]any{"keys": a.state.lowerKeys(), "layers": stack.Len()},
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return err
	}

	a.emit(ctx, activity.BuildOptionsSetEvent(a.eventInput(), a.state.lowerKeys(), stack.Len()))
	return nil
}

// Reload re-reads the config entries and re-applies the inline options last
// passed to SetOptions. An application built from a config file path reads
// that file again first.
func (a *Application) Reload(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.sourcePath != "" {
		options, err := a.normalizeSource(ctx, a.sourcePath)
		if err != nil {
			return err
		}
		return a.SetOptions(ctx, options)
	}
	options := layering.Map{}
	for _, layer := range a.stack.Layers() {
		if layer.Name == OptionsLayerName {
			options = layer.Options
			break
		}
	}
	return a.SetOptions(ctx, options)
}

// ConfigFiles returns the resolved locations of every config document behind
// the current options, weakest first. The file the application was built
// from, if any, comes last.
func (a *Application) ConfigFiles() []string {
	files := append([]string(nil), a.files...)
	if a.sourceFile != "" {
		files = append(files, a.sourceFile)
	}
	return files
}

func (a *Application) dispatch() error {
	if value, ok := a.state.lookup(KeySettings); ok && !value.IsEmpty() {
		if !value.IsMap() {
			return configError("settings", "", ErrInvalidSettings)
		}
		if err := a.ApplySettings(value.Map()); err != nil {
			return err
		}
	}

	var includePaths []string
	if value, ok := a.state.lookup(KeyIncludePaths); ok && !value.IsEmpty() {
		includePaths = value.Strings()
	}
	a.cfg.searchPath.setOptionDirs(includePaths)

	if value, ok := a.state.lookup(KeyAutoloaderNamespaces); ok && !value.IsEmpty() {
		a.SetAutoloaderNamespaces(value.Strings()...)
	}

	if value, ok := a.state.lookup(KeyBootstrap); ok && !value.IsEmpty() {
		return a.applyBootstrapOption(value)
	}
	return nil
}

func (a *Application) applyBootstrapOption(value layering.Value) error {
	switch value.Kind() {
	case layering.KindScalar:
		path, ok := value.Scalar().(string)
		if !ok {
			return configError("bootstrap", "", fmt.Errorf("%w: got %T", ErrInvalidBootstrap, value.Scalar()))
		}
		return a.SetBootstrap(path, "")
	case layering.KindMap:
		bootstrap := newOptionState(value.Map())
		pathValue, _ := bootstrap.lookup("path")
		if pathValue.IsEmpty() {
			return configError("bootstrap", "", ErrBootstrapPathRequired)
		}
		path := firstString(pathValue)
		class := ""
		if classValue, ok := bootstrap.lookup("class"); ok && !classValue.IsEmpty() {
			class = firstString(classValue)
		}
		return a.SetBootstrap(path, class)
	default:
		return configError("bootstrap", "", fmt.Errorf("%w: got %s", ErrInvalidBootstrap, value.Kind()))
	}
}

func firstString(value layering.Value) string {
	values := value.Strings()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Options returns a copy of the effective options.
func (a *Application) Options() layering.Map {
	return a.state.options.Clone()
}

// OptionKeys returns the lower-cased top-level option keys, sorted.
func (a *Application) OptionKeys() []string {
	return a.state.lowerKeys()
}

// HasOption reports whether a top-level key exists, ignoring case.
func (a *Application) HasOption(key string) bool {
	return a.state.has(key)
}

// Option returns the top-level value for key, ignoring case. The second result
// is false when the key is absent.
func (a *Application) Option(key string) (layering.Value, bool) {
	value, ok := a.state.lookup(key)
	if !ok {
		return layering.Value{}, false
	}
	return value.Clone(), true
}

// OptionValue is Option with the value converted to an untyped tree; absent
// keys yield nil.
func (a *Application) OptionValue(key string) any {
	value, ok := a.state.lookup(key)
	if !ok {
		return nil
	}
	return value.Any()
}

// Layers returns the layers that produced the current options, strongest
// first.
func (a *Application) Layers() []Layer {
	return a.stack.Layers()
}

// Trace resolves a dotted path against the effective options and reports what
// each layer held for it.
func (a *Application) Trace(path string) (any, Trace, error) {
	if path == "" {
		return nil, Trace{}, fmt.Errorf("appboot: trace path must not be empty")
	}
	trace := traceStack(a.stack, path)
	value, ok := layering.Lookup(a.state.options, path)
	if !ok {
		return nil, trace, fmt.Errorf("appboot: option %q not found", path)
	}
	return value.Any(), trace, nil
}

// SetIncludePaths prepends paths to the seeded search path. Paths from the
// includePaths option are managed by SetOptions instead.
func (a *Application) SetIncludePaths(paths ...string) {
	a.cfg.searchPath.Prepend(paths...)
}

// SetAutoloaderNamespaces registers namespaces on the autoloader.
func (a *Application) SetAutoloaderNamespaces(namespaces ...string) {
	a.cfg.autoloader.RegisterNamespace(namespaces...)
}

// SearchPath returns the search path in use.
func (a *Application) SearchPath() *SearchPath {
	return a.cfg.searchPath
}

// Autoloader returns the autoloader in use.
func (a *Application) Autoloader() *Autoloader {
	return a.cfg.autoloader
}

// Settings returns the settings applier in use.
func (a *Application) Settings() SettingsApplier {
	return a.cfg.settings
}

func (a *Application) log(entry LogEntry) {
	if entry.Environment == "" {
		entry.Environment = a.environment
	}
	a.cfg.logger.Log(entry)
}
