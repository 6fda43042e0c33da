package appboot

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-appboot/layering"
	"github.com/goliatone/go-appboot/pkg/activity"
)

// Layer names used for the stack recorded by SetOptions.
const (
	ConfigLayerPrefix = "config"
	OptionsLayerName  = "options"
)

// configEntry is one element of the config option.
type configEntry struct {
	path string
	when string
}

func (a *Application) loadConfig(ctx context.Context, path string) (layering.Map, string, error) {
	resolved := path
	if found, ok := a.cfg.searchPath.Resolve(path); ok {
		resolved = found
	}

	start := time.Now()
	doc, err := a.cfg.loader.Load(ctx, resolved, a.environment)
	a.log(LogEntry{
		Stage:    StageConfig,
		Detail:   "load config",
		Fields:   map[string]any{"path": resolved},
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, resolved, configError("load", resolved, err)
	}
	if doc == nil {
		doc = layering.Map{}
	}
	a.emit(ctx, activity.BuildConfigLoadedEvent(a.eventInput(), resolved))
	return doc, resolved, nil
}

// buildStack resolves the config option of options into file layers and puts
// options itself on top. It also returns the resolved locations of the loaded
// config entries.
func (a *Application) buildStack(ctx context.Context, options layering.Map) (*Stack, []string, error) {
	if options == nil {
		options = layering.Map{}
	}

	entries, err := configEntries(options)
	if err != nil {
		return nil, nil, err
	}

	layers := make([]Layer, 0, len(entries)+1)
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.when != "" {
			ok, err := a.evaluateCondition(entry.when, options)
			if err != nil {
				return nil, nil, configError(opResolve, entry.path, err)
			}
			if !ok {
				a.log(LogEntry{
					Stage:  StageConfig,
					Detail: "skip config",
					Fields: map[string]any{"path": entry.path, "when": entry.when},
				})
				continue
			}
		}

		doc, resolved, err := a.loadConfig(ctx, entry.path)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, resolved)
		priority := len(layers) + 1
		layer := NewLayer(fmt.Sprintf("%s[%d]", ConfigLayerPrefix, priority-1), priority, doc).WithSource(entry.path)
		layers = append(layers, layer)
	}

	layers = append(layers, NewLayer(OptionsLayerName, len(layers)+1, options))
	stack, err := NewStack(layers...)
	if err != nil {
		return nil, nil, err
	}
	return stack, files, nil
}

// opResolve names failures while turning the config option into entries.
const opResolve = "resolve"

// configEntries reads the config option. It may be a path, a {path, when}
// entry, a sequence of either, or a map of either keyed by name. Named maps
// are read in sorted key order.
func configEntries(options layering.Map) ([]configEntry, error) {
	value, ok := newOptionState(options).lookup(KeyConfig)
	if !ok || value.IsEmpty() {
		return nil, nil
	}

	switch value.Kind() {
	case layering.KindSequence:
		return collectEntries(value.Items())
	case layering.KindMap:
		if isConditionalEntry(value.Map()) {
			entry, err := configEntryOf(value)
			if err != nil {
				return nil, err
			}
			return []configEntry{entry}, nil
		}
		fields := value.Map()
		items := make([]layering.Value, 0, len(fields))
		for _, key := range fields.Keys() {
			items = append(items, fields[key])
		}
		return collectEntries(items)
	default:
		entry, err := configEntryOf(value)
		if err != nil {
			return nil, err
		}
		return []configEntry{entry}, nil
	}
}

func collectEntries(items []layering.Value) ([]configEntry, error) {
	entries := make([]configEntry, 0, len(items))
	for _, item := range items {
		entry, err := configEntryOf(item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func isConditionalEntry(fields layering.Map) bool {
	_, ok := newOptionState(fields).lookup("path")
	return ok
}

// configEntryOf reads one entry: a path string or a {path, when} map.
func configEntryOf(value layering.Value) (configEntry, error) {
	switch value.Kind() {
	case layering.KindScalar:
		path, ok := value.Scalar().(string)
		if !ok || path == "" {
			return configEntry{}, configError(opResolve, "", fmt.Errorf("%w: config entry must be a path, got %T", ErrInvalidOptions, value.Scalar()))
		}
		return configEntry{path: path}, nil
	case layering.KindMap:
		return conditionalEntry(value.Map())
	default:
		return configEntry{}, configError(opResolve, "", fmt.Errorf("%w: config entry must be a path, got %s", ErrInvalidOptions, value.Kind()))
	}
}

func conditionalEntry(fields layering.Map) (configEntry, error) {
	state := newOptionState(fields)
	pathValue, _ := state.lookup("path")
	path, ok := pathValue.Scalar().(string)
	if !ok || path == "" {
		return configEntry{}, configError(opResolve, "", fmt.Errorf("%w: config entry requires a path", ErrInvalidOptions))
	}
	entry := configEntry{path: path}
	if whenValue, ok := state.lookup("when"); ok && !whenValue.IsEmpty() {
		when, ok := whenValue.Scalar().(string)
		if !ok {
			return configEntry{}, configError(opResolve, path, fmt.Errorf("%w: when must be an expression string", ErrInvalidOptions))
		}
		entry.when = when
	}
	return entry, nil
}
