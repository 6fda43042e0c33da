package appboot

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-appboot/layering"
)

// SettingsApplier receives process-wide settings as flattened dotted keys.
type SettingsApplier interface {
	Apply(key string, value any) error
}

// SettingsApplierFunc adapts a function to SettingsApplier.
type SettingsApplierFunc func(key string, value any) error

// Apply implements SettingsApplier.
func (f SettingsApplierFunc) Apply(key string, value any) error {
	if f == nil {
		return nil
	}
	return f(key, value)
}

// RuntimeSettings applies a small set of Go runtime knobs and records every
// key it receives:
//
//	gomaxprocs     runtime.GOMAXPROCS
//	gc.percent     debug.SetGCPercent
//	memory.limit   debug.SetMemoryLimit (bytes)
//	env.<NAME>     os.Setenv(NAME, value)
//
// Other keys are recorded only.
type RuntimeSettings struct {
	mu     sync.RWMutex
	values map[string]any
	setenv func(key, value string) error
}

// NewRuntimeSettings constructs an empty RuntimeSettings.
func NewRuntimeSettings() *RuntimeSettings {
	return &RuntimeSettings{
		values: map[string]any{},
		setenv: os.Setenv,
	}
}

// Apply implements SettingsApplier.
func (s *RuntimeSettings) Apply(key string, value any) error {
	lowered := strings.ToLower(key)
	switch {
	case lowered == "gomaxprocs":
		n, err := settingInt(value)
		if err != nil {
			return fmt.Errorf("setting %q: %w", key, err)
		}
		runtime.GOMAXPROCS(int(n))
	case lowered == "gc.percent":
		n, err := settingInt(value)
		if err != nil {
			return fmt.Errorf("setting %q: %w", key, err)
		}
		debug.SetGCPercent(int(n))
	case lowered == "memory.limit":
		n, err := settingInt(value)
		if err != nil {
			return fmt.Errorf("setting %q: %w", key, err)
		}
		debug.SetMemoryLimit(n)
	case strings.HasPrefix(lowered, "env."):
		name := key[len("env."):]
		if name == "" {
			return fmt.Errorf("setting %q: empty environment variable name", key)
		}
		if err := s.setenv(name, fmt.Sprint(value)); err != nil {
			return fmt.Errorf("setting %q: %w", key, err)
		}
	}

	s.mu.Lock()
	if s.values == nil {
		s.values = map[string]any{}
	}
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Get returns the value last applied for key.
func (s *RuntimeSettings) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// Values returns a copy of every applied setting.
func (s *RuntimeSettings) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

func settingInt(value any) (int64, error) {
	switch typed := value.(type) {
	case int:
		return int64(typed), nil
	case int64:
		return typed, nil
	case int32:
		return int64(typed), nil
	case uint:
		return unsignedSetting(uint64(typed))
	case uint32:
		return int64(typed), nil
	case uint64:
		return unsignedSetting(typed)
	case float64:
		if typed != math.Trunc(typed) || typed < math.MinInt64 || typed >= math.MaxInt64 {
			return 0, fmt.Errorf("%v is not an integer", typed)
		}
		return int64(typed), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
	default:
		return strconv.ParseInt(fmt.Sprint(value), 10, 64)
	}
}

func unsignedSetting(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, fmt.Errorf("%d overflows int64", value)
	}
	return int64(value), nil
}

// ApplySettings flattens settings into dotted keys and hands every scalar to
// the configured SettingsApplier. Sequences and nil values are skipped.
func (a *Application) ApplySettings(settings layering.Map) error {
	return a.applySettings(settings, "")
}

func (a *Application) applySettings(settings layering.Map, prefix string) error {
	for _, key := range settings.Keys() {
		value := settings[key]
		name := key
		if prefix != "" {
			name = prefix + layering.PathSeparator + key
		}
		switch value.Kind() {
		case layering.KindScalar:
			if value.Scalar() == nil {
				continue
			}
			err := a.cfg.settings.Apply(name, value.Scalar())
			a.log(LogEntry{
				Stage:  StageSettings,
				Detail: "apply setting",
				Fields: map[string]any{"key": name},
				Err:    err,
			})
			if err != nil {
				return configError("settings", name, err)
			}
		case layering.KindMap:
			if err := a.applySettings(value.Map(), name); err != nil {
				return err
			}
		}
	}
	return nil
}
