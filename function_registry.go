package appboot

import (
	"fmt"
	"strings"
)

// Function is a helper callable from expressions, either directly by name or
// through call("name", args...).
type Function func(args ...any) (any, error)

// FunctionRegistry holds expression helpers. Names are case-insensitive and
// may not shadow a reserved binding such as options or now.
type FunctionRegistry struct {
	entries *registry[Function]
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{entries: newRegistry[Function]("function", strings.ToLower)}
}

// Register adds fn under name.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("appboot: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("appboot: function %q is nil", name)
	case isReservedBinding(strings.ToLower(name)):
		return fmt.Errorf("appboot: function name %q is reserved", name)
	}
	return r.entries.add(name, fn)
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("appboot: function %q not registered", name)
	}
	fn, ok := r.entries.get(name)
	if !ok {
		return nil, fmt.Errorf("appboot: function %q not registered", name)
	}
	return fn(args...)
}

// Names lists the registered names, lower-cased and sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return r.entries.names()
}

// Clone copies the registry so later registrations do not leak between
// evaluators.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	return &FunctionRegistry{entries: r.entries.clone()}
}

// WithFunctionRegistry exposes a copy of registry to the application's
// expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *applicationConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction adds a single helper. Invalid or duplicate names are
// skipped.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *applicationConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
