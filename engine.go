package appboot

import (
	"fmt"
	"strings"
)

// Expression engines understood by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// EngineOption configures the built-in evaluators.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// WithEngineCache stores compiled programs in cache.
func WithEngineCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// WithEngineFunctions makes the functions in registry callable by name and
// through call(name, args...). The registry is copied.
func WithEngineFunctions(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func newEngineConfig(opts []EngineOption) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// NewEvaluator builds the evaluator for engine; an empty engine selects expr.
// js needs the js_eval build tag.
func NewEvaluator(engine string, opts ...EngineOption) (Evaluator, error) {
	var evaluator Evaluator
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		evaluator = NewExprEvaluator(opts...)
	case EngineCEL:
		evaluator = NewCELEvaluator(opts...)
	case EngineJS:
		evaluator = NewJSEvaluator(opts...)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: %s engine unavailable in this build", ErrNoEvaluator, engine)
	}
	return evaluator, nil
}

// cachedProgram returns the cached program for key, compiling and storing it on a
// miss. Cached entries of another type are recompiled.
func cachedProgram[P any](cfg engineConfig, key string, compile func() (P, error)) (P, error) {
	if cfg.cache != nil {
		if cached, ok := cfg.cache.Get(key); ok {
			if program, ok := cached.(P); ok {
				return program, nil
			}
		}
	}
	compiled, err := compile()
	if err != nil {
		return compiled, err
	}
	if cfg.cache != nil {
		cfg.cache.Set(key, compiled)
	}
	return compiled, nil
}

// call dispatches to a registered function.
func (cfg engineConfig) call(name string, args ...any) (any, error) {
	return cfg.registry.Call(name, args...)
}

func (cfg engineConfig) functionNames() []string {
	if cfg.registry == nil {
		return nil
	}
	return cfg.registry.Names()
}

func requireExpression(engine, expression string) error {
	if strings.TrimSpace(expression) == "" {
		return &EvaluationError{Engine: engine, Err: ErrEmptyExpression}
	}
	return nil
}
