package appboot

import (
	"time"

	"github.com/goliatone/go-appboot/config"
	"github.com/goliatone/go-appboot/pkg/activity"
)

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	Snapshot    any
	Environment string
	Now         *time.Time
	Args        map[string]any
	Metadata    map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) environmentLabel() string {
	if ctx.Environment != "" {
		return ctx.Environment
	}
	return "unknown"
}

// reservedBindings are names the evaluators always bind; snapshot keys with
// the same name are only reachable through options.
var reservedBindings = map[string]struct{}{
	"now":         {},
	"args":        {},
	"metadata":    {},
	"environment": {},
	"options":     {},
	"call":        {},
}

func isReservedBinding(name string) bool {
	_, ok := reservedBindings[name]
	return ok
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

type compiledRuleFunc func(RuleContext) (any, error)

func (f compiledRuleFunc) Evaluate(ctx RuleContext) (any, error) {
	return f(ctx)
}

// Option configures an Application.
type Option func(*applicationConfig)

type applicationConfig struct {
	loader          config.Loader
	settings        SettingsApplier
	searchPath      *SearchPath
	autoloader      *Autoloader
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          Logger
	activityHooks   activity.Hooks
	activityChannel string
	activityActor   string
	emitter         *activity.Emitter
}

func applyOptions(opts []Option) applicationConfig {
	cfg := applicationConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.loader == nil {
		cfg.loader = config.NewFileLoader()
	}
	if cfg.settings == nil {
		cfg.settings = NewRuntimeSettings()
	}
	if cfg.searchPath == nil {
		cfg.searchPath = NewSearchPath()
	}
	if cfg.autoloader == nil {
		cfg.autoloader = NewAutoloader()
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	cfg.emitter = activity.NewEmitter(cfg.activityHooks,
		activity.WithChannel(cfg.activityChannel),
		activity.WithActor(cfg.activityActor),
	)
	return cfg
}

// WithLoader replaces the config loader used for file sources and the config
// option.
func WithLoader(loader config.Loader) Option {
	return func(cfg *applicationConfig) {
		cfg.loader = loader
	}
}

// WithSettingsApplier replaces the applier that receives flattened settings.
func WithSettingsApplier(applier SettingsApplier) Option {
	return func(cfg *applicationConfig) {
		cfg.settings = applier
	}
}

// WithSearchPath installs a search path used to resolve relative config and
// bootstrap paths.
func WithSearchPath(path *SearchPath) Option {
	return func(cfg *applicationConfig) {
		cfg.searchPath = path
	}
}

// WithAutoloader installs the registry used to resolve bootstrap classes.
func WithAutoloader(autoloader *Autoloader) Option {
	return func(cfg *applicationConfig) {
		cfg.autoloader = autoloader
	}
}

// WithEvaluator configures the expression evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *applicationConfig) {
		cfg.evaluator = e
	}
}
