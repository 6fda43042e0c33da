package appboot

import (
	"time"

	"github.com/goliatone/go-appboot/layering"
)

// Evaluate executes expr against the effective options using the configured
// evaluator and wraps the result.
func (a *Application) Evaluate(expr string) (Response[any], error) {
	return a.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith executes expr using ctx, falling back to the effective options
// when ctx.Snapshot is nil and to the application environment when
// ctx.Environment is empty.
func (a *Application) EvaluateWith(ctx RuleContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, ErrEmptyExpression
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = a.state.options.ToAny()
	}
	value, err := a.evaluate(ctx, expr)
	if err != nil {
		return Response[any]{}, err
	}
	return Response[any]{Value: value}, nil
}

// evaluateCondition reports whether expr is truthy against options. nil,
// false, zero numbers, empty strings and empty collections are falsy.
func (a *Application) evaluateCondition(expr string, options layering.Map) (bool, error) {
	value, err := a.evaluate(RuleContext{Snapshot: options.ToAny()}, expr)
	if err != nil {
		return false, err
	}
	return !layering.FromAny(value).IsEmpty(), nil
}

func (a *Application) evaluate(ctx RuleContext, expr string) (any, error) {
	evaluator, err := a.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	if ctx.Environment == "" {
		ctx.Environment = a.environment
	}
	ctx = ctx.withDefaults()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	evalErr = wrapEvaluationError(engine, expr, ctx.environmentLabel(), evalErr)
	a.log(LogEntry{
		Stage:       StageEvaluate,
		Environment: ctx.Environment,
		Detail:      "evaluate",
		Fields:      map[string]any{"engine": engine, "expr": expr},
		Duration:    time.Since(start),
		Err:         evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (a *Application) resolveEvaluator() (Evaluator, error) {
	if a.cfg.evaluator != nil {
		return a.cfg.evaluator, nil
	}
	evaluator, err := a.EngineEvaluator(EngineExpr)
	if err != nil {
		return nil, err
	}
	a.cfg.evaluator = evaluator
	return evaluator, nil
}

// EngineEvaluator builds the evaluator for engine ("expr", "cel" or "js")
// sharing the application's program cache and functions.
func (a *Application) EngineEvaluator(engine string) (Evaluator, error) {
	return NewEvaluator(engine, WithEngineCache(a.cfg.programCache), WithEngineFunctions(a.cfg.functions))
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	default:
		if name, ok := e.(interface{ Engine() string }); ok {
			return name.Engine()
		}
		return "custom"
	}
}

// bindings builds the variables visible to an expression. Snapshot keys are
// exposed directly unless they shadow a reserved name; the whole snapshot is
// always reachable as options.
func (ctx RuleContext) bindings() map[string]any {
	ctx = ctx.withDefaults()
	snapshot := snapshotAsMap(ctx.Snapshot)
	env := make(map[string]any, len(snapshot)+len(reservedBindings))
	for key, value := range snapshot {
		if isReservedBinding(key) {
			continue
		}
		env[key] = value
	}
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	env["environment"] = ctx.Environment
	env["options"] = snapshot
	return env
}

func snapshotAsMap(value any) map[string]any {
	switch typed := value.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return typed
	case layering.Map:
		if out := typed.ToAny(); out != nil {
			return out
		}
		return map[string]any{}
	default:
		return map[string]any{}
	}
}
