package appboot

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs expressions with github.com/expr-lang/expr. Programs are
// compiled against an open environment so any binding may be referenced.
type exprEvaluator struct {
	engineConfig
}

// NewExprEvaluator constructs the default Evaluator.
func NewExprEvaluator(opts ...EngineOption) Evaluator {
	return &exprEvaluator{engineConfig: newEngineConfig(opts)}
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if err := requireExpression(EngineExpr, expression); err != nil {
		return nil, err
	}
	ctx = ctx.withDefaults()
	compiled, err := e.compile(expression)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, ctx.environmentLabel(), err)
	}
	return e.run(ctx, expression, compiled)
}

// Compile checks expression once; the returned rule skips compilation.
func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if err := requireExpression(EngineExpr, expression); err != nil {
		return nil, err
	}
	compiled, err := e.compile(expression)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, "", err)
	}
	return compiledRuleFunc(func(ctx RuleContext) (any, error) {
		return e.run(ctx.withDefaults(), expression, compiled)
	}), nil
}

func (e *exprEvaluator) compile(expression string) (*exprvm.Program, error) {
	return cachedProgram(e.engineConfig, "expr:"+expression, func() (*exprvm.Program, error) {
		options := []exprlang.Option{
			exprlang.Env(map[string]any{}),
			exprlang.AllowUndefinedVariables(),
		}
		for _, name := range e.functionNames() {
			fn := name
			options = append(options, exprlang.Function(fn, func(args ...any) (any, error) {
				return e.call(fn, args...)
			}))
		}
		return exprlang.Compile(expression, options...)
	})
}

func (e *exprEvaluator) run(ctx RuleContext, expression string, compiled *exprvm.Program) (any, error) {
	env := ctx.bindings()
	if e.registry != nil {
		env["call"] = e.call
	}
	result, err := exprlang.Run(compiled, env)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, ctx.environmentLabel(), err)
	}
	return result, nil
}
