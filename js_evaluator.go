//go:build js_eval

package appboot

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs expressions with goja. Each evaluation gets a fresh
// runtime; compiled programs are shared.
type jsEvaluator struct {
	engineConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return &jsEvaluator{engineConfig: newEngineConfig(opts)}
}

// Engine names the evaluator in logs and errors.
func (e *jsEvaluator) Engine() string {
	return EngineJS
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if err := requireExpression(EngineJS, expression); err != nil {
		return nil, err
	}
	ctx = ctx.withDefaults()
	prg, err := e.compile(expression)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, ctx.environmentLabel(), err)
	}
	return e.run(ctx, expression, prg)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if err := requireExpression(EngineJS, expression); err != nil {
		return nil, err
	}
	prg, err := e.compile(expression)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, "", err)
	}
	return compiledRuleFunc(func(ctx RuleContext) (any, error) {
		return e.run(ctx.withDefaults(), expression, prg)
	}), nil
}

func (e *jsEvaluator) compile(expression string) (*goja.Program, error) {
	return cachedProgram(e.engineConfig, "js:"+expression, func() (*goja.Program, error) {
		return goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	})
}

func (e *jsEvaluator) run(ctx RuleContext, expression string, prg *goja.Program) (any, error) {
	vm := goja.New()
	if err := e.bind(vm, ctx); err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, ctx.environmentLabel(), err)
	}
	value, err := vm.RunProgram(prg)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, ctx.environmentLabel(), err)
	}
	return value.Export(), nil
}

func (e *jsEvaluator) bind(vm *goja.Runtime, ctx RuleContext) error {
	for key, value := range ctx.bindings() {
		if err := vm.Set(key, value); err != nil {
			return err
		}
	}
	if e.registry == nil {
		return nil
	}
	if err := vm.Set("call", e.call); err != nil {
		return err
	}
	for _, name := range e.functionNames() {
		fn := name
		if err := vm.Set(fn, func(args ...any) (any, error) {
			return e.call(fn, args...)
		}); err != nil {
			return err
		}
	}
	return nil
}

func jsEvaluatorAvailable() bool {
	return true
}
