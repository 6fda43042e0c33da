package appboot

import (
	"fmt"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celMaxArity bounds the overloads declared for registered functions.
const celMaxArity = 3

// celEvaluator runs expressions with cel-go. Variables are declared from the
// bindings of each evaluation, so checking happens on first use.
type celEvaluator struct {
	engineConfig
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	return &celEvaluator{engineConfig: newEngineConfig(opts)}
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if err := requireExpression(EngineCEL, expression); err != nil {
		return nil, err
	}
	ctx = ctx.withDefaults()
	activation := ctx.bindings()
	prg, err := e.compile(expression, activation)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, ctx.environmentLabel(), err)
	}
	out, _, err := prg.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, ctx.environmentLabel(), err)
	}
	return out.Value(), nil
}

// Compile only validates that expression is non-empty; declarations depend
// on the bindings seen at evaluation time.
func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if err := requireExpression(EngineCEL, expression); err != nil {
		return nil, err
	}
	return compiledRuleFunc(func(ctx RuleContext) (any, error) {
		return e.Evaluate(ctx, expression)
	}), nil
}

// compile caches programs per expression and declared variable set.
func (e *celEvaluator) compile(expression string, activation map[string]any) (celgo.Program, error) {
	names := make([]string, 0, len(activation))
	for name := range activation {
		names = append(names, name)
	}
	sort.Strings(names)

	key := "cel:" + strings.Join(names, ",") + ":" + expression
	return cachedProgram(e.engineConfig, key, func() (celgo.Program, error) {
		env, err := e.environment(names)
		if err != nil {
			return nil, err
		}
		ast, issues := env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, issues.Err()
		}
		return env.Program(ast)
	})
}

func (e *celEvaluator) environment(names []string) (*celgo.Env, error) {
	opts := make([]celgo.EnvOption, 0, len(names)+2)
	for _, name := range names {
		switch name {
		case "now":
			opts = append(opts, celgo.Variable(name, celgo.TimestampType))
		case "environment":
			opts = append(opts, celgo.Variable(name, celgo.StringType))
		default:
			opts = append(opts, celgo.Variable(name, celgo.DynType))
		}
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", e.overloads("call", true)...))
		for _, name := range e.functionNames() {
			opts = append(opts, celgo.Function(name, e.overloads(name, false)...))
		}
	}
	return celgo.NewEnv(opts...)
}

// overloads declares name for 1 to celMaxArity dynamic arguments. The call
// dispatcher takes the function name as a leading string argument.
func (e *celEvaluator) overloads(name string, dispatcher bool) []celgo.FunctionOpt {
	out := make([]celgo.FunctionOpt, 0, celMaxArity)
	for arity := 1; arity <= celMaxArity; arity++ {
		args := make([]*celgo.Type, arity)
		for i := range args {
			args[i] = celgo.DynType
		}
		if dispatcher {
			args[0] = celgo.StringType
		}
		out = append(out, celgo.Overload(
			fmt.Sprintf("%s_%d", name, arity),
			args,
			celgo.DynType,
			celgo.FunctionBinding(e.binding(name, dispatcher)),
		))
	}
	return out
}

func (e *celEvaluator) binding(name string, dispatcher bool) func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		target := name
		if dispatcher {
			fn, ok := values[0].Value().(string)
			if !ok {
				return types.NewErr("appboot: call name must be string")
			}
			target, values = fn, values[1:]
		}
		args := make([]any, 0, len(values))
		for _, val := range values {
			args = append(args, val.Value())
		}
		result, err := e.call(target, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
