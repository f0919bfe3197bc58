package lexical

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celMaxArity bounds the overloads declared for registry functions.
const celMaxArity = 3

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// celEvaluator runs expressions with cel-go. Parameters are only reachable
// through the params map (params.culture, has(params.n)) because CEL
// declares variables up front.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	env      *celgo.Env
	envErr   error
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.env, e.envErr = e.buildEnv()
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}
	return &celCompiledRule{program: program, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if e.envErr != nil {
		return nil, e.envErr
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}
	checked, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := e.env.Program(checked)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("params", celgo.MapType(celgo.StringType, celgo.StringType)),
		celgo.Variable("value", celgo.StringType),
		celgo.Variable("placeholder", celgo.BoolType),
		celgo.Variable("path", celgo.StringType),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	for _, name := range e.registryNames() {
		opts = append(opts, celgo.Function(name, e.overloads(name)...))
	}
	return celgo.NewEnv(opts...)
}

// overloads declares name for every arity up to celMaxArity, all dyn-typed.
func (e *celEvaluator) overloads(name string) []celgo.FunctionOpt {
	decls := make([]celgo.FunctionOpt, 0, celMaxArity+1)
	argTypes := []*celgo.Type{}
	for arity := 0; arity <= celMaxArity; arity++ {
		id := fmt.Sprintf("%s_dyn_%d", name, arity)
		decls = append(decls, celgo.Overload(id, append([]*celgo.Type(nil), argTypes...), celgo.DynType,
			celgo.FunctionBinding(e.binding(name))))
		argTypes = append(argTypes, celgo.DynType)
	}
	return decls
}

func (e *celEvaluator) binding(name string) func(values ...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		args := make([]any, 0, len(values))
		for _, val := range values {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

func (e *celEvaluator) registryNames() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	return e.registry.Names()
}

type celCompiledRule struct {
	program    celgo.Program
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	activation := map[string]any{
		"params":      ctx.Parameters,
		"value":       ctx.Value,
		"placeholder": ctx.Placeholder,
		"path":        ctx.Key,
		"now":         ctx.timestamp(),
		"args":        ctx.Args,
	}
	out, _, err := r.program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError("cel", r.expression, ctx.label(), err)
	}
	return out.Value(), nil
}
