package lexical

import (
	"errors"
	"time"
)

// ErrNoEvaluator indicates an expression rule without a usable evaluator.
var ErrNoEvaluator = errors.New("lexical: evaluator not configured")

// Evaluator executes filter expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// RuleContext carries the line being filtered. Parameters holds the value
// closest to the leaf for every parameter name of the key.
type RuleContext struct {
	Parameters  map[string]string
	Key         string
	Value       string
	Placeholder bool
	Now         *time.Time
	Args        map[string]any
}

// NewRuleContext derives a context from a line and its broken parameters.
func NewRuleContext(line Line, params Parameters) RuleContext {
	values := make(map[string]string, len(params))
	for _, p := range params {
		values[p.Name] = p.Value
	}
	return RuleContext{
		Parameters:  values,
		Key:         params.String(),
		Value:       line.Value,
		Placeholder: line.Placeholder,
	}
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Parameters == nil {
		ctx.Parameters = map[string]string{}
	}
	return ctx
}

func (ctx RuleContext) label() string {
	if ctx.Key == "" {
		return "<root>"
	}
	return ctx.Key
}

// environment exposes the context to expression engines. Parameter names
// become top-level variables; params, value, placeholder, path, now and args
// are always present and win over parameters of the same name.
func (ctx RuleContext) environment() map[string]any {
	params := make(map[string]any, len(ctx.Parameters))
	env := make(map[string]any, len(ctx.Parameters)+6)
	for name, value := range ctx.Parameters {
		params[name] = value
		env[name] = value
	}
	env["params"] = params
	env["value"] = ctx.Value
	env["placeholder"] = ctx.Placeholder
	env["path"] = ctx.Key
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	return env
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}
