package lexical

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-lexical/internal/multimap"
)

// AnyOccurrence matches a rule against every occurrence of a parameter name.
const AnyOccurrence = -1

// Engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// NewEvaluator returns the evaluator registered for engine. An empty engine
// selects expr; js requires the js_eval build tag.
func NewEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry)), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

type ruleSlot struct {
	name       string
	occurrence int
}

type valueRule struct {
	values  map[string]struct{}
	exclude bool
}

type expressionRule struct {
	source string
	rule   CompiledRule
}

// Filter is a LineFilter combining value rules with expression rules.
//
// Value rules are grouped by (parameter name, occurrence). Within a group a
// line passes when one of its values appears in an include rule (if any)
// and none appears in an exclude rule; the empty string stands for "name
// absent". Groups and expressions must all pass.
type Filter struct {
	rules       *multimap.Map[ruleSlot, valueRule]
	expressions []expressionRule
	evaluator   Evaluator
	logger      EvaluatorLogger
	args        map[string]any
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// WithFilterEvaluator sets the evaluator used for expression rules.
func WithFilterEvaluator(evaluator Evaluator) FilterOption {
	return func(f *Filter) {
		if evaluator != nil {
			f.evaluator = evaluator
		}
	}
}

// WithEvaluatorLogger records each expression evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) FilterOption {
	return func(f *Filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithFilterArgs exposes args to expressions as the args variable.
func WithFilterArgs(args map[string]any) FilterOption {
	return func(f *Filter) {
		f.args = args
	}
}

// NewFilter returns a filter that accepts every line until rules are added.
func NewFilter(opts ...FilterOption) *Filter {
	f := &Filter{
		rules:  multimap.New[ruleSlot, valueRule](),
		logger: noopEvaluatorLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.evaluator == nil {
		f.evaluator = NewExprEvaluator(ExprWithProgramCache(&MapProgramCache{}))
	}
	return f
}

// Include admits lines whose parameter name (at occurrence) has one of values.
func (f *Filter) Include(name string, occurrence int, values ...string) *Filter {
	f.rules.Add(ruleSlot{name: name, occurrence: occurrence}, valueRule{values: valueSet(values)})
	return f
}

// Exclude rejects lines whose parameter name (at occurrence) has one of values.
func (f *Filter) Exclude(name string, occurrence int, values ...string) *Filter {
	f.rules.Add(ruleSlot{name: name, occurrence: occurrence}, valueRule{values: valueSet(values), exclude: true})
	return f
}

// Where adds an expression that must evaluate to true.
func (f *Filter) Where(expression string) error {
	if f.evaluator == nil {
		return ErrNoEvaluator
	}
	rule, err := f.evaluator.Compile(expression)
	if err != nil {
		return err
	}
	f.expressions = append(f.expressions, expressionRule{source: expression, rule: rule})
	return nil
}

// Empty reports whether the filter has no rules.
func (f *Filter) Empty() bool {
	return f == nil || (f.rules.Len() == 0 && len(f.expressions) == 0)
}

// Allow implements LineFilter.
func (f *Filter) Allow(line Line, params Parameters) (bool, error) {
	if f.Empty() {
		return true, nil
	}
	for _, slot := range f.rules.Keys() {
		if !slotAllows(f.rules.Get(slot), occurrences(params, slot)) {
			return false, nil
		}
	}
	if len(f.expressions) == 0 {
		return true, nil
	}
	ctx := NewRuleContext(line, params)
	ctx.Args = f.args
	engine := evaluatorEngineName(f.evaluator)
	for _, expr := range f.expressions {
		start := time.Now()
		result, err := expr.rule.Evaluate(ctx)
		if err == nil {
			if _, ok := result.(bool); !ok {
				err = &EvaluationError{
					Engine: engine,
					Expr:   expr.source,
					Key:    ctx.label(),
					Err:    fmt.Errorf("expression returned %T, want bool", result),
				}
			}
		}
		f.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expr.source,
			Key:      ctx.label(),
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			return false, err
		}
		if !result.(bool) {
			return false, nil
		}
	}
	return true, nil
}

// occurrences collects the values slot refers to; "" marks an absent name.
func occurrences(params Parameters, slot ruleSlot) []string {
	var values []string
	index := 0
	for _, p := range params {
		if p.Name != slot.name {
			continue
		}
		if slot.occurrence == AnyOccurrence || slot.occurrence == index {
			values = append(values, p.Value)
		}
		index++
	}
	if len(values) == 0 {
		return []string{""}
	}
	return values
}

func slotAllows(rules []valueRule, values []string) bool {
	included, hasInclude := false, false
	for _, rule := range rules {
		for _, value := range values {
			_, hit := rule.values[value]
			if rule.exclude && hit {
				return false
			}
			if !rule.exclude && hit {
				included = true
			}
		}
		if !rule.exclude {
			hasInclude = true
		}
	}
	return !hasInclude || included
}

func valueSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
