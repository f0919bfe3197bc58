package lexical

import "time"

// DefaultJSTimeout bounds a single JS filter evaluation.
const DefaultJSTimeout = 250 * time.Millisecond

// JSEvaluatorOption configures the JS evaluator. Options are accepted in
// every build so callers compile without the js_eval tag.
type JSEvaluatorOption func(*jsOptions)

type jsOptions struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// JSWithProgramCache wires a ProgramCache into the JS evaluator.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(o *jsOptions) {
		o.cache = cache
	}
}

// JSWithFunctionRegistry exposes registry functions as JS globals.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(o *jsOptions) {
		if registry != nil {
			o.registry = registry.Clone()
		}
	}
}

// JSWithTimeout interrupts evaluations running longer than d. Zero or
// negative disables the limit.
func JSWithTimeout(d time.Duration) JSEvaluatorOption {
	return func(o *jsOptions) {
		o.timeout = d
	}
}

func newJSOptions(opts []JSEvaluatorOption) jsOptions {
	o := jsOptions{timeout: DefaultJSTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
