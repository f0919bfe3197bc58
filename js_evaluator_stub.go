//go:build !js_eval

package lexical

// NewJSEvaluator returns nil unless built with the js_eval tag.
func NewJSEvaluator(...JSEvaluatorOption) Evaluator {
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
