//go:build js_eval

package lexical

import (
	"errors"
	"testing"
	"time"
)

func TestJSEvaluatorExposesContext(t *testing.T) {
	ctx := RuleContext{
		Parameters: map[string]string{"culture": "de"},
		Key:        "culture:de:key:Title",
		Value:      "Titel",
	}
	got, err := NewJSEvaluator().Evaluate(ctx, `culture === "de" && value.length > 0`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("got %#v, want true", got)
	}
}

func TestJSEvaluatorInterruptsLongRuns(t *testing.T) {
	e := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	_, err := e.Evaluate(RuleContext{}, `(() => { while (true) {} })()`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != "js" {
		t.Fatalf("expected js EvaluationError, got %v", err)
	}
}
