package format

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-lexical"
)

// Require checks that every line of doc carries each of names. It returns
// one joined error per offending line, each wrapping
// lexical.ErrMissingParameter.
func Require(doc *lexical.Document, names ...string) error {
	if doc == nil || len(names) == 0 {
		return nil
	}
	var errs []error
	for line := range doc.Lines() {
		key, ok := line.Key.(*lexical.Key)
		if !ok {
			continue
		}
		for _, name := range names {
			if _, found := key.Find(name); !found {
				errs = append(errs, &lexical.KeyError{
					Op:  "require",
					Key: key.String(),
					Err: fmt.Errorf("%w: %s", lexical.ErrMissingParameter, name),
				})
			}
		}
	}
	return errors.Join(errs...)
}
