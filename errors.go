package lexical

import (
	"errors"
	"fmt"
)

var (
	// ErrAmbiguousParametrizer indicates that no parametrizer recognized a key
	// or one of its parts.
	ErrAmbiguousParametrizer = errors.New("lexical: no parametrizer recognizes key")
	// ErrInvalidKey indicates a malformed key text.
	ErrInvalidKey = errors.New("lexical: invalid key")
	// ErrMissingParameter indicates a required parameter is absent. Format
	// readers return it; the builder itself skips absent values.
	ErrMissingParameter = errors.New("lexical: missing required parameter")
	// ErrOverwriteWithoutAdd flags the legacy Overwrite-only combination that
	// always yields an empty document.
	ErrOverwriteWithoutAdd = errors.New("lexical: overwrite without add produces an empty document")
	// ErrConflictingRemoveFlags flags Remove combined with RemoveCautious.
	ErrConflictingRemoveFlags = errors.New("lexical: remove and remove-cautious are both set")
)

// KeyError captures the key involved in a failed operation.
type KeyError struct {
	Op  string
	Key string
	Err error
}

func (e *KeyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Key == "" {
		return fmt.Sprintf("lexical: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("lexical: %s key=%q: %v", e.Op, e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapKeyError(op string, key any, err error) error {
	if err == nil {
		return nil
	}
	if keyErr, ok := err.(*KeyError); ok && keyErr.Op == "" {
		wrapped := *keyErr
		wrapped.Op = op
		return &wrapped
	}
	// Keep the outer context when a key is already attached further down.
	var keyErr *KeyError
	if errors.As(err, &keyErr) {
		return err
	}
	return &KeyError{Op: op, Key: describeKey(key), Err: err}
}

func describeKey(key any) string {
	switch k := key.(type) {
	case nil:
		return ""
	case *Key:
		return k.String()
	case Parameters:
		return k.String()
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprintf("%T", key)
	}
}
