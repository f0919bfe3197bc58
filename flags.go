package lexical

import (
	"errors"
	"fmt"
	"strings"
)

// WriteFlags controls how Reconcile merges a new document into an old one.
type WriteFlags uint8

const (
	// Add creates entries present only in the new document.
	Add WriteFlags = 1 << iota
	// Remove deletes entries present only in the old document.
	Remove
	// RemoveCautious is Remove that keeps entries whose subtree holds
	// unrecognized content. It takes precedence over Remove.
	RemoveCautious
	// Modify replaces the values of entries present in both documents.
	Modify
	// Overwrite replaces the old document with the new one. Without Add the
	// result is an empty document.
	Overwrite
	// EffectiveKeyMatching matches entries by effective key instead of by
	// identical tree position.
	EffectiveKeyMatching
)

// Common combinations.
const (
	// WriteUpdate adds, modifies and cautiously removes entries matched by
	// effective key.
	WriteUpdate = Add | RemoveCautious | Modify | EffectiveKeyMatching
	// WriteReplace discards the old document.
	WriteReplace = Overwrite | Add
)

var flagNames = []struct {
	flag WriteFlags
	name string
}{
	{Add, "add"},
	{Remove, "remove"},
	{RemoveCautious, "remove-cautious"},
	{Modify, "modify"},
	{Overwrite, "overwrite"},
	{EffectiveKeyMatching, "effective-key"},
}

// Has reports whether every bit of flag is set.
func (f WriteFlags) Has(flag WriteFlags) bool {
	return f&flag == flag
}

func (f WriteFlags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, entry := range flagNames {
		if f.Has(entry.flag) {
			names = append(names, entry.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseWriteFlags parses names separated by "|" or ",". Surrounding spaces
// and case are ignored; "none" and the empty string parse to zero.
func ParseWriteFlags(text string) (WriteFlags, error) {
	var out WriteFlags
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == '|' || r == ',' })
	for _, field := range fields {
		name := strings.ToLower(strings.TrimSpace(field))
		if name == "" || name == "none" {
			continue
		}
		found := false
		for _, entry := range flagNames {
			if entry.name == name {
				out |= entry.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("lexical: unknown write flag %q", name)
		}
	}
	return out, nil
}

// Lint reports combinations that are legal but almost certainly unintended.
// Reconcile does not call it; the legacy behaviour of each combination is
// preserved.
func (f WriteFlags) Lint() error {
	var errs []error
	if f.Has(Overwrite) && !f.Has(Add) {
		errs = append(errs, ErrOverwriteWithoutAdd)
	}
	if f.Has(Remove) && f.Has(RemoveCautious) {
		errs = append(errs, ErrConflictingRemoveFlags)
	}
	return errors.Join(errs...)
}

func (f WriteFlags) removes() bool {
	return f.Has(Remove) || f.Has(RemoveCautious)
}
