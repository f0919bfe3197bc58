package lexical

import (
	"sort"
	"strings"
)

// Well-known parameter names.
const (
	ParameterRoot     = "root"
	ParameterCulture  = "culture"
	ParameterAssembly = "assembly"
	ParameterResource = "resource"
	ParameterLocation = "location"
	ParameterType     = "type"
	ParameterSection  = "section"
	ParameterKey      = "key"
	ParameterPlural   = "n"
)

// Canonicality tells how a parameter participates in key identity.
type Canonicality int

const (
	// Canonical parameters are positional: two keys are equal only when
	// equal canonical parameters occupy the same position in the chain.
	Canonical Canonicality = iota
	// NonCanonical parameters are contextual hints that may appear anywhere
	// in a chain. Only the occurrence closest to the leaf matters.
	NonCanonical
)

func (c Canonicality) String() string {
	switch c {
	case Canonical:
		return "canonical"
	case NonCanonical:
		return "non-canonical"
	default:
		return "unknown"
	}
}

// ParameterInfo describes a parameter name. Priority orders non-canonical
// parameters when a tree is built; lower values nest further out.
type ParameterInfo struct {
	Name         string
	Canonicality Canonicality
	Priority     int
}

// ParameterInfos is a registry of known parameters keyed by name.
type ParameterInfos map[string]ParameterInfo

// priorityUnset is assigned to parameters without an explicit priority so
// they sort after root and culture, then lexicographically.
const priorityUnset = 1000

// DefaultParameterInfos returns a fresh registry with the built-in
// parameters.
func DefaultParameterInfos() ParameterInfos {
	return ParameterInfos{
		ParameterRoot:     {Name: ParameterRoot, Canonicality: NonCanonical, Priority: 0},
		ParameterCulture:  {Name: ParameterCulture, Canonicality: NonCanonical, Priority: 1},
		ParameterAssembly: {Name: ParameterAssembly, Canonicality: NonCanonical, Priority: priorityUnset},
		ParameterResource: {Name: ParameterResource, Canonicality: NonCanonical, Priority: priorityUnset},
		ParameterLocation: {Name: ParameterLocation, Canonicality: NonCanonical, Priority: priorityUnset},
		ParameterPlural:   {Name: ParameterPlural, Canonicality: NonCanonical, Priority: priorityUnset},
		ParameterType:     {Name: ParameterType, Canonicality: Canonical, Priority: priorityUnset},
		ParameterSection:  {Name: ParameterSection, Canonicality: Canonical, Priority: priorityUnset},
		ParameterKey:      {Name: ParameterKey, Canonicality: Canonical, Priority: priorityUnset},
	}
}

// Canonicality returns the canonicality registered for name. Unknown names
// are canonical.
func (p ParameterInfos) Canonicality(name string) Canonicality {
	if info, ok := p[name]; ok {
		return info.Canonicality
	}
	return Canonical
}

// Recognized reports whether name is a registered parameter.
func (p ParameterInfos) Recognized(name string) bool {
	_, ok := p[name]
	return ok
}

// Priority returns the ordering priority of name.
func (p ParameterInfos) Priority(name string) int {
	if info, ok := p[name]; ok {
		return info.Priority
	}
	return priorityUnset
}

// With returns a copy of p that also contains info.
func (p ParameterInfos) With(info ParameterInfo) ParameterInfos {
	out := p.Clone()
	if out == nil {
		out = ParameterInfos{}
	}
	if info.Priority == 0 && info.Name != ParameterRoot {
		info.Priority = priorityUnset
	}
	out[info.Name] = info
	return out
}

// Clone returns a shallow copy of the registry.
func (p ParameterInfos) Clone() ParameterInfos {
	if p == nil {
		return nil
	}
	out := make(ParameterInfos, len(p))
	for name, info := range p {
		out[name] = info
	}
	return out
}

// Names returns the registered names sorted alphabetically.
func (p ParameterInfos) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parameter is one key part: a parameter name, its value and canonicality.
type Parameter struct {
	Name         string
	Value        string
	Canonicality Canonicality
}

// IsCanonical reports whether the parameter is positional.
func (p Parameter) IsCanonical() bool {
	return p.Canonicality == Canonical
}

// IsZero reports whether p carries no name and no value.
func (p Parameter) IsZero() bool {
	return p.Name == "" && p.Value == ""
}

// String renders the parameter as an escaped "name:value" segment.
func (p Parameter) String() string {
	var b strings.Builder
	writeEscaped(&b, p.Name)
	b.WriteByte(':')
	writeEscaped(&b, p.Value)
	return b.String()
}

// Parameters is a flat root→leaf parameter list. Format readers use it as a
// lightweight key before a chain is materialized.
type Parameters []Parameter

// Key converts the list into a chain.
func (ps Parameters) Key() *Key {
	var k *Key
	for _, p := range ps {
		k = k.AppendParameter(p)
	}
	return k
}

// String renders the list in the "name:value:name:value" text form.
func (ps Parameters) String() string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ":")
}

func writeEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ':' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
}

// ParseParameters parses the "name:value:name:value" text form. Colons and
// backslashes inside names or values are escaped with a backslash.
// Canonicality is resolved through infos; a nil registry uses the defaults.
func ParseParameters(text string, infos ParameterInfos) (Parameters, error) {
	if text == "" {
		return nil, nil
	}
	if infos == nil {
		infos = DefaultParameterInfos()
	}
	tokens, err := splitEscaped(text)
	if err != nil {
		return nil, err
	}
	if len(tokens)%2 != 0 {
		return nil, &KeyError{Op: "parse", Key: text, Err: ErrInvalidKey}
	}
	out := make(Parameters, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		name := tokens[i]
		if name == "" {
			return nil, &KeyError{Op: "parse", Key: text, Err: ErrInvalidKey}
		}
		out = append(out, Parameter{
			Name:         name,
			Value:        tokens[i+1],
			Canonicality: infos.Canonicality(name),
		})
	}
	return out, nil
}

func splitEscaped(text string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		escaped bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			current.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == ':':
			tokens = append(tokens, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if escaped {
		return nil, &KeyError{Op: "parse", Key: text, Err: ErrInvalidKey}
	}
	tokens = append(tokens, current.String())
	return tokens, nil
}
