package lexical

// Parametrizer extracts parts and parameters from an opaque key value. It is
// the single seam that lets the comparer, builder and reconciler work over
// several key representations. Every method reports whether the input was
// recognized so a CompositeParametrizer can fall through to the next
// component.
type Parametrizer interface {
	// Parts breaks key into its parts ordered root→leaf.
	Parts(key any) ([]any, bool)
	// Previous returns the part toward the root. The bool is false when part
	// is not recognized; a recognized root part returns (nil, true).
	Previous(part any) (any, bool)
	// ParameterNames lists the parameter names carried by part.
	ParameterNames(part any) ([]string, bool)
	// ParameterValue returns the value of name in part. A recognized part
	// without that parameter returns ("", false).
	ParameterValue(part any, name string) (string, bool)
	// IsCanonical returns (canonical, recognized) for name in part.
	IsCanonical(part any, name string) (bool, bool)
	// TryCreatePart returns a new chain extending chain with name=value.
	TryCreatePart(chain any, name, value string, c Canonicality) (any, bool)
}

// Break returns the parameters of key root→leaf. Parameters without a value
// are skipped. It fails with ErrAmbiguousParametrizer when key, or any of its
// parts, is not recognized, since a partial key breaks positional
// comparison.
func Break(p Parametrizer, key any) (Parameters, error) {
	if p == nil {
		p = DefaultParametrizer()
	}
	parts, ok := p.Parts(key)
	if !ok {
		return nil, wrapKeyError("break", key, ErrAmbiguousParametrizer)
	}
	out := make(Parameters, 0, len(parts))
	for _, part := range parts {
		names, ok := p.ParameterNames(part)
		if !ok {
			return nil, wrapKeyError("break", key, ErrAmbiguousParametrizer)
		}
		for _, name := range names {
			value, ok := p.ParameterValue(part, name)
			if !ok {
				continue
			}
			canonical, ok := p.IsCanonical(part, name)
			if !ok {
				return nil, wrapKeyError("break", key, ErrAmbiguousParametrizer)
			}
			param := Parameter{Name: name, Value: value, Canonicality: NonCanonical}
			if canonical {
				param.Canonicality = Canonical
			}
			out = append(out, param)
		}
	}
	return out, nil
}

// DefaultParametrizer recognizes *Key, Node and Parameters keys.
func DefaultParametrizer() Parametrizer {
	return defaultParametrizer
}

var defaultParametrizer = NewCompositeParametrizer(KeyParametrizer{}, NodeParametrizer{}, ParametersParametrizer{})

// KeyParametrizer handles *Key chains. Every link is one part carrying one
// parameter.
type KeyParametrizer struct{}

var _ Parametrizer = KeyParametrizer{}

func (KeyParametrizer) Parts(key any) ([]any, bool) {
	k, ok := key.(*Key)
	if !ok {
		return nil, false
	}
	links := k.Parts()
	out := make([]any, len(links))
	for i, link := range links {
		out[i] = link
	}
	return out, true
}

func (KeyParametrizer) Previous(part any) (any, bool) {
	k, ok := part.(*Key)
	if !ok {
		return nil, false
	}
	prev := k.Previous()
	if prev == nil {
		return nil, true
	}
	return prev, true
}

func (KeyParametrizer) ParameterNames(part any) ([]string, bool) {
	k, ok := part.(*Key)
	if !ok {
		return nil, false
	}
	if k.isEmpty() {
		return nil, true
	}
	return []string{k.param.Name}, true
}

func (KeyParametrizer) ParameterValue(part any, name string) (string, bool) {
	k, ok := part.(*Key)
	if !ok || k.isEmpty() || k.param.Name != name {
		return "", false
	}
	return k.param.Value, true
}

func (KeyParametrizer) IsCanonical(part any, name string) (bool, bool) {
	k, ok := part.(*Key)
	if !ok || k.isEmpty() || k.param.Name != name {
		return false, false
	}
	return k.param.IsCanonical(), true
}

func (KeyParametrizer) TryCreatePart(chain any, name, value string, c Canonicality) (any, bool) {
	k, ok := chain.(*Key)
	if !ok && chain != nil {
		return nil, false
	}
	return k.AppendParameter(Parameter{Name: name, Value: value, Canonicality: c}), true
}

// NodeParametrizer treats a tree node as a key: its parts are the ancestors
// from below the root down to the node itself.
type NodeParametrizer struct{}

var _ Parametrizer = NodeParametrizer{}

func (NodeParametrizer) Parts(key any) ([]any, bool) {
	n, ok := key.(Node)
	if !ok || n.doc == nil {
		return nil, false
	}
	path := n.Path()
	out := make([]any, len(path))
	for i, step := range path {
		out[i] = step
	}
	return out, true
}

func (NodeParametrizer) Previous(part any) (any, bool) {
	n, ok := part.(Node)
	if !ok || n.doc == nil {
		return nil, false
	}
	parent, ok := n.Parent()
	if !ok || parent.IsRoot() {
		return nil, true
	}
	return parent, true
}

func (NodeParametrizer) ParameterNames(part any) ([]string, bool) {
	n, ok := part.(Node)
	if !ok || n.doc == nil {
		return nil, false
	}
	if n.IsRoot() {
		return nil, true
	}
	return []string{n.Parameter().Name}, true
}

func (NodeParametrizer) ParameterValue(part any, name string) (string, bool) {
	n, ok := part.(Node)
	if !ok || n.doc == nil || n.IsRoot() {
		return "", false
	}
	p := n.Parameter()
	if p.Name != name {
		return "", false
	}
	return p.Value, true
}

func (NodeParametrizer) IsCanonical(part any, name string) (bool, bool) {
	n, ok := part.(Node)
	if !ok || n.doc == nil || n.IsRoot() {
		return false, false
	}
	p := n.Parameter()
	if p.Name != name {
		return false, false
	}
	return p.IsCanonical(), true
}

func (NodeParametrizer) TryCreatePart(chain any, name, value string, c Canonicality) (any, bool) {
	n, ok := chain.(Node)
	if !ok || n.doc == nil {
		return nil, false
	}
	return n.GetOrCreate(Parameter{Name: name, Value: value, Canonicality: c}), true
}

// ParametersParametrizer handles flat Parameters lists.
type ParametersParametrizer struct{}

var _ Parametrizer = ParametersParametrizer{}

type parametersPart struct {
	list  Parameters
	index int
}

func (ParametersParametrizer) Parts(key any) ([]any, bool) {
	list, ok := key.(Parameters)
	if !ok {
		return nil, false
	}
	out := make([]any, len(list))
	for i := range list {
		out[i] = parametersPart{list: list, index: i}
	}
	return out, true
}

func (ParametersParametrizer) Previous(part any) (any, bool) {
	p, ok := part.(parametersPart)
	if !ok {
		return nil, false
	}
	if p.index == 0 {
		return nil, true
	}
	return parametersPart{list: p.list, index: p.index - 1}, true
}

func (ParametersParametrizer) ParameterNames(part any) ([]string, bool) {
	p, ok := part.(parametersPart)
	if !ok {
		return nil, false
	}
	return []string{p.list[p.index].Name}, true
}

func (ParametersParametrizer) ParameterValue(part any, name string) (string, bool) {
	p, ok := part.(parametersPart)
	if !ok || p.list[p.index].Name != name {
		return "", false
	}
	return p.list[p.index].Value, true
}

func (ParametersParametrizer) IsCanonical(part any, name string) (bool, bool) {
	p, ok := part.(parametersPart)
	if !ok || p.list[p.index].Name != name {
		return false, false
	}
	return p.list[p.index].IsCanonical(), true
}

func (ParametersParametrizer) TryCreatePart(chain any, name, value string, c Canonicality) (any, bool) {
	list, ok := chain.(Parameters)
	if !ok && chain != nil {
		return nil, false
	}
	out := make(Parameters, len(list), len(list)+1)
	copy(out, list)
	return append(out, Parameter{Name: name, Value: value, Canonicality: c}), true
}

// CompositeParametrizer queries its components in order and returns the
// first recognized answer. Later components never override an earlier one.
type CompositeParametrizer struct {
	components []Parametrizer
}

var _ Parametrizer = (*CompositeParametrizer)(nil)

// NewCompositeParametrizer builds a composite over components. Nil entries
// are dropped.
func NewCompositeParametrizer(components ...Parametrizer) *CompositeParametrizer {
	out := make([]Parametrizer, 0, len(components))
	for _, c := range components {
		if c != nil {
			out = append(out, c)
		}
	}
	return &CompositeParametrizer{components: out}
}

// Components returns a copy of the component list.
func (c *CompositeParametrizer) Components() []Parametrizer {
	return append([]Parametrizer(nil), c.components...)
}

func (c *CompositeParametrizer) Parts(key any) ([]any, bool) {
	for _, p := range c.components {
		if parts, ok := p.Parts(key); ok {
			return parts, true
		}
	}
	return nil, false
}

func (c *CompositeParametrizer) Previous(part any) (any, bool) {
	for _, p := range c.components {
		if prev, ok := p.Previous(part); ok {
			return prev, true
		}
	}
	return nil, false
}

func (c *CompositeParametrizer) ParameterNames(part any) ([]string, bool) {
	for _, p := range c.components {
		if names, ok := p.ParameterNames(part); ok {
			return names, true
		}
	}
	return nil, false
}

func (c *CompositeParametrizer) ParameterValue(part any, name string) (string, bool) {
	for _, p := range c.components {
		if value, ok := p.ParameterValue(part, name); ok {
			return value, true
		}
	}
	return "", false
}

func (c *CompositeParametrizer) IsCanonical(part any, name string) (bool, bool) {
	for _, p := range c.components {
		if canonical, ok := p.IsCanonical(part, name); ok {
			return canonical, true
		}
	}
	return false, false
}

func (c *CompositeParametrizer) TryCreatePart(chain any, name, value string, canonical Canonicality) (any, bool) {
	for _, p := range c.components {
		if part, ok := p.TryCreatePart(chain, name, value, canonical); ok {
			return part, true
		}
	}
	return nil, false
}
