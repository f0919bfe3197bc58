package lexical

import (
	"hash/fnv"
	"slices"
)

const (
	hashBasis uint64 = 14695981039346656037
	hashPrime uint64 = 1099511628211
)

// PartComparer compares one link of the canonical spine.
type PartComparer interface {
	EqualParts(p Parametrizer, x, y any) bool
	HashPart(p Parametrizer, part any) uint64
}

// ChainComparer compares a position-independent projection of a whole chain.
type ChainComparer interface {
	EqualChains(p Parametrizer, x, y any) bool
	HashChain(p Parametrizer, key any) uint64
}

// Comparer decides key identity. Non-canonical comparers run over the whole
// chain first; then the canonical spine is compared link by link from the
// leaf toward the root, skipping links that carry no canonical parameter.
//
// Any two keys for which Equal reports true hash to the same value.
type Comparer struct {
	parametrizer Parametrizer
	parts        []PartComparer
	chains       []ChainComparer
}

// ComparerOption configures a Comparer.
type ComparerOption func(*Comparer)

// WithComparerParametrizer sets the parametrizer used to read keys.
func WithComparerParametrizer(p Parametrizer) ComparerOption {
	return func(c *Comparer) {
		if p != nil {
			c.parametrizer = p
		}
	}
}

// WithPartComparers replaces the canonical link comparers.
func WithPartComparers(comparers ...PartComparer) ComparerOption {
	return func(c *Comparer) {
		c.parts = compact(comparers)
	}
}

// WithChainComparers replaces the non-canonical chain comparers.
func WithChainComparers(comparers ...ChainComparer) ComparerOption {
	return func(c *Comparer) {
		c.chains = compact(comparers)
	}
}

// NewComparer builds a comparer. Without options it uses the default
// parametrizer, CanonicalParameterComparer and a NonCanonicalParameterComparer
// over every non-canonical parameter except root.
func NewComparer(opts ...ComparerOption) *Comparer {
	c := &Comparer{
		parametrizer: DefaultParametrizer(),
		parts:        []PartComparer{CanonicalParameterComparer{}},
		chains:       []ChainComparer{NonCanonicalParameterComparer{}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// DefaultComparer returns the comparer used when none is configured.
func DefaultComparer() *Comparer {
	return defaultComparer
}

var defaultComparer = NewComparer()

// Parametrizer returns the parametrizer the comparer reads keys with.
func (c *Comparer) Parametrizer() Parametrizer {
	return c.parametrizer
}

// Equal reports whether x and y identify the same entry.
func (c *Comparer) Equal(x, y any) bool {
	xNull, yNull := isNullKey(c.parametrizer, x), isNullKey(c.parametrizer, y)
	if xNull || yNull {
		return xNull && yNull
	}
	p := c.parametrizer
	for _, cc := range c.chains {
		if !cc.EqualChains(p, x, y) {
			return false
		}
	}
	xs, ok := canonicalSpine(p, x)
	if !ok {
		return false
	}
	ys, ok := canonicalSpine(p, y)
	if !ok || len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		for _, pc := range c.parts {
			if !pc.EqualParts(p, xs[i], ys[i]) {
				return false
			}
		}
	}
	return true
}

// Hash returns a hash consistent with Equal.
func (c *Comparer) Hash(x any) uint64 {
	if isNullKey(c.parametrizer, x) {
		return 0
	}
	p := c.parametrizer
	h := hashBasis
	spine, ok := canonicalSpine(p, x)
	if !ok {
		return 0
	}
	for _, part := range spine {
		for _, pc := range c.parts {
			h ^= pc.HashPart(p, part)
			h *= hashPrime
		}
	}
	for _, cc := range c.chains {
		h ^= cc.HashChain(p, x)
	}
	return h
}

// isNullKey reports whether x carries no parts: nil, an empty chain, empty
// Parameters or a root node.
func isNullKey(p Parametrizer, x any) bool {
	if x == nil {
		return true
	}
	if k, ok := x.(*Key); ok {
		return k.isEmpty()
	}
	parts, ok := p.Parts(x)
	return ok && len(parts) == 0
}

// canonicalSpine walks from the leaf toward the root and collects the links
// that carry at least one canonical parameter, leaf first.
func canonicalSpine(p Parametrizer, key any) ([]any, bool) {
	parts, ok := p.Parts(key)
	if !ok {
		return nil, false
	}
	if len(parts) == 0 {
		return nil, true
	}
	var spine []any
	for cur := parts[len(parts)-1]; cur != nil; {
		if len(canonicalParameters(p, cur)) > 0 {
			spine = append(spine, cur)
		}
		prev, ok := p.Previous(cur)
		if !ok {
			return nil, false
		}
		cur = prev
	}
	return spine, true
}

func canonicalParameters(p Parametrizer, part any) Parameters {
	names, _ := p.ParameterNames(part)
	var out Parameters
	for _, name := range names {
		if canonical, ok := p.IsCanonical(part, name); !ok || !canonical {
			continue
		}
		value, ok := p.ParameterValue(part, name)
		if !ok {
			continue
		}
		out = append(out, Parameter{Name: name, Value: value, Canonicality: Canonical})
	}
	return out
}

// CanonicalParameterComparer requires two links to carry the same canonical
// parameters with the same values in the same order.
type CanonicalParameterComparer struct{}

func (CanonicalParameterComparer) EqualParts(p Parametrizer, x, y any) bool {
	xs, ys := canonicalParameters(p, x), canonicalParameters(p, y)
	return slices.Equal(xs, ys)
}

func (CanonicalParameterComparer) HashPart(p Parametrizer, part any) uint64 {
	h := hashBasis
	for _, param := range canonicalParameters(p, part) {
		h ^= hashParameter(param.Name, param.Value)
		h *= hashPrime
	}
	return h
}

// NonCanonicalParameterComparer compares the last value of each non-canonical
// parameter across the whole chain, independent of position. Names limits
// the comparison to the listed parameters; when empty every non-canonical
// parameter except root participates.
type NonCanonicalParameterComparer struct {
	Names []string
}

func (c NonCanonicalParameterComparer) EqualChains(p Parametrizer, x, y any) bool {
	xs, ok := c.project(p, x)
	if !ok {
		return false
	}
	ys, ok := c.project(p, y)
	if !ok || len(xs) != len(ys) {
		return false
	}
	for name, value := range xs {
		if other, ok := ys[name]; !ok || other != value {
			return false
		}
	}
	return true
}

func (c NonCanonicalParameterComparer) HashChain(p Parametrizer, key any) uint64 {
	projection, _ := c.project(p, key)
	var h uint64
	for name, value := range projection {
		h ^= hashParameter(name, value)
	}
	return h
}

func (c NonCanonicalParameterComparer) project(p Parametrizer, key any) (map[string]string, bool) {
	parts, ok := p.Parts(key)
	if !ok {
		return nil, false
	}
	out := map[string]string{}
	for _, part := range parts {
		names, ok := p.ParameterNames(part)
		if !ok {
			return nil, false
		}
		for _, name := range names {
			if !c.includes(name) {
				continue
			}
			if canonical, ok := p.IsCanonical(part, name); !ok || canonical {
				continue
			}
			if value, ok := p.ParameterValue(part, name); ok {
				out[name] = value
			}
		}
	}
	return out, true
}

func (c NonCanonicalParameterComparer) includes(name string) bool {
	if len(c.Names) == 0 {
		return name != ParameterRoot
	}
	return slices.Contains(c.Names, name)
}

func hashParameter(name, value string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(value))
	return h.Sum64()
}

func compact[T comparable](in []T) []T {
	var zero T
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != zero {
			out = append(out, v)
		}
	}
	return out
}
