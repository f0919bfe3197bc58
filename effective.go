package lexical

import (
	"maps"
	"slices"
	"sort"
	"strings"
)

// EffectiveKey is the order-normalized projection of a key: the canonical
// spine root→leaf, one entry per link, plus the last value of every
// non-canonical parameter. The structural root parameter is not part of it.
type EffectiveKey struct {
	Canonical    []Parameters
	NonCanonical map[string]string
}

// EffectiveKeyOf projects key through p.
func EffectiveKeyOf(p Parametrizer, key any) (EffectiveKey, error) {
	if p == nil {
		p = DefaultParametrizer()
	}
	if isNullKey(p, key) {
		return EffectiveKey{}, nil
	}
	spine, ok := canonicalSpine(p, key)
	if !ok {
		return EffectiveKey{}, wrapKeyError("effective-key", key, ErrAmbiguousParametrizer)
	}
	ek := EffectiveKey{}
	for i := len(spine) - 1; i >= 0; i-- {
		ek.Canonical = append(ek.Canonical, canonicalParameters(p, spine[i]))
	}
	projection, ok := NonCanonicalParameterComparer{}.project(p, key)
	if !ok {
		return EffectiveKey{}, wrapKeyError("effective-key", key, ErrAmbiguousParametrizer)
	}
	if len(projection) > 0 {
		ek.NonCanonical = projection
	}
	return ek, nil
}

// Equal reports whether both projections are identical, link by link.
func (ek EffectiveKey) Equal(other EffectiveKey) bool {
	if !maps.Equal(ek.NonCanonical, other.NonCanonical) {
		return false
	}
	return slices.EqualFunc(ek.Canonical, other.Canonical, func(a, b Parameters) bool {
		return slices.Equal(a, b)
	})
}

// String renders the projection deterministically: sorted non-canonical
// parameters, a bar, then the canonical spine.
func (ek EffectiveKey) String() string {
	names := make([]string, 0, len(ek.NonCanonical))
	for name := range ek.NonCanonical {
		names = append(names, name)
	}
	sort.Strings(names)
	nonCanonical := make(Parameters, len(names))
	for i, name := range names {
		nonCanonical[i] = Parameter{Name: name, Value: ek.NonCanonical[name], Canonicality: NonCanonical}
	}
	var spine Parameters
	for _, link := range ek.Canonical {
		spine = append(spine, link...)
	}
	var b strings.Builder
	b.WriteString(nonCanonical.String())
	b.WriteByte('|')
	b.WriteString(spine.String())
	return b.String()
}

// Key materializes the projection as a chain: non-canonical parameters in
// tree order followed by the canonical spine.
func (ek EffectiveKey) Key(infos ParameterInfos) *Key {
	if infos == nil {
		infos = defaultInfos
	}
	var nonCanonical Parameters
	for name, value := range ek.NonCanonical {
		nonCanonical = append(nonCanonical, Parameter{Name: name, Value: value, Canonicality: NonCanonical})
	}
	sortByPriority(nonCanonical, infos)
	k := EmptyKey(infos)
	for _, p := range nonCanonical {
		k = k.AppendParameter(p)
	}
	for _, link := range ek.Canonical {
		for _, p := range link {
			k = k.AppendParameter(p)
		}
	}
	return k
}

// sortByPriority orders non-canonical parameters for presentation: root,
// culture, then everything else by name.
func sortByPriority(params Parameters, infos ParameterInfos) {
	sort.SliceStable(params, func(i, j int) bool {
		pi, pj := infos.Priority(params[i].Name), infos.Priority(params[j].Name)
		if pi != pj {
			return pi < pj
		}
		return params[i].Name < params[j].Name
	})
}
