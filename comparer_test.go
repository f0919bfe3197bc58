package lexical

import (
	"testing"
)

func TestComparerEquality(t *testing.T) {
	cases := []struct {
		name  string
		x, y  string
		equal bool
	}{
		{"non-canonical position is ignored", "culture:de:key:A", "key:A:culture:de", true},
		{"last non-canonical occurrence wins", "culture:en:key:A:culture:de", "culture:de:key:A", true},
		{"non-canonical values differ", "culture:de:key:A", "culture:en:key:A", false},
		{"canonical order matters", "type:T:key:A", "key:A:type:T", false},
		{"canonical count differs", "type:T:key:A", "key:A", false},
		{"root parameter is structural", "root:lib:key:A", "key:A", true},
		{"plural participates", "key:A:n:One", "key:A", false},
		{"non-canonical between canonical links", "type:T:culture:de:key:A", "culture:de:type:T:key:A", true},
		{"identical", "assembly:App:type:T:section:S:key:A", "assembly:App:type:T:section:S:key:A", true},
	}
	c := DefaultComparer()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, y := mustParseKey(t, tc.x), mustParseKey(t, tc.y)
			if got := c.Equal(x, y); got != tc.equal {
				t.Fatalf("Equal(%s, %s) = %v, want %v", tc.x, tc.y, got, tc.equal)
			}
			if c.Equal(x, y) != c.Equal(y, x) {
				t.Fatalf("equality is not symmetric")
			}
			if tc.equal && c.Hash(x) != c.Hash(y) {
				t.Fatalf("equal keys hash differently: %d vs %d", c.Hash(x), c.Hash(y))
			}
		})
	}
}

func TestComparerNullSafety(t *testing.T) {
	c := DefaultComparer()
	k := NewKey(ParameterKey, "A")
	var empty *Key

	if !c.Equal(nil, nil) {
		t.Fatalf("Equal(nil, nil) must be true")
	}
	if c.Equal(nil, k) || c.Equal(k, nil) {
		t.Fatalf("Equal(nil, x) must be false")
	}
	if !c.Equal(empty, nil) {
		t.Fatalf("nil *Key must equal nil")
	}
	if c.Hash(nil) != 0 || c.Hash(empty) != 0 {
		t.Fatalf("null keys hash to zero")
	}

	root := NewBuilder().NewDocument().Root()
	for _, x := range []any{Parameters{}, root} {
		if !c.Equal(empty, x) || !c.Equal(x, nil) {
			t.Fatalf("%T without parts must equal the null key", x)
		}
		if c.Equal(x, k) {
			t.Fatalf("%T without parts must differ from %s", x, k)
		}
		if got := c.Hash(x); got != 0 {
			t.Fatalf("%T without parts hashes to %d, want 0", x, got)
		}
	}
}

func TestComparerAcrossRepresentations(t *testing.T) {
	key := mustParseKey(t, "type:Form:culture:de:key:Title")
	doc, err := Build(Lines{NewLine(key, "Titel")}.All())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var leaf Node
	doc.Walk(func(n Node) bool {
		if n.HasValues() {
			leaf = n
		}
		return true
	})
	c := DefaultComparer()
	if !c.Equal(key, leaf) {
		t.Fatalf("key should equal the node built from it")
	}
	if !c.Equal(leaf, key.Parameters()) {
		t.Fatalf("node should equal the parameters list")
	}
	if c.Hash(key) != c.Hash(leaf) || c.Hash(leaf) != c.Hash(key.Parameters()) {
		t.Fatalf("representations hash differently")
	}
}

func TestComparerRestrictedNonCanonicalNames(t *testing.T) {
	c := NewComparer(WithChainComparers(NonCanonicalParameterComparer{Names: []string{ParameterCulture}}))
	x := mustParseKey(t, "culture:de:key:A:n:One")
	y := mustParseKey(t, "culture:de:key:A")
	if !c.Equal(x, y) {
		t.Fatalf("plural should be ignored when not listed")
	}
	if c.Hash(x) != c.Hash(y) {
		t.Fatalf("hash must ignore unlisted names")
	}
	if c.Equal(x, mustParseKey(t, "culture:fi:key:A")) {
		t.Fatalf("culture is still compared")
	}
}

func TestComparerUnrecognizedKeys(t *testing.T) {
	c := DefaultComparer()
	if c.Equal("culture:de", "culture:de") {
		t.Fatalf("unrecognized keys never compare equal")
	}
	if c.Hash("culture:de") != 0 {
		t.Fatalf("unrecognized keys hash to zero")
	}
}

func TestEffectiveKey(t *testing.T) {
	key := mustParseKey(t, "key:A:root:lib:culture:en:type:T:culture:de")
	ek, err := EffectiveKeyOf(nil, key)
	if err != nil {
		t.Fatalf("effective key: %v", err)
	}
	if got := ek.String(); got != "culture:de|key:A:type:T" {
		t.Fatalf("unexpected effective key %q", got)
	}
	if got := ek.Key(nil).String(); got != "culture:de:key:A:type:T" {
		t.Fatalf("unexpected materialized key %q", got)
	}
	other, err := EffectiveKeyOf(nil, mustParseKey(t, "culture:de:key:A:type:T"))
	if err != nil {
		t.Fatalf("effective key: %v", err)
	}
	if !ek.Equal(other) {
		t.Fatalf("projections should match: %s vs %s", ek, other)
	}
	if !DefaultComparer().Equal(key, ek.Key(nil)) {
		t.Fatalf("materialized key must equal its source")
	}
}

func TestEffectiveKeyEqualKeepsLinkGrouping(t *testing.T) {
	a := Parameter{Name: "a", Value: "1", Canonicality: Canonical}
	b := Parameter{Name: "b", Value: "2", Canonicality: Canonical}
	joined := EffectiveKey{Canonical: []Parameters{{a, b}}}
	split := EffectiveKey{Canonical: []Parameters{{a}, {b}}}
	if joined.Equal(split) {
		t.Fatalf("%v and %v group parameters differently", joined.Canonical, split.Canonical)
	}
	if !joined.Equal(EffectiveKey{Canonical: []Parameters{{a, b}}, NonCanonical: map[string]string{}}) {
		t.Fatalf("an empty non-canonical map must equal a nil one")
	}
	withCulture := EffectiveKey{Canonical: []Parameters{{a, b}}, NonCanonical: map[string]string{ParameterCulture: "de"}}
	if joined.Equal(withCulture) {
		t.Fatalf("non-canonical parameters must take part in equality")
	}
}
