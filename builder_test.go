package lexical

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildDoc(t *testing.T, lines Lines, opts ...BuilderOption) *Document {
	t.Helper()
	doc, err := Build(lines.All(), opts...)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return doc
}

func line(t *testing.T, key, value string) Line {
	t.Helper()
	return NewLine(mustParseKey(t, key), value)
}

func nodeAt(t *testing.T, doc *Document, path string) Node {
	t.Helper()
	params := mustParseKey(t, path).Parameters()
	n := doc.Root()
	for _, p := range params {
		child, ok := n.Child(p)
		if !ok {
			t.Fatalf("no node at %q (missing %s under %q)", path, p, n)
		}
		n = child
	}
	return n
}

func TestBuilderPathOrdering(t *testing.T) {
	cases := []struct {
		name   string
		key    string
		marker string
		want   string
	}{
		{"non-canonical first", "type:Form:culture:de:key:Success", "", "culture:de:type:Form:key:Success"},
		{"priority then name", "key:A:n:One:culture:de:assembly:App:root:lib", "", "root:lib:culture:de:assembly:App:n:One:key:A"},
		{"root marker dropped", "root:lib:culture:de:key:A", "lib", "culture:de:key:A"},
		{"last occurrence kept", "culture:en:key:A:culture:de", "", "culture:de:key:A"},
		{"canonical order preserved", "section:B:type:T:section:A", "", "section:B:type:T:section:A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder(WithRootMarker(tc.marker))
			path, err := b.Path(mustParseKey(t, tc.key))
			if err != nil {
				t.Fatalf("path: %v", err)
			}
			if got := path.String(); got != tc.want {
				t.Fatalf("path = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildCollapsesSharedPrefixes(t *testing.T) {
	doc := buildDoc(t, Lines{
		line(t, "culture:de:type:Login:key:Success", "Erfolg"),
		line(t, "type:Login:culture:de:key:Failure", "Fehler"),
		line(t, "culture:fi:type:Login:key:Success", "Onnistui"),
	})
	root := doc.Root()
	if got := len(root.Children()); got != 2 {
		t.Fatalf("expected culture:de and culture:fi under root, got %d", got)
	}
	login := nodeAt(t, doc, "culture:de:type:Login")
	if got := len(login.Children()); got != 2 {
		t.Fatalf("expected two keys under culture:de/type:Login, got %d", got)
	}
	if diff := cmp.Diff([]string{"Fehler"}, nodeAt(t, doc, "culture:de:type:Login:key:Failure").Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if root.HasValues() {
		t.Fatalf("root never carries values")
	}
}

func TestBuildValuePolicy(t *testing.T) {
	lines := Lines{
		line(t, "key:A", "x"),
		line(t, "key:A", "x"),
		line(t, "key:A", "y"),
	}
	appended := buildDoc(t, lines)
	if diff := cmp.Diff([]string{"x", "x", "y"}, nodeAt(t, appended, "key:A").Values()); diff != "" {
		t.Fatalf("append policy mismatch (-want +got):\n%s", diff)
	}
	unique := buildDoc(t, lines, WithValuePolicy(UniqueValues))
	if diff := cmp.Diff([]string{"x", "y"}, nodeAt(t, unique, "key:A").Values()); diff != "" {
		t.Fatalf("unique policy mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPlaceholderLines(t *testing.T) {
	doc := buildDoc(t, Lines{
		PlaceholderLine(mustParseKey(t, "culture:de:type:Empty")),
		line(t, "culture:de:key:A", "a"),
	})
	empty := nodeAt(t, doc, "culture:de:type:Empty")
	if empty.HasValues() || empty.HasChildren() {
		t.Fatalf("placeholder should create a bare node")
	}

	var placeholders []string
	for l := range doc.Lines() {
		if l.Placeholder {
			placeholders = append(placeholders, l.Key.(*Key).String())
		}
	}
	if diff := cmp.Diff([]string{"culture:de:type:Empty"}, placeholders); diff != "" {
		t.Fatalf("placeholder lines mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRoundTripPreservesEffectiveKeys(t *testing.T) {
	input := Lines{
		line(t, "type:Form:culture:de:key:Title", "Titel"),
		line(t, "key:Title:type:Form", "Title"),
		line(t, "culture:en:type:Form:culture:fi:key:Title", "Otsikko"),
		line(t, "n:One:culture:de:key:Items", "{0} Eintrag"),
		line(t, "culture:de:n:Other:key:Items", "{0} Einträge"),
		line(t, "culture:de:key:Items", "{0} Einträge"),
		line(t, "key:Title:type:Form", "Title"),
	}
	doc := buildDoc(t, input)

	pairs := func(seq Lines) []string {
		var out []string
		for _, l := range seq {
			ek, err := EffectiveKeyOf(nil, l.Key)
			if err != nil {
				t.Fatalf("effective key: %v", err)
			}
			out = append(out, ek.String()+"="+l.Value)
		}
		sort.Strings(out)
		return out
	}
	if diff := cmp.Diff(pairs(input), pairs(CollectLines(doc.Lines()))); diff != "" {
		t.Fatalf("round trip mismatch (-input +flattened):\n%s", diff)
	}
}

func TestBuildFailsOnUnrecognizedKey(t *testing.T) {
	_, err := Build(Lines{NewLine(42, "x")}.All())
	if !errors.Is(err, ErrAmbiguousParametrizer) {
		t.Fatalf("expected ErrAmbiguousParametrizer, got %v", err)
	}
}

func TestBuildWithFilterAndLogger(t *testing.T) {
	var events []BuildLogEvent
	filter := NewFilter().Include(ParameterCulture, AnyOccurrence, "de", "")
	doc := buildDoc(t, Lines{
		line(t, "culture:de:key:A", "a"),
		line(t, "culture:fi:key:A", "b"),
		line(t, "key:A", "c"),
	},
		WithLineFilter(filter),
		WithBuildLogger(BuildLoggerFunc(func(e BuildLogEvent) { events = append(events, e) })),
	)
	if _, ok := doc.Root().Child(Parameter{Name: ParameterCulture, Value: "fi", Canonicality: NonCanonical}); ok {
		t.Fatalf("culture:fi should be filtered out")
	}
	if len(events) != 1 {
		t.Fatalf("expected one build event, got %d", len(events))
	}
	if events[0].Lines != 2 || events[0].Skipped != 1 || events[0].Err != nil {
		t.Fatalf("unexpected build event %+v", events[0])
	}
}

func TestBuildIntoRequiresDocument(t *testing.T) {
	if err := NewBuilder().BuildInto(nil, Lines{}.All()); err == nil {
		t.Fatalf("expected error for nil document")
	}
}

func TestBuildRejectsKeysWithoutParts(t *testing.T) {
	cases := []struct {
		name   string
		key    any
		marker string
	}{
		{"nil key", (*Key)(nil), ""},
		{"empty parameters", Parameters{}, ""},
		{"root marker only", NewKey(ParameterRoot, "lib"), "lib"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder(WithRootMarker(tc.marker))
			doc := b.NewDocument()
			err := b.BuildInto(doc, Lines{NewLine(tc.key, "orphan"), line(t, "key:A", "a")}.All())
			if !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("expected ErrInvalidKey, got %v", err)
			}
			if doc.Root().HasValues() {
				t.Fatalf("root must not carry values, got %q", doc.Root().Values())
			}
		})
	}
}
