package layering

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type settings struct {
	Engine  string
	Flags   string
	Verbose *bool
	Require []string
	Args    map[string]any
	Output  *output
}

type output struct {
	Color  string
	Indent int
}

func boolPtr(v bool) *bool { return &v }

func TestMerge(t *testing.T) {
	defaults := settings{
		Engine:  "expr",
		Flags:   "update",
		Verbose: boolPtr(false),
		Require: []string{"culture"},
		Args:    map[string]any{"tenant": "acme", "region": "eu"},
		Output:  &output{Color: "auto", Indent: 2},
	}
	file := settings{
		Flags:   "add,modify",
		Args:    map[string]any{"region": "us"},
		Output:  &output{Indent: 4},
		Require: []string{"culture", "type"},
	}
	flags := settings{
		Engine:  "cel",
		Verbose: boolPtr(true),
	}

	cases := []struct {
		name   string
		layers []settings
		want   settings
	}{
		{name: "none", want: settings{}},
		{name: "single", layers: []settings{defaults}, want: defaults},
		{
			name:   "strongest wins",
			layers: []settings{flags, file, defaults},
			want: settings{
				Engine:  "cel",
				Flags:   "add,modify",
				Verbose: boolPtr(true),
				Require: []string{"culture", "type"},
				Args:    map[string]any{"tenant": "acme", "region": "us"},
				Output:  &output{Color: "auto", Indent: 4},
			},
		},
		{
			name:   "pointer override to false",
			layers: []settings{{Verbose: boolPtr(false)}, {Verbose: boolPtr(true)}},
			want:   settings{Verbose: boolPtr(false)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.layers...)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("merge mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	weak := settings{Args: map[string]any{"a": 1}, Require: []string{"culture"}}
	got := Merge(settings{}, weak)
	got.Args["a"] = 2
	got.Require[0] = "changed"
	if weak.Args["a"] != 1 || weak.Require[0] != "culture" {
		t.Fatalf("expected inputs untouched, got %+v", weak)
	}
}

func TestChainOrdersAndMerges(t *testing.T) {
	chain := NewChain(
		Layer[settings]{Name: "defaults", Level: LevelDefaults, Value: settings{Engine: "expr", Flags: "update"}},
		Layer[settings]{Name: "flags", Level: LevelFlags, Value: settings{Engine: "cel"}},
		Layer[settings]{Name: "stray", Level: LevelUnknown, Value: settings{Engine: "js"}},
		Layer[settings]{Name: "lexical.yaml", Level: LevelFile, Value: settings{Flags: "add"}},
		Layer[settings]{Name: "flags", Level: LevelFlags, Value: settings{Engine: "ignored"}},
	)

	if diff := cmp.Diff([]string{"flags", "lexical.yaml", "defaults"}, chain.Names()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	got := chain.Merge()
	if got.Engine != "cel" || got.Flags != "add" {
		t.Fatalf("unexpected merge: %+v", got)
	}
	ordered := chain.Ordered()
	ordered[0].Name = "mutated"
	if chain.Names()[0] != "flags" {
		t.Fatalf("expected Ordered to return a copy")
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []Level{LevelDefaults, LevelFile, LevelFlags} {
		if got := ParseLevel(" " + level.String() + " "); got != level {
			t.Fatalf("ParseLevel(%q) = %v", level.String(), got)
		}
	}
	if ParseLevel("user") != LevelUnknown || LevelUnknown.String() != "unknown" {
		t.Fatalf("expected unknown level")
	}
}
