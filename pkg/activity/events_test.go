package activity

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	lexical "github.com/goliatone/go-lexical"
)

func TestBuildEntryEventMapsChange(t *testing.T) {
	meta := map[string]any{"source": "import"}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	input := EventInput{
		ActorID:    " actor ",
		Resource:   "messages.json",
		SnapshotID: "snap-1",
		Metadata:   meta,
		OccurredAt: at,
	}
	change := lexical.Change{
		Kind:      lexical.ChangeModified,
		Key:       "greeting:hello/culture:en",
		OldValues: []string{"Hi"},
		NewValues: []string{"Hello"},
	}

	event := BuildEntryEvent(input, change)

	want := Event{
		Verb:       VerbEntryModified,
		ActorID:    "actor",
		ObjectType: ObjectTypeEntry,
		ObjectID:   "messages.json#greeting:hello/culture:en",
		Metadata: map[string]any{
			"source":      "import",
			"resource":    "messages.json",
			"snapshot_id": "snap-1",
			"key":         "greeting:hello/culture:en",
			"old_values":  []string{"Hi"},
			"new_values":  []string{"Hello"},
		},
		OccurredAt: at,
	}
	if diff := cmp.Diff(want, event); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
	if _, ok := meta["key"]; ok {
		t.Fatalf("expected input metadata untouched: %+v", meta)
	}
}

func TestEntryVerb(t *testing.T) {
	cases := map[lexical.ChangeKind]string{
		lexical.ChangeAdded:    VerbEntryAdded,
		lexical.ChangeRemoved:  VerbEntryRemoved,
		lexical.ChangeModified: VerbEntryModified,
		lexical.ChangeRetained: VerbEntryRetained,
	}
	for kind, want := range cases {
		if got := EntryVerb(kind); got != want {
			t.Fatalf("EntryVerb(%q) = %q, want %q", kind, got, want)
		}
	}
}

func TestBuildEntryEventsFollowsReportOrder(t *testing.T) {
	report := lexical.Report{
		Flags: lexical.Add | lexical.Remove,
		Changes: []lexical.Change{
			{Kind: lexical.ChangeAdded, Key: "a"},
			{Kind: lexical.ChangeRemoved, Key: "b", OldValues: []string{"x"}},
		},
	}
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	events := BuildEntryEvents(EventInput{}, report)
	if err := emitter.EmitAll(context.Background(), events...); err != nil {
		t.Fatalf("emit: %v", err)
	}

	if diff := cmp.Diff([]string{VerbEntryAdded, VerbEntryRemoved}, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
	if capture.Events[1].ObjectID != "b" {
		t.Fatalf("expected bare key object id without resource, got %q", capture.Events[1].ObjectID)
	}
}

func TestBuildDocumentSavedEventCountsChanges(t *testing.T) {
	report := lexical.Report{
		Flags: lexical.Add | lexical.Modify,
		Changes: []lexical.Change{
			{Kind: lexical.ChangeAdded, Key: "a"},
			{Kind: lexical.ChangeAdded, Key: "b"},
			{Kind: lexical.ChangeModified, Key: "c"},
		},
	}

	event := BuildDocumentSavedEvent(EventInput{Resource: "messages.yaml"}, report)

	if event.Verb != VerbDocumentSaved || event.ObjectType != ObjectTypeDocument || event.ObjectID != "messages.yaml" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Metadata["added"] != 2 || event.Metadata["modified"] != 1 || event.Metadata["removed"] != 0 {
		t.Fatalf("unexpected counts: %+v", event.Metadata)
	}
	if event.Metadata["flags"] != report.Flags.String() {
		t.Fatalf("unexpected flags metadata: %v", event.Metadata["flags"])
	}

	fallback := BuildDocumentSavedEvent(EventInput{}, lexical.Report{})
	if fallback.ObjectID != ObjectTypeDocument {
		t.Fatalf("expected fallback object id, got %q", fallback.ObjectID)
	}
}
