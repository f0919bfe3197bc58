package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	lexical "github.com/goliatone/go-lexical"
	"github.com/goliatone/go-lexical/pkg/activity"
	"github.com/goliatone/go-lexical/pkg/state"
)

func lines(t *testing.T, pairs ...string) lexical.Lines {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("lines: odd number of arguments")
	}
	var out lexical.Lines
	for i := 0; i < len(pairs); i += 2 {
		key, err := lexical.ParseKey(pairs[i])
		if err != nil {
			t.Fatalf("parse %q: %v", pairs[i], err)
		}
		out = append(out, lexical.NewLine(key, pairs[i+1]))
	}
	return out
}

func stored(t *testing.T, store state.Store, ref state.Ref) string {
	t.Helper()
	data, _, ok, err := store.Load(context.Background(), ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	return string(data)
}

func TestSessionWriteCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	session := &state.Session{Store: store}
	ref := state.Ref{Resource: "messages.json"}

	first, err := session.Write(ctx, ref, lines(t,
		"key:Greeting", "Hello",
		"culture:de:key:Greeting", "Hallo",
	).All(), lexical.Add, state.Meta{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !first.Saved || first.Meta.SnapshotID == "" || first.Meta.ETag == "" {
		t.Fatalf("expected saved result with meta, got %+v", first.Meta)
	}
	if first.Report.Count(lexical.ChangeAdded) != 2 {
		t.Fatalf("expected two additions, got %+v", first.Report.Changes)
	}
	want := "{\n  \"culture:de\": {\n    \"key:Greeting\": \"Hallo\"\n  },\n  \"key:Greeting\": \"Hello\"\n}\n"
	if diff := cmp.Diff(want, stored(t, store, ref)); diff != "" {
		t.Fatalf("stored document mismatch (-want +got):\n%s", diff)
	}

	second, err := session.Write(ctx, ref, lines(t,
		"culture:de:key:Greeting", "Guten Tag",
	).All(), lexical.Modify, state.Meta{ETag: first.Meta.ETag})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if second.Report.Count(lexical.ChangeModified) != 1 {
		t.Fatalf("expected one modification, got %+v", second.Report.Changes)
	}
	if second.Meta.SnapshotID == first.Meta.SnapshotID {
		t.Fatalf("expected a fresh snapshot id")
	}

	doc, meta, err := session.Read(ctx, ref)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if meta.ETag != second.Meta.ETag {
		t.Fatalf("expected read etag %q, got %q", second.Meta.ETag, meta.ETag)
	}
	var got []string
	for line := range doc.Lines() {
		got = append(got, line.Value)
	}
	if diff := cmp.Diff([]string{"Guten Tag", "Hello"}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionWriteRejectsStaleETag(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	session := &state.Session{Store: store}
	ref := state.Ref{Resource: "messages.json"}

	if _, err := session.Write(ctx, ref, lines(t, "key:A", "a").All(), lexical.Add, state.Meta{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := session.Write(ctx, ref, lines(t, "key:B", "b").All(), lexical.Add, state.Meta{ETag: "stale"})
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
}

func TestSessionPlanDoesNotSave(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	session := &state.Session{Store: store}
	ref := state.Ref{Resource: "messages.yaml"}

	result, err := session.Plan(ctx, ref, lines(t, "key:A", "a").All(), lexical.Add)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if result.Saved || !result.Changed() || len(result.After) == 0 {
		t.Fatalf("unexpected plan result: saved=%v changed=%v", result.Saved, result.Changed())
	}
	if len(store.Keys()) != 0 {
		t.Fatalf("expected nothing stored, got %v", store.Keys())
	}
}

func TestSessionSkipsUnchangedWrite(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	capture := &activity.CaptureHook{}
	session := &state.Session{
		Store:   store,
		Emitter: activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true}),
	}
	ref := state.Ref{Resource: "messages.json"}
	input := lines(t, "key:A", "a")

	first, err := session.Write(ctx, ref, input.All(), lexical.WriteUpdate, state.Meta{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	again, err := session.Write(ctx, ref, input.All(), lexical.WriteUpdate, state.Meta{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if again.Saved || again.Changed() {
		t.Fatalf("expected idempotent write to skip saving")
	}
	if again.Meta.SnapshotID != first.Meta.SnapshotID {
		t.Fatalf("expected stored meta to be reported unchanged")
	}
	if diff := cmp.Diff([]string{activity.VerbEntryAdded, activity.VerbDocumentSaved}, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionEmitsEntryEvents(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	capture := &activity.CaptureHook{}
	session := &state.Session{
		Store:   store,
		Emitter: activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true}),
		Events:  activity.EventInput{ActorID: "ci"},
	}
	ref := state.Ref{Resource: "messages.json"}

	if _, err := session.Write(ctx, ref, lines(t, "key:A", "a", "key:B", "b").All(), lexical.Add, state.Meta{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	capture.Events = nil

	result, err := session.Write(ctx, ref, lines(t, "key:A", "a2").All(), lexical.Modify|lexical.Remove, state.Meta{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []string{activity.VerbEntryModified, activity.VerbEntryRemoved, activity.VerbDocumentSaved}
	if diff := cmp.Diff(want, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
	for _, event := range capture.Events {
		if event.ActorID != "ci" || event.Channel != activity.DefaultChannel {
			t.Fatalf("unexpected event identity: %+v", event)
		}
		if event.Metadata["snapshot_id"] != result.Meta.SnapshotID {
			t.Fatalf("expected snapshot id on %s, got %v", event.Verb, event.Metadata["snapshot_id"])
		}
	}
	if capture.Events[0].ObjectID != "messages.json#key:A" {
		t.Fatalf("unexpected object id %q", capture.Events[0].ObjectID)
	}
}

func TestSessionReturnsSavedResultWhenEmitFails(t *testing.T) {
	errHook := errors.New("hook failed")
	store := state.NewMemoryStore()
	session := &state.Session{
		Store: store,
		Emitter: activity.NewEmitter(activity.Hooks{activity.HookFunc(func(context.Context, activity.Event) error {
			return errHook
		})}, activity.Config{Enabled: true}),
	}

	result, err := session.Write(context.Background(), state.Ref{Resource: "m.json"}, lines(t, "key:A", "a").All(), lexical.Add, state.Meta{})
	if !errors.Is(err, errHook) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if !result.Saved {
		t.Fatalf("expected write to be persisted despite hook failure")
	}
}

func TestSessionRejectsUnknownFormat(t *testing.T) {
	session := &state.Session{Store: state.NewMemoryStore()}
	_, err := session.Write(context.Background(), state.Ref{Resource: "m.txt"}, lines(t, "key:A", "a").All(), lexical.Add, state.Meta{})
	if err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestSessionPreservesForeignContent(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	ref := state.Ref{Resource: "messages.json"}
	seed := []byte("{\n  \"$schema\": \"lexical\",\n  \"key:Old\": \"x\"\n}\n")
	if _, err := store.Save(ctx, ref, seed, state.Meta{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	session := &state.Session{Store: store}

	result, err := session.Write(ctx, ref, lines(t, "key:New", "y").All(), lexical.Add|lexical.RemoveCautious, state.Meta{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "{\n  \"$schema\": \"lexical\",\n  \"key:New\": \"y\"\n}\n"
	if diff := cmp.Diff(want, string(result.After)); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}
