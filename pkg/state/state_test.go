package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRefIdentifier(t *testing.T) {
	cases := []struct {
		name     string
		resource string
		want     string
		wantErr  bool
	}{
		{name: "plain", resource: "messages.json", want: "messages.json"},
		{name: "nested", resource: "app/./locales/messages.yaml", want: "app/locales/messages.yaml"},
		{name: "backslashes", resource: `app\messages.json`, want: "app/messages.json"},
		{name: "inner parent", resource: "app/../messages.json", want: "messages.json"},
		{name: "empty", resource: "  ", wantErr: true},
		{name: "absolute", resource: "/etc/messages.json", wantErr: true},
		{name: "escape", resource: "../messages.json", wantErr: true},
		{name: "dot", resource: ".", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Ref{Resource: tc.resource}.Identifier()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidRef) {
					t.Fatalf("expected ErrInvalidRef, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("identifier: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMergeMetaPrefersOverride(t *testing.T) {
	base := Meta{SnapshotID: "a", ETag: "e1", Extra: map[string]string{"k": "v"}}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := mergeMeta(base, Meta{SnapshotID: "b", UpdatedAt: at})
	want := Meta{SnapshotID: "b", ETag: "e1", UpdatedAt: at, Extra: map[string]string{"k": "v"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ref := Ref{Resource: "messages.json"}

	if _, _, ok, err := store.Load(ctx, ref); err != nil || ok {
		t.Fatalf("expected missing record, ok=%v err=%v", ok, err)
	}

	extra := map[string]string{"source": "test"}
	saved, err := store.Save(ctx, ref, []byte(`{"a":"b"}`), Meta{SnapshotID: "s1", Extra: extra})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ETag != ContentETag([]byte(`{"a":"b"}`)) {
		t.Fatalf("expected content etag, got %q", saved.ETag)
	}
	if saved.UpdatedAt.IsZero() {
		t.Fatalf("expected updated_at to be stamped")
	}
	extra["source"] = "mutated"

	data, meta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(data) != `{"a":"b"}` {
		t.Fatalf("unexpected data %q", data)
	}
	if meta.SnapshotID != "s1" || meta.Extra["source"] != "test" {
		t.Fatalf("expected meta cloned on save, got %+v", meta)
	}
	if diff := cmp.Diff([]string{"messages.json"}, store.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.Save(ctx, Ref{}, nil, Meta{}); !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("expected ErrInvalidRef, got %v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)
	ctx := context.Background()
	ref := Ref{Resource: "locales/messages.json"}

	if _, _, ok, err := store.Load(ctx, ref); err != nil || ok {
		t.Fatalf("expected missing file, ok=%v err=%v", ok, err)
	}

	saved, err := store.Save(ctx, ref, []byte("{}\n"), Meta{SnapshotID: "s1"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "locales", "messages.json.meta.json")); err != nil {
		t.Fatalf("expected meta sidecar: %v", err)
	}

	data, meta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(data) != "{}\n" {
		t.Fatalf("unexpected data %q", data)
	}
	if meta.SnapshotID != "s1" || meta.ETag != saved.ETag {
		t.Fatalf("unexpected meta %+v, saved %+v", meta, saved)
	}

	// An edit behind the store's back changes the etag.
	name, err := store.Path(ref)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if err := os.WriteFile(name, []byte(`{"a":"b"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, edited, _, err := store.Load(ctx, ref)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if edited.ETag == saved.ETag {
		t.Fatalf("expected etag to follow file content")
	}
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewFileStore(t.TempDir())
	if _, err := store.Save(ctx, Ref{Resource: "m.json"}, nil, Meta{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFileStoreSkipMeta(t *testing.T) {
	root := t.TempDir()
	store := &FileStore{Root: root, SkipMeta: true}
	ctx := context.Background()
	ref := Ref{Resource: "messages.yaml"}

	if _, err := store.Save(ctx, ref, []byte("a: b\n"), Meta{SnapshotID: "s1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "messages.yaml.meta.json")); !os.IsNotExist(err) {
		t.Fatalf("expected no sidecar, got %v", err)
	}
	_, meta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if meta.SnapshotID != "" || meta.ETag == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("unexpected meta %+v", meta)
	}
}
