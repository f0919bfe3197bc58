package state

import (
	"bytes"
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"

	lexical "github.com/goliatone/go-lexical"
	"github.com/goliatone/go-lexical/format"
	"github.com/goliatone/go-lexical/pkg/activity"
)

// Session applies reconciled writes to documents held by a Store.
type Session struct {
	Store Store
	// Formats resolves codecs; nil selects format.DefaultRegistry.
	Formats *format.Registry
	// Build configures how written lines become a document.
	Build []lexical.BuilderOption
	// Reconcile is forwarded to lexical.Reconcile.
	Reconcile []lexical.ReconcileOption
	// Emitter receives one event per change plus a document.saved summary.
	Emitter *activity.Emitter
	// Events supplies actor and tenant fields for emitted events.
	Events activity.EventInput
}

// Result describes one write.
type Result struct {
	Document *lexical.Document
	Report   lexical.Report
	// Before and After hold the encoded document around the write.
	Before []byte
	After  []byte
	Meta   Meta
	// Saved is false for plans and for writes that left the bytes unchanged.
	Saved bool
}

// Changed reports whether the encoded document differs from the stored one.
func (r Result) Changed() bool {
	return !bytes.Equal(r.Before, r.After)
}

// Read decodes the document stored for ref. A missing document reads as an
// empty one with zero Meta.
func (s *Session) Read(ctx context.Context, ref Ref) (*lexical.Document, Meta, error) {
	doc, _, meta, err := s.read(ctx, ref)
	return doc, meta, err
}

// Plan computes the outcome of Write without saving or emitting.
func (s *Session) Plan(ctx context.Context, ref Ref, lines iter.Seq[lexical.Line], flags lexical.WriteFlags) (Result, error) {
	return s.apply(ctx, ref, lines, flags, Meta{}, false)
}

// Write folds lines into a document, reconciles it with the stored one
// under flags and saves the result. When meta.ETag is set and the stored
// document carries a different one the write fails with ErrETagMismatch.
// Events are emitted after the save; an emission failure is returned along
// with the saved Result.
func (s *Session) Write(ctx context.Context, ref Ref, lines iter.Seq[lexical.Line], flags lexical.WriteFlags, meta Meta) (Result, error) {
	return s.apply(ctx, ref, lines, flags, meta, true)
}

func (s *Session) apply(ctx context.Context, ref Ref, lines iter.Seq[lexical.Line], flags lexical.WriteFlags, meta Meta, save bool) (Result, error) {
	if s.Store == nil {
		return Result{}, fmt.Errorf("state: store is required")
	}
	if lines == nil {
		return Result{}, fmt.Errorf("state: lines are required")
	}
	codec, err := s.codec(ref)
	if err != nil {
		return Result{}, err
	}

	old, before, loadedMeta, err := s.read(ctx, ref)
	if err != nil {
		return Result{}, err
	}
	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return Result{}, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	updated, err := lexical.NewBuilder(s.Build...).Build(lines)
	if err != nil {
		return Result{}, fmt.Errorf("state: build %q: %w", ref.Resource, err)
	}
	merged, report, err := lexical.Reconcile(old, updated, flags, s.Reconcile...)
	if err != nil {
		return Result{}, fmt.Errorf("state: reconcile %q: %w", ref.Resource, err)
	}
	after, err := codec.Encode(merged)
	if err != nil {
		return Result{}, fmt.Errorf("state: encode %q: %w", ref.Resource, err)
	}

	result := Result{Document: merged, Report: report, Before: before, After: after, Meta: loadedMeta}
	if !save || (before != nil && !result.Changed()) {
		return result, nil
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.UpdatedAt = meta.UpdatedAt
	if meta.SnapshotID == "" {
		saveMeta.SnapshotID = uuid.NewString()
	}
	saved, err := s.Store.Save(ctx, ref, after, saveMeta)
	if err != nil {
		return Result{}, fmt.Errorf("state: save %q: %w", ref.Resource, err)
	}
	result.Meta = saved
	result.Saved = true

	if err := s.emit(ctx, ref, saved, report); err != nil {
		return result, fmt.Errorf("state: emit %q: %w", ref.Resource, err)
	}
	return result, nil
}

func (s *Session) read(ctx context.Context, ref Ref) (*lexical.Document, []byte, Meta, error) {
	if s.Store == nil {
		return nil, nil, Meta{}, fmt.Errorf("state: store is required")
	}
	codec, err := s.codec(ref)
	if err != nil {
		return nil, nil, Meta{}, err
	}
	builder := lexical.NewBuilder(s.Build...)
	data, meta, ok, err := s.Store.Load(ctx, ref)
	if err != nil {
		return nil, nil, Meta{}, fmt.Errorf("state: load %q: %w", ref.Resource, err)
	}
	if !ok {
		return builder.NewDocument(), nil, Meta{}, nil
	}
	doc, err := codec.Decode(data, builder.NewDocument().ParameterInfos())
	if err != nil {
		return nil, nil, Meta{}, fmt.Errorf("state: decode %q: %w", ref.Resource, err)
	}
	return doc, data, meta, nil
}

func (s *Session) codec(ref Ref) (format.Codec, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, err
	}
	formats := s.Formats
	if formats == nil {
		formats = format.DefaultRegistry()
	}
	return formats.Resolve(ref.Format, key)
}

func (s *Session) emit(ctx context.Context, ref Ref, meta Meta, report lexical.Report) error {
	if !s.Emitter.Enabled() {
		return nil
	}
	input := s.Events
	input.Resource = ref.Resource
	input.SnapshotID = meta.SnapshotID
	events := activity.BuildEntryEvents(input, report)
	events = append(events, activity.BuildDocumentSavedEvent(input, report))
	return s.Emitter.EmitAll(ctx, events...)
}
